// Package store persists the tracked entities. Two backends implement the
// same interface: SQLite for single-user setups and Postgres for shared
// deployments. Computed regions are never stored here; they are derived
// from the point sets these stores return.
package store

import (
	"context"

	"github.com/flockmap/flock-cli/internal/geometry"
	"github.com/flockmap/flock-cli/internal/model"
)

// Store defines the persistence interface for people, meeting points,
// groups, and families.
type Store interface {
	// People
	CreatePerson(ctx context.Context, p *model.Person) error
	UpdatePersonLocation(ctx context.Context, personID string, loc geometry.Point) error
	AssignPersonGroup(ctx context.Context, personID, groupID string) error
	GetPerson(ctx context.Context, personID string) (*model.Person, error)
	ListPersons(ctx context.Context) ([]model.Person, error)

	// Meeting points
	CreateMeeting(ctx context.Context, m *model.MeetingPoint) error
	CreateMeetings(ctx context.Context, ms []*model.MeetingPoint) error
	ListMeetings(ctx context.Context) ([]model.MeetingPoint, error)

	// Groups
	CreateGroup(ctx context.Context, g *model.Group) error
	UpdateGroup(ctx context.Context, g *model.Group) error
	DeleteGroup(ctx context.Context, groupID string) error
	GetGroup(ctx context.Context, groupID string) (*model.Group, error)
	ListGroups(ctx context.Context) ([]model.Group, error)

	// Families
	CreateFamily(ctx context.Context, f *model.Family) error
	ListFamilies(ctx context.Context) ([]model.Family, error)

	// Region engine boundary: the current point set for a group is the
	// union of its member locations and meeting-point locations.
	GroupPoints(ctx context.Context, groupID string) ([]geometry.Point, error)
	GroupColor(ctx context.Context, groupID string) (string, error)
	ListGroupIDs(ctx context.Context) ([]string, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
