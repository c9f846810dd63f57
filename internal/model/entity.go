// Package model defines the geotagged entities tracked on the map: people,
// meeting points, groups, and families.
package model

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/flockmap/flock-cli/internal/geometry"
)

// DefaultGroupColor is used when a group is created without an explicit
// display color.
const DefaultGroupColor = "#3388ff"

// Person is a tracked individual with a home location. GroupID and FamilyID
// are empty when unassigned.
type Person struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Location  geometry.Point `json:"location"`
	GroupID   string         `json:"group_id,omitempty"`
	FamilyID  string         `json:"family_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// MeetingPoint is a location where a group gathers.
type MeetingPoint struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Location  geometry.Point `json:"location"`
	GroupID   string         `json:"group_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Group is a named collection of people and meeting points. Its region on
// the map is derived from member locations and never stored.
type Group struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Color        string    `json:"color"`
	Requirements string    `json:"requirements,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Family groups people into a household with its own display location.
type Family struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Location  geometry.Point `json:"location"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ValidateLocation checks WGS84 bounds.
func ValidateLocation(p geometry.Point) error {
	if p.Lat < -90 || p.Lat > 90 {
		return eris.Errorf("model: latitude %f out of range", p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return eris.Errorf("model: longitude %f out of range", p.Lng)
	}
	return nil
}
