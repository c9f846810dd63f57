package region

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flockmap/flock-cli/internal/geometry"
)

// EventType enumerates the domain changes that affect regions.
type EventType int

const (
	GroupCreated EventType = iota
	GroupUpdated
	GroupDeleted
	MemberCreated
	MemberUpdated
	VisibilityChanged
)

// String implements fmt.Stringer for log output.
func (t EventType) String() string {
	switch t {
	case GroupCreated:
		return "group_created"
	case GroupUpdated:
		return "group_updated"
	case GroupDeleted:
		return "group_deleted"
	case MemberCreated:
		return "member_created"
	case MemberUpdated:
		return "member_updated"
	case VisibilityChanged:
		return "visibility_changed"
	default:
		return "unknown"
	}
}

// Event is a single domain change. GroupID is empty only for
// VisibilityChanged.
type Event struct {
	Type    EventType
	GroupID string
	Visible bool
}

// PointSource supplies the current point set and display color for a group.
// It is the only boundary the region engine shares with entity storage.
type PointSource interface {
	GroupPoints(ctx context.Context, groupID string) ([]geometry.Point, error)
	GroupColor(ctx context.Context, groupID string) (string, error)
	ListGroupIDs(ctx context.Context) ([]string, error)
}

// Dispatcher translates domain events into region store operations. It is
// the sole mutator of the store in normal operation; events arrive serially
// from the command layer or the HTTP handlers.
type Dispatcher struct {
	store  *Store
	source PointSource
}

// NewDispatcher wires a region store to an entity point source.
func NewDispatcher(store *Store, source PointSource) *Dispatcher {
	return &Dispatcher{store: store, source: source}
}

// Store exposes the underlying region store for read access.
func (d *Dispatcher) Store() *Store {
	return d.store
}

// Handle routes one event to the region store. Geometry and lookup failures
// are logged as warnings and swallowed: a stale or missing overlay is the
// worst acceptable outcome, and the prior record stays in place.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) {
	switch ev.Type {
	case GroupCreated, GroupUpdated, MemberCreated, MemberUpdated:
		if err := d.recompute(ctx, ev.GroupID); err != nil {
			zap.L().Warn("region: recompute failed",
				zap.Stringer("event", ev.Type),
				zap.String("group_id", ev.GroupID),
				zap.Error(err),
			)
		}
	case GroupDeleted:
		d.store.Remove(ev.GroupID)
	case VisibilityChanged:
		d.store.SetVisibility(ev.Visible)
	default:
		zap.L().Warn("region: unhandled event type", zap.Stringer("event", ev.Type))
	}
}

// recompute rebuilds one group's region from its current points.
func (d *Dispatcher) recompute(ctx context.Context, groupID string) error {
	points, err := d.source.GroupPoints(ctx, groupID)
	if err != nil {
		return eris.Wrapf(err, "region: points for group %s", groupID)
	}
	color, err := d.source.GroupColor(ctx, groupID)
	if err != nil {
		return eris.Wrapf(err, "region: color for group %s", groupID)
	}
	if _, err := d.store.Recompute(groupID, points, color); err != nil {
		return err
	}
	return nil
}

// RecomputeAll rebuilds every known group's region with bounded
// parallelism. Groups are independent, so only the store's own mutex is
// needed for correctness. Per-group failures are logged and do not abort
// the batch.
func (d *Dispatcher) RecomputeAll(ctx context.Context, concurrency int) error {
	ids, err := d.source.ListGroupIDs(ctx)
	if err != nil {
		return eris.Wrap(err, "region: list group ids")
	}
	if concurrency < 1 {
		concurrency = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := d.recompute(ctx, id); err != nil {
				zap.L().Warn("region: batch recompute failed",
					zap.String("group_id", id),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	return g.Wait()
}
