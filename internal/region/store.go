package region

import (
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flockmap/flock-cli/internal/geometry"
)

// Handle identifies a drawn shape on the rendering surface.
type Handle string

// Renderer is the rendering collaborator the store emits shapes to. The
// store never interprets handles; it only stores them so removal can
// release the drawn shape.
type Renderer interface {
	DrawPolygon(vertices []geometry.Point, groupID, color string) (Handle, error)
	DrawCircle(center geometry.Point, radiusMeters float64, groupID, color string) (Handle, error)
	RemoveShape(h Handle) error
}

// Record is the stored, renderable region for one group. Replaced wholesale
// on every recompute; never partially mutated.
type Record struct {
	GroupID string
	Shape   Shape
	Color   string
	Visible bool
	Handle  Handle
}

// Store maps group ids to their current region record. It is the only owner
// of region state; regions are derived data and are never persisted.
type Store struct {
	mu       sync.RWMutex
	records  map[string]*Record
	visible  bool
	renderer Renderer
}

// NewStore creates an empty region store emitting to the given renderer.
func NewStore(renderer Renderer) *Store {
	return &Store{
		records:  make(map[string]*Record),
		visible:  true,
		renderer: renderer,
	}
}

// Recompute replaces the region for a group from its current point set.
// An empty point set behaves as Remove and returns nil. On shape or
// renderer failure the prior record is left in place so the map does not
// flicker; the error is returned for the caller to log.
func (s *Store) Recompute(groupID string, points []geometry.Point, color string) (*Record, error) {
	if len(points) == 0 {
		s.Remove(groupID)
		return nil, nil
	}

	shape, err := SelectShape(points)
	if err != nil {
		return nil, eris.Wrapf(err, "region: recompute %s", groupID)
	}
	padded := Pad(shape)

	s.mu.Lock()
	defer s.mu.Unlock()

	visible := s.visible
	if prior, ok := s.records[groupID]; ok {
		visible = prior.Visible
	}

	handle, err := s.draw(padded, groupID, color)
	if err != nil {
		return nil, eris.Wrapf(err, "region: draw %s", groupID)
	}

	// The new shape is on the surface; now it is safe to drop the old one.
	if prior, ok := s.records[groupID]; ok && prior.Handle != "" {
		if err := s.renderer.RemoveShape(prior.Handle); err != nil {
			zap.L().Warn("region: release prior shape",
				zap.String("group_id", groupID),
				zap.Error(err),
			)
		}
	}

	rec := &Record{
		GroupID: groupID,
		Shape:   padded,
		Color:   color,
		Visible: visible,
		Handle:  handle,
	}
	s.records[groupID] = rec

	snapshot := *rec
	return &snapshot, nil
}

// Remove deletes the stored record for a group, releasing its drawn shape.
// No-op when the group has no region.
func (s *Store) Remove(groupID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[groupID]
	if !ok {
		return
	}
	delete(s.records, groupID)

	if rec.Handle != "" {
		if err := s.renderer.RemoveShape(rec.Handle); err != nil {
			zap.L().Warn("region: release shape",
				zap.String("group_id", groupID),
				zap.Error(err),
			)
		}
	}
}

// SetVisibility toggles all stored regions at once and becomes the default
// for regions created afterwards.
func (s *Store) SetVisibility(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.visible = visible
	for _, rec := range s.records {
		rec.Visible = visible
	}
}

// Visible reports the store-wide visibility flag.
func (s *Store) Visible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible
}

// Get returns a copy of the record for a group, or nil.
func (s *Store) Get(groupID string) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[groupID]
	if !ok {
		return nil
	}
	snapshot := *rec
	return &snapshot
}

// GetAll returns a snapshot of all records sorted by group id.
func (s *Store) GetAll() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return out
}

// draw emits a padded shape to the renderer. Caller holds the lock.
func (s *Store) draw(shape Shape, groupID, color string) (Handle, error) {
	switch v := shape.(type) {
	case Polygon:
		return s.renderer.DrawPolygon(v.Vertices, groupID, color)
	case Circle:
		return s.renderer.DrawCircle(v.Center, v.RadiusMeters, groupID, color)
	default:
		return "", eris.Errorf("region: unknown shape %T", shape)
	}
}
