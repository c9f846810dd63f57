// Package render implements the map rendering surface the region store
// emits shapes to. The GeoJSON renderer keeps drawn shapes as features so
// an HTTP client can fetch the whole overlay in one FeatureCollection.
package render

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/flockmap/flock-cli/internal/geometry"
	"github.com/flockmap/flock-cli/internal/region"
)

// GeoJSONRenderer implements region.Renderer by accumulating features keyed
// by handle. Each feature carries the owning group id so the map client can
// wire click-to-select without the region engine knowing about clicks.
type GeoJSONRenderer struct {
	mu       sync.RWMutex
	features map[region.Handle]*geojson.Feature
}

// NewGeoJSON creates an empty renderer.
func NewGeoJSON() *GeoJSONRenderer {
	return &GeoJSONRenderer{features: make(map[region.Handle]*geojson.Feature)}
}

// DrawPolygon adds a polygon feature and returns its handle. Degenerate
// boundaries with fewer than three vertices are drawn as line strings so
// collinear groups still show up.
func (r *GeoJSONRenderer) DrawPolygon(vertices []geometry.Point, groupID, color string) (region.Handle, error) {
	if len(vertices) == 0 {
		return "", eris.New("render: polygon with no vertices")
	}

	var g geom.T
	if len(vertices) < 3 {
		ls := geom.NewLineString(geom.XY)
		if _, err := ls.SetCoords(toCoords(vertices)); err != nil {
			return "", eris.Wrap(err, "render: degenerate boundary")
		}
		g = ls
	} else {
		ring := toCoords(vertices)
		ring = append(ring, ring[0]) // close the ring
		poly := geom.NewPolygon(geom.XY)
		if _, err := poly.SetCoords([][]geom.Coord{ring}); err != nil {
			return "", eris.Wrap(err, "render: polygon ring")
		}
		g = poly
	}

	return r.add(g, map[string]any{
		"kind":     "region",
		"group_id": groupID,
		"color":    color,
	}), nil
}

// DrawCircle adds a point feature with a radius property; map clients
// render it as a circle overlay.
func (r *GeoJSONRenderer) DrawCircle(center geometry.Point, radiusMeters float64, groupID, color string) (region.Handle, error) {
	pt := geom.NewPointFlat(geom.XY, []float64{center.Lng, center.Lat})
	return r.add(pt, map[string]any{
		"kind":     "region",
		"group_id": groupID,
		"color":    color,
		"radius_m": radiusMeters,
	}), nil
}

// RemoveShape erases a drawn feature. Unknown handles are an error so
// double-release bugs surface in logs.
func (r *GeoJSONRenderer) RemoveShape(h region.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.features[h]; !ok {
		return eris.Errorf("render: unknown shape handle %s", h)
	}
	delete(r.features, h)
	return nil
}

// FeatureCollection snapshots the currently drawn shapes. Records hidden by
// the store-wide visibility toggle are filtered by the caller, which knows
// the region records; the renderer only holds what was drawn.
func (r *GeoJSONRenderer) FeatureCollection() *geojson.FeatureCollection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fc := &geojson.FeatureCollection{}
	for _, f := range r.features {
		fc.Features = append(fc.Features, f)
	}
	return fc
}

// Feature returns the drawn feature for a handle, or nil.
func (r *GeoJSONRenderer) Feature(h region.Handle) *geojson.Feature {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.features[h]
}

func (r *GeoJSONRenderer) add(g geom.T, props map[string]any) region.Handle {
	h := region.Handle(uuid.New().String())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.features[h] = &geojson.Feature{
		ID:         string(h),
		Geometry:   g,
		Properties: props,
	}
	return h
}

// MarkerFeature builds a point feature for an entity marker. Used by the
// serving layer to put people, meeting points, and families on the map
// alongside the region overlays.
func MarkerFeature(id, kind, name string, loc geometry.Point, extra map[string]any) *geojson.Feature {
	props := map[string]any{
		"kind": kind,
		"name": name,
	}
	for k, v := range extra {
		props[k] = v
	}
	return &geojson.Feature{
		ID:         id,
		Geometry:   geom.NewPointFlat(geom.XY, []float64{loc.Lng, loc.Lat}),
		Properties: props,
	}
}

// toCoords converts lat/lng points to go-geom lng/lat coordinates.
func toCoords(points []geometry.Point) []geom.Coord {
	coords := make([]geom.Coord, len(points))
	for i, p := range points {
		coords[i] = geom.Coord{p.Lng, p.Lat}
	}
	return coords
}
