// Package region derives renderable regions for groups of geotagged
// entities. A region is a padded convex polygon around the group's member
// and meeting-point locations, or a circle when too few points exist to
// form one. Regions are always recomputed from scratch, never patched.
package region

import (
	"github.com/rotisserie/eris"

	"github.com/flockmap/flock-cli/internal/geometry"
)

// ErrInsufficientData signals that a group has no locatable points. It is
// non-fatal; the caller deletes any existing region instead of drawing one.
var ErrInsufficientData = eris.New("region: no locatable points")

// DefaultRadiusMeters is the minimum circle radius for one- and two-point
// groups, so a lone member still gets a visible region.
const DefaultRadiusMeters = 100.0

// Shape is the tagged variant emitted to the rendering surface. The two
// implementations are Polygon and Circle; consumers switch exhaustively.
type Shape interface {
	shape()
}

// Polygon is a convex boundary around three or more points. Collinear
// input can degrade it to fewer than three vertices; renderers must cope.
type Polygon struct {
	Vertices []geometry.Point
}

// Circle covers degenerate one- and two-point groups.
type Circle struct {
	Center       geometry.Point
	RadiusMeters float64
}

func (Polygon) shape() {}
func (Circle) shape()  {}

// SelectShape decides circle versus polygon for a point set and returns the
// raw, unpadded shape. Zero points is an error; the caller must remove the
// group's region instead.
func SelectShape(points []geometry.Point) (Shape, error) {
	switch {
	case len(points) == 0:
		return nil, eris.Wrap(ErrInsufficientData, "region: select shape")
	case len(points) <= 2:
		center, err := geometry.Centroid(points)
		if err != nil {
			return nil, err
		}
		radius := geometry.MaxDistanceFromCenter(center, points, geometry.HaversineMeters)
		if radius < DefaultRadiusMeters {
			radius = DefaultRadiusMeters
		}
		return Circle{Center: center, RadiusMeters: radius}, nil
	default:
		return Polygon{Vertices: geometry.ConvexHull(points)}, nil
	}
}
