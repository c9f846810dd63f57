package region

import (
	"math"

	"github.com/flockmap/flock-cli/internal/geometry"
)

// Padding margins. Circles grow by a metric margin; polygon vertices are
// pushed outward by a raw degree offset. The unit mismatch (a degree of
// longitude shrinks with cos(lat)) is inherited from the original region
// renderer and kept for visual parity.
const (
	PadMeters  = 50.0
	PadDegrees = 0.0005
)

// Pad expands a raw shape outward so the boundary clears the points it
// encloses. It must only ever be applied to a freshly selected shape:
// padding a padded shape compounds the margin.
func Pad(s Shape) Shape {
	switch v := s.(type) {
	case Circle:
		v.RadiusMeters += PadMeters
		return v
	case Polygon:
		return Polygon{Vertices: padVertices(v.Vertices)}
	default:
		return s
	}
}

// padVertices scales each centroid-to-vertex vector by a degree margin.
func padVertices(vertices []geometry.Point) []geometry.Point {
	center, err := geometry.Centroid(vertices)
	if err != nil {
		return vertices
	}

	out := make([]geometry.Point, len(vertices))
	for i, v := range vertices {
		dLat := v.Lat - center.Lat
		dLng := v.Lng - center.Lng
		length := math.Hypot(dLat, dLng)
		if length == 0 {
			out[i] = v
			continue
		}
		factor := (length + PadDegrees) / length
		out[i] = geometry.Point{
			Lat: center.Lat + dLat*factor,
			Lng: center.Lng + dLng*factor,
		}
	}
	return out
}
