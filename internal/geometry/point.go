// Package geometry provides the planar and spherical primitives used by the
// group-region engine: centroids, distance functions, and convex hulls over
// WGS84 lat/lng points.
package geometry

import (
	"math"

	"github.com/rotisserie/eris"
)

// ErrEmptyInput is returned when a primitive is invoked on zero points.
// Callers branch on point count before reaching the primitives, so seeing
// this error indicates a programming bug in the caller.
var ErrEmptyInput = eris.New("geometry: empty point set")

// Meters-per-degree constants for the equirectangular approximation.
const (
	metersPerDegLat = 110574.0
	metersPerDegLng = 111320.0
	earthRadiusM    = 6371000.0
)

// Point is a WGS84 coordinate. Value type, no identity.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceFunc measures the distance in meters between two points.
type DistanceFunc func(a, b Point) float64

// Centroid returns the arithmetic mean position of the given points.
func Centroid(points []Point) (Point, error) {
	if len(points) == 0 {
		return Point{}, eris.Wrap(ErrEmptyInput, "geometry: centroid")
	}
	var lat, lng float64
	for _, p := range points {
		lat += p.Lat
		lng += p.Lng
	}
	n := float64(len(points))
	return Point{Lat: lat / n, Lng: lng / n}, nil
}

// PlanarDistanceMeters approximates the distance between two points using an
// equirectangular projection scaled at a's latitude. It degrades near the
// poles and for large separations; HaversineMeters is the preferred path and
// this is the fallback when a cheap answer is good enough.
func PlanarDistanceMeters(a, b Point) float64 {
	dx := metersPerDegLng * math.Cos(a.Lat*math.Pi/180) * (a.Lng - b.Lng)
	dy := metersPerDegLat * (a.Lat - b.Lat)
	return math.Sqrt(dx*dx + dy*dy)
}

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

// MaxDistanceFromCenter returns the distance from center to the farthest
// point in the set under the given distance function. Returns 0 for an
// empty set.
func MaxDistanceFromCenter(center Point, points []Point, dist DistanceFunc) float64 {
	var max float64
	for _, p := range points {
		if d := dist(center, p); d > max {
			max = d
		}
	}
	return max
}
