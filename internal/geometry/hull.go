package geometry

import (
	"math"
	"sort"
)

// ConvexHull computes the convex hull boundary of the given points with a
// Graham scan. The input slice is not modified. Point sets of three or fewer
// are returned as-is (already convex or degenerate). All-collinear inputs
// may produce fewer than three vertices; callers must not assume a full
// polygon comes back.
func ConvexHull(points []Point) []Point {
	if len(points) <= 3 {
		return append([]Point(nil), points...)
	}

	// Pivot: lowest latitude, ties broken by lowest longitude.
	pts := append([]Point(nil), points...)
	pivot := 0
	for i, p := range pts {
		if p.Lat < pts[pivot].Lat || (p.Lat == pts[pivot].Lat && p.Lng < pts[pivot].Lng) {
			pivot = i
		}
	}
	pts[0], pts[pivot] = pts[pivot], pts[0]
	origin := pts[0]

	// Sort the rest by polar angle around the pivot, nearest first on ties.
	rest := pts[1:]
	sort.Slice(rest, func(i, j int) bool {
		ai := math.Atan2(rest[i].Lat-origin.Lat, rest[i].Lng-origin.Lng)
		aj := math.Atan2(rest[j].Lat-origin.Lat, rest[j].Lng-origin.Lng)
		if ai != aj {
			return ai < aj
		}
		return squaredDist(origin, rest[i]) < squaredDist(origin, rest[j])
	})

	hull := []Point{origin, rest[0]}
	for _, p := range rest[1:] {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull
}

// cross returns the z-component of (b-a) x (c-a). Positive means a left
// turn when walking a -> b -> c.
func cross(a, b, c Point) float64 {
	return (b.Lng-a.Lng)*(c.Lat-a.Lat) - (b.Lat-a.Lat)*(c.Lng-a.Lng)
}

// squaredDist is the squared planar degree distance, used only for hull
// tie-breaking where units cancel out.
func squaredDist(a, b Point) float64 {
	dLat := b.Lat - a.Lat
	dLng := b.Lng - a.Lng
	return dLat*dLat + dLng*dLng
}
