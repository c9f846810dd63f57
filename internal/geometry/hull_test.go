package geometry

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvexHull_SmallSetsUnchanged(t *testing.T) {
	one := []Point{{Lat: 1, Lng: 2}}
	assert.Equal(t, one, ConvexHull(one))

	two := []Point{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}}
	assert.Equal(t, two, ConvexHull(two))

	three := []Point{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 0}, {Lat: 0, Lng: 1}}
	assert.Equal(t, three, ConvexHull(three))
}

func TestConvexHull_UnitSquare(t *testing.T) {
	// Interior point must be dropped, corners kept.
	points := []Point{
		{Lat: 1, Lng: 1},
		{Lat: 0, Lng: 0},
		{Lat: 0.5, Lng: 0.5},
		{Lat: 0, Lng: 1},
		{Lat: 1, Lng: 0},
	}
	hull := ConvexHull(points)
	require.Len(t, hull, 4)
	assert.ElementsMatch(t, []Point{
		{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 1, Lng: 0}, {Lat: 1, Lng: 1},
	}, hull)
}

func TestConvexHull_Convexity(t *testing.T) {
	// Every consecutive triple on the hull must be a strict left turn.
	rng := rand.New(rand.NewSource(42))
	points := make([]Point, 50)
	for i := range points {
		points[i] = Point{Lat: rng.Float64() * 10, Lng: rng.Float64() * 10}
	}

	hull := ConvexHull(points)
	require.GreaterOrEqual(t, len(hull), 3)
	n := len(hull)
	for i := 0; i < n; i++ {
		a, b, c := hull[i], hull[(i+1)%n], hull[(i+2)%n]
		assert.Greater(t, cross(a, b, c), 0.0, "reflex vertex at %d", i)
	}
}

func TestConvexHull_Containment(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	points := make([]Point, 40)
	for i := range points {
		points[i] = Point{Lat: rng.Float64()*2 - 1, Lng: rng.Float64()*2 - 1}
	}

	hull := ConvexHull(points)
	require.GreaterOrEqual(t, len(hull), 3)

	// A point is inside or on a counter-clockwise hull when no edge sees it
	// on the right side.
	n := len(hull)
	for _, p := range points {
		for i := 0; i < n; i++ {
			a, b := hull[i], hull[(i+1)%n]
			assert.GreaterOrEqual(t, cross(a, b, p), -1e-12)
		}
	}
}

func TestConvexHull_OrderIndependence(t *testing.T) {
	points := []Point{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 1, Lng: 0},
		{Lat: 1, Lng: 1},
		{Lat: 0.3, Lng: 0.7},
	}
	base := ConvexHull(points)

	rng := rand.New(rand.NewSource(99))
	for trial := 0; trial < 10; trial++ {
		shuffled := append([]Point(nil), points...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.ElementsMatch(t, base, ConvexHull(shuffled))
	}
}

func TestConvexHull_Collinear(t *testing.T) {
	// All-collinear input degrades to a two-point boundary. Must not panic.
	points := []Point{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 0, Lng: 2},
		{Lat: 0, Lng: 3},
	}
	hull := ConvexHull(points)
	assert.Less(t, len(hull), 3)
	assert.Contains(t, hull, Point{Lat: 0, Lng: 0})
	assert.Contains(t, hull, Point{Lat: 0, Lng: 3})
}

func TestConvexHull_AllIdentical(t *testing.T) {
	points := []Point{
		{Lat: 5, Lng: 5},
		{Lat: 5, Lng: 5},
		{Lat: 5, Lng: 5},
		{Lat: 5, Lng: 5},
	}
	assert.NotPanics(t, func() { ConvexHull(points) })
}
