package region

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flockmap/flock-cli/internal/geometry"
)

func TestSelectShape_Empty(t *testing.T) {
	_, err := SelectShape(nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInsufficientData))
}

func TestSelectShape_SinglePoint(t *testing.T) {
	// A lone member gets the default-radius circle centered on itself.
	shape, err := SelectShape([]geometry.Point{{Lat: 0, Lng: 0}})
	require.NoError(t, err)

	circle, ok := shape.(Circle)
	require.True(t, ok, "expected a circle, got %T", shape)
	assert.Equal(t, geometry.Point{Lat: 0, Lng: 0}, circle.Center)
	assert.Equal(t, DefaultRadiusMeters, circle.RadiusMeters)
}

func TestSelectShape_DuplicatePoints(t *testing.T) {
	// Two identical points: max distance is zero, default radius wins.
	shape, err := SelectShape([]geometry.Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 0}})
	require.NoError(t, err)

	circle, ok := shape.(Circle)
	require.True(t, ok)
	assert.Equal(t, geometry.Point{Lat: 0, Lng: 0}, circle.Center)
	assert.Equal(t, DefaultRadiusMeters, circle.RadiusMeters)
}

func TestSelectShape_TwoDistantPoints(t *testing.T) {
	// Far-apart pair: the circle must reach the farther point.
	a := geometry.Point{Lat: 0, Lng: 0}
	b := geometry.Point{Lat: 0, Lng: 0.1}
	shape, err := SelectShape([]geometry.Point{a, b})
	require.NoError(t, err)

	circle, ok := shape.(Circle)
	require.True(t, ok)
	assert.InDelta(t, 0.05, circle.Center.Lng, 1e-9)
	assert.Greater(t, circle.RadiusMeters, DefaultRadiusMeters)
	assert.InDelta(t, geometry.HaversineMeters(circle.Center, b), circle.RadiusMeters, 1e-6)
}

func TestSelectShape_Polygon(t *testing.T) {
	shape, err := SelectShape([]geometry.Point{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 1, Lng: 0},
		{Lat: 1, Lng: 1},
	})
	require.NoError(t, err)

	poly, ok := shape.(Polygon)
	require.True(t, ok, "expected a polygon, got %T", shape)
	assert.Len(t, poly.Vertices, 4)
}

func TestSelectShape_CollinearStillPolygon(t *testing.T) {
	// Three collinear points select the polygon branch; the hull degrades
	// to a thin boundary but must not error.
	shape, err := SelectShape([]geometry.Point{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 0, Lng: 2},
	})
	require.NoError(t, err)

	poly, ok := shape.(Polygon)
	require.True(t, ok)
	assert.NotEmpty(t, poly.Vertices)
}
