package geometry

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentroid_Empty(t *testing.T) {
	_, err := Centroid(nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrEmptyInput))
}

func TestCentroid_SinglePoint(t *testing.T) {
	c, err := Centroid([]Point{{Lat: 30.5, Lng: -97.2}})
	require.NoError(t, err)
	assert.Equal(t, Point{Lat: 30.5, Lng: -97.2}, c)
}

func TestCentroid_Mean(t *testing.T) {
	c, err := Centroid([]Point{
		{Lat: 0, Lng: 0},
		{Lat: 2, Lng: 4},
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.Lat, 1e-9)
	assert.InDelta(t, 2.0, c.Lng, 1e-9)
}

func TestPlanarDistanceMeters_Equator(t *testing.T) {
	// One degree of longitude at the equator.
	d := PlanarDistanceMeters(Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 1})
	assert.InDelta(t, 111320, d, 1)
}

func TestPlanarDistanceMeters_LatitudeShrink(t *testing.T) {
	// A degree of longitude at 60N covers half the equatorial distance.
	d := PlanarDistanceMeters(Point{Lat: 60, Lng: 0}, Point{Lat: 60, Lng: 1})
	assert.InDelta(t, 111320.0/2, d, 100)
}

func TestHaversineMeters(t *testing.T) {
	// Austin to Dallas, roughly 293 km.
	d := HaversineMeters(Point{Lat: 30.2672, Lng: -97.7431}, Point{Lat: 32.7767, Lng: -96.7970})
	assert.InDelta(t, 293000, d, 3000)

	assert.InDelta(t, 0, HaversineMeters(Point{Lat: 30, Lng: -97}, Point{Lat: 30, Lng: -97}), 0.001)
}

func TestMaxDistanceFromCenter(t *testing.T) {
	center := Point{Lat: 0, Lng: 0}
	points := []Point{
		{Lat: 0, Lng: 0.001},
		{Lat: 0.01, Lng: 0},
		{Lat: 0, Lng: -0.002},
	}
	d := MaxDistanceFromCenter(center, points, HaversineMeters)
	assert.InDelta(t, HaversineMeters(center, Point{Lat: 0.01, Lng: 0}), d, 1e-6)
}

func TestMaxDistanceFromCenter_Empty(t *testing.T) {
	assert.Equal(t, 0.0, MaxDistanceFromCenter(Point{}, nil, HaversineMeters))
}
