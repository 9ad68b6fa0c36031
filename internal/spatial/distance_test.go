package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	eiffelTower = Coordinate{Lat: 48.8584, Lon: 2.2945}
	notreDame   = Coordinate{Lat: 48.8530, Lon: 2.3499}
)

func TestDistance_KnownReference(t *testing.T) {
	d, err := Distance(eiffelTower, notreDame)
	require.NoError(t, err)
	assert.InDelta(t, 4110, d, 50)
}

func TestDistance_Symmetric(t *testing.T) {
	pairs := [][2]Coordinate{
		{eiffelTower, notreDame},
		{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}},
		{{Lat: -33.8688, Lon: 151.2093}, {Lat: 51.5074, Lon: -0.1278}},
		{{Lat: 89.9, Lon: 179.9}, {Lat: -89.9, Lon: -179.9}},
	}
	for _, p := range pairs {
		ab, err := Distance(p[0], p[1])
		require.NoError(t, err)
		ba, err := Distance(p[1], p[0])
		require.NoError(t, err)
		assert.InDelta(t, ab, ba, 1e-6)
	}
}

func TestDistance_SamePointIsZero(t *testing.T) {
	d, err := Distance(notreDame, notreDame)
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestDistance_InvalidCoordinate(t *testing.T) {
	bad := []Coordinate{
		{Lat: 91, Lon: 0},
		{Lat: -90.5, Lon: 0},
		{Lat: 0, Lon: 180.1},
		{Lat: math.NaN(), Lon: 0},
		{Lat: 0, Lon: math.Inf(1)},
	}
	for _, c := range bad {
		_, err := Distance(c, eiffelTower)
		assert.ErrorIs(t, err, ErrInvalidCoordinate, "coordinate %v", c)
		_, err = Distance(eiffelTower, c)
		assert.ErrorIs(t, err, ErrInvalidCoordinate, "coordinate %v", c)
	}
}

func TestWithin(t *testing.T) {
	ok, err := Within(Coordinate{}, Coordinate{Lat: 0.001, Lon: 0}, 150)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Within(Coordinate{}, Coordinate{Lat: 0.002, Lon: 0.002}, 150)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDestinationPoint_RoundTrip(t *testing.T) {
	dest := DestinationPoint(eiffelTower, 90, 3000)
	d, err := Distance(eiffelTower, dest)
	require.NoError(t, err)
	assert.InDelta(t, 3000, d, 1)
}

func TestInterpolate_Midpoint(t *testing.T) {
	mid := Interpolate(Coordinate{}, Coordinate{Lat: 0, Lon: 2}, 0.5)
	assert.InDelta(t, 0, mid.Lat, 1e-9)
	assert.InDelta(t, 1, mid.Lon, 1e-9)
}

func TestAverageDistanceToPath(t *testing.T) {
	path := []Coordinate{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.01}, {Lat: 0, Lon: 0.02}}

	avg, err := AverageDistanceToPath(path, path)
	require.NoError(t, err)
	assert.Zero(t, avg)

	shifted := []Coordinate{{Lat: 0.01, Lon: 0}, {Lat: 0.01, Lon: 0.01}}
	avg, err = AverageDistanceToPath(shifted, path)
	require.NoError(t, err)
	assert.InDelta(t, 1112, avg, 5)

	avg, err = AverageDistanceToPath(nil, path)
	require.NoError(t, err)
	assert.True(t, math.IsInf(avg, 1))

	avg, err = AverageDistanceToPath(path, nil)
	require.NoError(t, err)
	assert.True(t, math.IsInf(avg, 1))
}

func TestNearestVertexDistance_Invalid(t *testing.T) {
	_, err := NearestVertexDistance(Coordinate{Lat: 100}, []Coordinate{{}})
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
}
