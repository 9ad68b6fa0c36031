package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathLength(t *testing.T) {
	a := Coordinate{Lat: 0, Lon: 0}
	b := DestinationPoint(a, 90, 1000)
	c := DestinationPoint(b, 0, 1000)

	length, err := PathLength([]Coordinate{a, b, c})
	require.NoError(t, err)
	assert.InDelta(t, 2000, length, 1)

	length, err = PathLength([]Coordinate{a})
	require.NoError(t, err)
	assert.Zero(t, length)

	_, err = PathLength([]Coordinate{a, {Lat: 100}})
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
}

func TestTortuosity(t *testing.T) {
	a := Coordinate{Lat: 0, Lon: 0}
	b := DestinationPoint(a, 90, 1000)
	c := DestinationPoint(b, 0, 1000)

	straight, err := Tortuosity([]Coordinate{a, Interpolate(a, b, 0.5), b})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, straight, 1e-6)

	bent, err := Tortuosity([]Coordinate{a, b, c})
	require.NoError(t, err)
	assert.InDelta(t, 2000/1414.2, bent, 0.01)

	loop, err := Tortuosity([]Coordinate{a, b, a})
	require.NoError(t, err)
	assert.Equal(t, 1.0, loop)
}
