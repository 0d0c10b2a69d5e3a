package placement

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haunted-house/core"
)

func TestPlaceGraveyardIsReproducible(t *testing.T) {
	a, err := PlaceGraveyard(40, 3, 6.5, NewRand(7))
	require.NoError(t, err)
	b, err := PlaceGraveyard(40, 3, 6.5, NewRand(7))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := PlaceGraveyard(40, 3, 6.5, NewRand(8))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestPlaceGraveyardRanges(t *testing.T) {
	graves, err := PlaceGraveyard(40, 3, 6.5, NewRand(1))
	require.NoError(t, err)
	require.Len(t, graves, 40)

	for i, g := range graves {
		r := math.Hypot(float64(g.Position.X), float64(g.Position.Z))
		assert.GreaterOrEqual(t, r, 3-1e-5, "grave %d", i)
		assert.LessOrEqual(t, r, 9.5+1e-5, "grave %d", i)
		assert.Equal(t, float32(GraveHeight), g.Position.Y)

		assert.Zero(t, g.Rotation.X)
		assert.GreaterOrEqual(t, g.Rotation.Y, float32(-MaxTilt))
		assert.LessOrEqual(t, g.Rotation.Y, float32(MaxTilt))
		assert.GreaterOrEqual(t, g.Rotation.Z, float32(-MaxTilt))
		assert.LessOrEqual(t, g.Rotation.Z, float32(MaxTilt))
		assert.Equal(t, float32(1), g.Scale.X)
	}
}

// sequence replays fixed draws.
type sequence struct {
	values []float64
	next   int
}

func (s *sequence) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

func TestPlaceGraveyardDrawOrder(t *testing.T) {
	// angle, radius, tilt Y, tilt Z
	rng := &sequence{values: []float64{0.25, 0.5, 1, 0}}
	graves, err := PlaceGraveyard(1, 3, 6, rng)
	require.NoError(t, err)
	require.Len(t, graves, 1)

	g := graves[0]
	assert.InDelta(t, 0, g.Position.X, 1e-5)
	assert.InDelta(t, 6, g.Position.Z, 1e-5)
	assert.InDelta(t, MaxTilt, g.Rotation.Y, 1e-6)
	assert.InDelta(t, -MaxTilt, g.Rotation.Z, 1e-6)
	assert.Equal(t, 4, rng.next)
}

func TestPlaceGraveyardEmpty(t *testing.T) {
	graves, err := PlaceGraveyard(0, 3, 6.5, NewRand(1))
	require.NoError(t, err)
	assert.Empty(t, graves)
}

func TestPlaceGraveyardRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		count int
		inner float64
		span  float64
	}{
		{"negative count", -1, 3, 6.5},
		{"negative inner", 40, -1, 6.5},
		{"zero span", 40, 3, 0},
		{"negative span", 40, 3, -2},
		{"nan span", 40, 3, math.NaN()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := PlaceGraveyard(c.count, c.inner, c.span, NewRand(1))
			assert.ErrorIs(t, err, core.ErrConfiguration)
		})
	}
	_, err := PlaceGraveyard(1, 3, 6.5, nil)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}
