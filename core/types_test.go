package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haunted-house/math"
)

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ff7d46")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.R, 1e-6)
	assert.InDelta(t, 0x7d/255.0, c.G, 1e-6)
	assert.InDelta(t, 0x46/255.0, c.B, 1e-6)
	assert.Equal(t, float32(1), c.A)
	assert.Equal(t, "#ff7d46", c.Hex())

	short, err := ParseHex("#fff")
	require.NoError(t, err)
	assert.Equal(t, ColorWhite, short)

	_, err = ParseHex("moonlight")
	assert.Error(t, err)
}

func TestTransformMatrixIsParentRelativeSRT(t *testing.T) {
	tr := NewTransform()
	tr.Position = math.NewVec3(0, 0.3, 2.3)
	tr.Scale = math.NewVec3(0.5, 0.5, 0.5)

	got := tr.GetMatrix().MulVec3(math.NewVec3(1, 0, 0))
	assert.True(t, got.ApproxEqual(math.NewVec3(0.5, 0.3, 2.3), 1e-6), "got %v", got)
}

func TestConfigErrorf(t *testing.T) {
	err := ConfigErrorf("radius span %v must be positive", -1)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "radius span -1")
}
