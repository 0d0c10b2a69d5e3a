package tuning

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haunted-house/core"
)

type lights struct {
	ambient, moonX float32
}

func newPanel(t *testing.T) (*Panel, *lights) {
	l := &lights{ambient: 0.12, moonX: 4}
	p := NewPanel()
	_, err := p.Bind("ambient.intensity", &l.ambient, 0, 1)
	require.NoError(t, err)
	_, err = p.Bind("moon.x", &l.moonX, -5, 5)
	require.NoError(t, err)
	return p, l
}

func TestBind(t *testing.T) {
	p, _ := newPanel(t)
	var v float32
	_, err := p.Bind("moon.x", &v, 0, 1)
	assert.ErrorIs(t, err, core.ErrConfiguration)
	_, err = p.Bind("moon.y", &v, 1, 0)
	assert.ErrorIs(t, err, core.ErrConfiguration)
	_, err = p.Bind("moon.z", nil, 0, 1)
	assert.ErrorIs(t, err, core.ErrConfiguration)
	assert.Equal(t, []string{"ambient.intensity", "moon.x"}, p.Names())
}

func TestSet(t *testing.T) {
	p, l := newPanel(t)
	require.NoError(t, p.Set("ambient.intensity", 0.5))
	assert.Equal(t, float32(0.5), l.ambient)

	assert.ErrorIs(t, p.Set("ambient.intensity", 1.5), ErrOutOfRange)
	assert.ErrorIs(t, p.Set("moon.x", -5.01), ErrOutOfRange)
	assert.ErrorIs(t, p.Set("sun.x", 1), ErrUnknownParam)
	assert.Equal(t, float32(0.5), l.ambient)

	v, err := p.Get("moon.x")
	require.NoError(t, err)
	assert.Equal(t, float32(4), v)
}

func TestOnChange(t *testing.T) {
	var x float32
	var seen []float32
	p := NewPanel()
	param, err := p.Bind("moon.x", &x, -5, 5)
	require.NoError(t, err)
	param.OnChange = func(v float32) { seen = append(seen, v) }

	require.NoError(t, p.Set("moon.x", 2))
	assert.Equal(t, []float32{2}, seen)
}

func TestQueueAppliesBetweenFrames(t *testing.T) {
	p, l := newPanel(t)
	err := p.Queue(map[string]float32{"ambient.intensity": 0.8, "moon.x": 9, "fog.near": 1})
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, err, ErrUnknownParam)
	assert.Equal(t, float32(0.12), l.ambient, "queued values wait for ApplyPending")

	p.ApplyPending()
	assert.Equal(t, float32(0.8), l.ambient)
	assert.Equal(t, float32(4), l.moonX)

	p.ApplyPending()
	assert.Equal(t, float32(0.8), l.ambient)
}

func TestParse(t *testing.T) {
	values, err := Parse([]byte("moon.x = 1\n[ambient]\nintensity = 0.25\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]float32{"moon.x": 1, "ambient.intensity": 0.25}, values)

	_, err = Parse([]byte(`moon.x = "left"`))
	assert.Error(t, err)
	_, err = Parse([]byte(`moon.x = `))
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	p, _ := newPanel(t)
	data, err := p.Encode()
	require.NoError(t, err)
	values, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, p.Values(), values)
}

func TestWatchQueuesFileChanges(t *testing.T) {
	p, l := newPanel(t)
	path := filepath.Join(t.TempDir(), "tune.toml")
	require.NoError(t, os.WriteFile(path, []byte("ambient.intensity = 0.3\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, p.Watch(ctx, path))

	p.ApplyPending()
	assert.Equal(t, float32(0.3), l.ambient, "initial contents are queued")

	require.NoError(t, os.WriteFile(path, []byte("ambient.intensity = 0.6\nmoon.x = -2\n"), 0o644))
	assert.Eventually(t, func() bool {
		p.ApplyPending()
		return l.moonX == -2
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, float32(0.6), l.ambient)
}
