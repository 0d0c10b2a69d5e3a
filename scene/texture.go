package scene

import "sync/atomic"

// Texture is a handle to 2D image data that may still be loading. Until
// Ready reports true the renderer draws the owning material untextured.
type Texture struct {
	Name   string
	Width  int
	Height int
	// Pixels in RGBA8 format (4 bytes per pixel, row-major, bottom row first).
	Pixels []byte
	// GLID is the OpenGL texture object ID, set by the renderer on upload.
	GLID uint32

	ready atomic.Bool
}

// NewTexture returns an unresolved handle.
func NewTexture(name string) *Texture {
	return &Texture{Name: name}
}

// Resolve publishes decoded pixels. Readers that observe Ready also
// observe the pixel data.
func (t *Texture) Resolve(width, height int, pixels []byte) {
	t.Width = width
	t.Height = height
	t.Pixels = pixels
	t.ready.Store(true)
}

func (t *Texture) Ready() bool {
	return t != nil && t.ready.Load()
}

// NewSolidTexture creates a resolved 1x1 texture with the given RGBA values.
func NewSolidTexture(name string, r, g, b, a uint8) *Texture {
	t := NewTexture(name)
	t.Resolve(1, 1, []byte{r, g, b, a})
	return t
}
