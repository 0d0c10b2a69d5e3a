// Package assets decodes texture files in the background.
package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"haunted-house/scene"
)

// DefaultMaxSize bounds the longer edge of a decoded texture.
const DefaultMaxSize = 2048

// Loader hands out texture handles immediately and fills them in as decodes
// finish. A file that cannot be read or decoded is logged and its handle
// stays unresolved, so the renderer keeps drawing the material flat.
type Loader struct {
	// Root is joined to relative paths.
	Root string
	// MaxSize bounds the longer edge; larger images are downscaled.
	MaxSize int

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
	sem    *semaphore.Weighted

	mu    sync.Mutex
	cache map[string]*scene.Texture
	errs  []error
}

// NewLoader decodes at most workers files at a time.
func NewLoader(root string, workers int) *Loader {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		Root:    root,
		MaxSize: DefaultMaxSize,
		ctx:     ctx,
		cancel:  cancel,
		sem:     semaphore.NewWeighted(int64(workers)),
		cache:   make(map[string]*scene.Texture),
	}
}

// Load returns the handle for path, starting a decode on first request.
func (l *Loader) Load(path string) *scene.Texture {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tex, ok := l.cache[path]; ok {
		return tex
	}
	tex := scene.NewTexture(path)
	l.cache[path] = tex

	full := path
	if l.Root != "" && !filepath.IsAbs(path) {
		full = filepath.Join(l.Root, path)
	}
	l.group.Go(func() error {
		if err := l.sem.Acquire(l.ctx, 1); err != nil {
			return nil
		}
		defer l.sem.Release(1)
		if err := l.decode(full, tex); err != nil {
			slog.Warn("texture unavailable", "path", full, "err", err)
			l.mu.Lock()
			l.errs = append(l.errs, err)
			l.mu.Unlock()
		}
		return nil
	})
	return tex
}

// Wait blocks until every started decode has finished and reports the
// failures together.
func (l *Loader) Wait() error {
	_ = l.group.Wait()
	l.mu.Lock()
	defer l.mu.Unlock()
	return errors.Join(l.errs...)
}

// Close abandons decodes that have not started and waits for the rest.
func (l *Loader) Close() {
	l.cancel()
	_ = l.group.Wait()
}

// Len is the number of distinct paths requested.
func (l *Loader) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}

func (l *Loader) decode(path string, tex *scene.Texture) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode texture %s: %w", path, err)
	}
	if l.ctx.Err() != nil {
		return nil
	}

	rgba := toRGBA(img, l.MaxSize)
	flipRows(rgba)
	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()
	tex.Resolve(w, h, rgba.Pix)
	slog.Debug("texture decoded", "path", path, "format", format, "width", w, "height", h)
	return nil
}

// toRGBA converts img to tightly packed RGBA, scaling it down so neither
// edge exceeds maxSize.
func toRGBA(img image.Image, maxSize int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			w, h = maxSize, max(1, h*maxSize/w)
		} else {
			w, h = max(1, w*maxSize/h), maxSize
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		return dst
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// flipRows reverses row order in place so the first row is the bottom of
// the image, matching GL's texture origin.
func flipRows(img *image.RGBA) {
	h := img.Bounds().Dy()
	row := make([]byte, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bottom := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
}
