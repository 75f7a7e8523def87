package plot

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"sync"

	gfx "github.com/disintegration/imaging"
)

// Target is a display surface that shows one figure at a time.
//
// Show must leave the previous figure in place when it returns an error.
type Target interface {
	Show(fig *Figure) error
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := gfx.Encode(w, img, gfx.PNG); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// BufferTarget keeps the most recent rendering in memory. It is safe for
// concurrent use.
type BufferTarget struct {
	mu     sync.RWMutex
	fig    *Figure
	img    *image.NRGBA
	png    []byte
	frames int
}

// NewBufferTarget returns an empty in-memory target.
func NewBufferTarget() *BufferTarget {
	return &BufferTarget{}
}

// Show renders fig and replaces the held frame.
func (b *BufferTarget) Show(fig *Figure) error {
	img, err := fig.Render()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return err
	}

	b.mu.Lock()
	b.fig = fig
	b.img = img
	b.png = buf.Bytes()
	b.frames++
	b.mu.Unlock()
	return nil
}

// Figure returns the figure currently shown, or nil.
func (b *BufferTarget) Figure() *Figure {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fig
}

// Image returns the current rendering, or nil.
func (b *BufferTarget) Image() *image.NRGBA {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.img
}

// PNG returns the current rendering encoded as PNG, or nil.
func (b *BufferTarget) PNG() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.png
}

// Current returns the figure shown, its rendering and the PNG encoding as
// one consistent frame.
func (b *BufferTarget) Current() (*Figure, *image.NRGBA, []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fig, b.img, b.png
}

// Frames returns how many figures have been shown.
func (b *BufferTarget) Frames() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frames
}

// FileTarget writes every shown figure to Path, overwriting the previous
// one. The format follows the file extension.
type FileTarget struct {
	Path string
}

// Show renders fig and saves it.
func (t FileTarget) Show(fig *Figure) error {
	img, err := fig.Render()
	if err != nil {
		return err
	}
	if err := gfx.Save(img, t.Path); err != nil {
		return fmt.Errorf("failed to save figure: %w", err)
	}
	return nil
}
