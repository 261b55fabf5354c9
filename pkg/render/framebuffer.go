package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
)

// Framebuffer is a CPU-side color buffer.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []Color // Row-major, Width*Height
}

// NewFramebuffer creates a framebuffer of the given size.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{}
	fb.Resize(width, height)
	return fb
}

// Resize reallocates the pixel storage. Negative sizes are treated as zero.
func (fb *Framebuffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	if width == fb.Width && height == fb.Height && fb.Pixels != nil {
		return
	}
	fb.Width, fb.Height = width, height
	fb.Pixels = make([]Color, width*height)
}

// Clear fills the framebuffer with c.
func (fb *Framebuffer) Clear(c Color) {
	n := len(fb.Pixels)
	if n == 0 {
		return
	}
	fb.Pixels[0] = c
	for i := 1; i < n; i *= 2 {
		copy(fb.Pixels[i:], fb.Pixels[:i])
	}
}

// SetPixel sets (x, y), ignoring out-of-range coordinates.
func (fb *Framebuffer) SetPixel(x, y int, c Color) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns the color at (x, y), or black when out of range.
func (fb *Framebuffer) GetPixel(x, y int) Color {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return ColorBlack
	}
	return fb.Pixels[y*fb.Width+x]
}

// Blit copies fb into dst with its top-left corner at (x, y), clipping to dst.
func (fb *Framebuffer) Blit(dst *Framebuffer, x, y int) {
	for sy := range fb.Height {
		dy := y + sy
		if dy < 0 || dy >= dst.Height {
			continue
		}
		for sx := range fb.Width {
			dst.SetPixel(x+sx, dy, fb.Pixels[sy*fb.Width+sx])
		}
	}
}

// ToImage converts the framebuffer to an RGBA image.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for i, c := range fb.Pixels {
		o := i * 4
		img.Pix[o] = c.R
		img.Pix[o+1] = c.G
		img.Pix[o+2] = c.B
		img.Pix[o+3] = 255
	}
	return img
}

// WritePNG encodes the framebuffer as PNG.
func (fb *Framebuffer) WritePNG(w io.Writer) error {
	if err := png.Encode(w, fb.ToImage()); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// SavePNG writes the framebuffer to a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fb.WritePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
