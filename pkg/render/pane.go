package render

import (
	"github.com/taigrr/trophycase/pkg/math3d"
)

// Style controls how a Pane shades what it draws.
type Style struct {
	Surface     Color // Base color for triangle meshes and uncolored points
	Background  Color
	DoubleSided bool
	PointSize   int
	// KeyLight is mixed with a headlight along the view direction.
	KeyLight math3d.Vec3
}

// DefaultStyle returns the showcase shading defaults.
func DefaultStyle() Style {
	return Style{
		Surface:    ColorSurface,
		Background: ColorBackground,
		PointSize:  1,
		KeyLight:   math3d.V3(0.4, 1, 0.6),
	}
}

// Pane is an offscreen render target: a framebuffer with its own depth
// buffer. One Pane backs one viewport.
type Pane struct {
	Style Style

	fb   *Framebuffer
	rast *Rasterizer
}

// NewPane creates a pane of the given pixel size.
func NewPane(width, height int, style Style) *Pane {
	fb := NewFramebuffer(width, height)
	return &Pane{
		Style: style,
		fb:    fb,
		rast:  NewRasterizer(nil, fb),
	}
}

// Size returns the pane's pixel size.
func (p *Pane) Size() (width, height int) {
	return p.fb.Width, p.fb.Height
}

// Resize changes the pixel size. Equal sizes are a no-op.
func (p *Pane) Resize(width, height int) {
	if width == p.fb.Width && height == p.fb.Height {
		return
	}
	p.fb.Resize(width, height)
	p.rast.Resize()
}

// Framebuffer returns the pane's color buffer.
func (p *Pane) Framebuffer() *Framebuffer {
	return p.fb
}

// Render clears the pane and draws obj with transform from cam. obj may be
// nil, which leaves only the background. Point clouds are recognized by
// having no triangles.
func (p *Pane) Render(cam *Camera, obj MeshRenderer, transform math3d.Mat4) {
	p.fb.Clear(p.Style.Background)
	if obj == nil || p.fb.Width == 0 || p.fb.Height == 0 {
		return
	}
	p.rast.SetCamera(cam)
	p.rast.DoubleSided = p.Style.DoubleSided
	p.rast.PointSize = p.Style.PointSize
	p.rast.ClearDepth()

	if obj.TriangleCount() == 0 {
		if cloud, ok := obj.(PointRenderer); ok {
			p.rast.DrawPoints(cloud, transform, p.Style.Surface)
		}
		return
	}

	headlight := cam.Position.Sub(cam.Target).Normalize()
	light := headlight.Scale(0.6).Add(p.Style.KeyLight.Normalize().Scale(0.4)).Normalize()
	p.rast.DrawMeshGouraud(obj, transform, p.Style.Surface, light)
}
