package render

import (
	"math"

	"github.com/taigrr/trophycase/pkg/math3d"
)

// Camera is a perspective camera looking from Position at Target.
type Camera struct {
	Position math3d.Vec3
	Target   math3d.Vec3
	Up       math3d.Vec3
	FOV      float64 // Vertical field of view in radians
	Aspect   float64
	Near     float64
	Far      float64
}

// NewCamera creates a camera at (0, 0, 5) looking at the origin with a
// 45 degree field of view.
func NewCamera() *Camera {
	return &Camera{
		Position: math3d.V3(0, 0, 5),
		Up:       math3d.UnitY,
		FOV:      math.Pi / 4,
		Aspect:   1,
		Near:     0.01,
		Far:      100,
	}
}

// SetPosition moves the camera without changing its target.
func (c *Camera) SetPosition(p math3d.Vec3) {
	c.Position = p
}

// LookAt points the camera at target.
func (c *Camera) LookAt(target math3d.Vec3) {
	c.Target = target
}

// SetFOV sets the vertical field of view in radians.
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
}

// SetAspectRatio sets width/height. Non-positive values are ignored.
func (c *Camera) SetAspectRatio(aspect float64) {
	if aspect > 0 && !math.IsInf(aspect, 0) {
		c.Aspect = aspect
	}
}

// SetClipPlanes sets the near and far clip distances.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near, c.Far = near, far
}

// Forward returns the unit view direction.
func (c *Camera) Forward() math3d.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

// ViewMatrix returns the world-to-view transform.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	return math3d.LookAt(c.Position, c.Target, c.Up)
}

// ProjectionMatrix returns the perspective projection.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	return math3d.Perspective(c.FOV, c.Aspect, c.Near, c.Far)
}

// ViewProjectionMatrix returns projection * view.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// Clone returns a copy of the camera.
func (c *Camera) Clone() *Camera {
	cp := *c
	return &cp
}
