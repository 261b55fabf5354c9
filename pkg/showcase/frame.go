package showcase

import (
	"math"

	"github.com/taigrr/trophycase/pkg/config"
	"github.com/taigrr/trophycase/pkg/math3d"
	"github.com/taigrr/trophycase/pkg/orbit"
	"github.com/taigrr/trophycase/pkg/render"
)

// DefaultViewDir is the framing direction used when none (or an unusable
// one) is configured.
var DefaultViewDir = math3d.V3(0.45, 0.25, 1.0)

// FrameOptions tune AutoFrame.
type FrameOptions struct {
	ViewDir      math3d.Vec3
	HeightFactor float64 // Pivot height as a fraction of the box height
	Multiplier   float64 // Distance padding
}

// DefaultFrameOptions returns the standard framing.
func DefaultFrameOptions() FrameOptions {
	return FrameOptions{ViewDir: DefaultViewDir, HeightFactor: 0.35, Multiplier: 1.15}
}

// FrameOptionsFor reads g's auto-frame parameters.
func FrameOptionsFor(g *config.Group) FrameOptions {
	o := DefaultFrameOptions()
	if len(g.AutoFrameViewDir) == 3 {
		d := g.AutoFrameViewDir
		o.ViewDir = math3d.V3(d[0], d[1], d[2])
	}
	if g.AutoFrameHeight > 0 {
		o.HeightFactor = g.AutoFrameHeight
	}
	if g.AutoFrameMultiplier > 0 {
		o.Multiplier = g.AutoFrameMultiplier
	}
	return o
}

// AutoFrame places cam so obj's world bounds fill the view, and moves the
// controls' pivot with it. It reports false, leaving the camera alone, when
// the bounds are empty or have no positive finite extent.
func AutoFrame(cam *render.Camera, controls *orbit.Controls, obj *DisplayedObject, o FrameOptions) bool {
	box := obj.WorldBounds()
	if box.IsEmpty() {
		return false
	}
	size := box.Size()
	if maxDim := size.MaxComponent(); !isFinite(maxDim) || maxDim <= 0 {
		return false
	}
	center := box.Center()
	target := math3d.V3(center.X, box.Min.Y+size.Y*o.HeightFactor, center.Z)

	radius := math.Max(1e-6, box.BoundingSphere().Radius)
	dist := radius / math.Sin(cam.FOV/2) * o.Multiplier

	dir := o.ViewDir
	if !dir.IsFinite() || dir.LenSq() < 1e-8 {
		dir = DefaultViewDir
	}
	dir = dir.Normalize()

	cam.SetPosition(target.Add(dir.Scale(dist)))
	cam.SetClipPlanes(math.Max(0.001, dist/200), math.Max(10, dist*50))
	if controls != nil {
		controls.Target = target
	}
	cam.LookAt(target)
	return true
}
