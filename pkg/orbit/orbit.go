// Package orbit implements an orbit/zoom/pan camera controller around a
// pivot target with spring-damped angular velocity.
package orbit

import (
	"math"

	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/trophycase/pkg/math3d"
	"github.com/taigrr/trophycase/pkg/render"
)

// Settings are the user-tunable parts of a controller. They survive Rebind.
type Settings struct {
	EnableDamping bool
	Frequency     float64 // Spring angular frequency
	DampingRatio  float64 // 1.0 = critically damped
	RotateSpeed   float64
	ZoomSpeed     float64
	PanSpeed      float64
	MinDistance   float64
	MaxDistance   float64
	FPS           int
}

// DefaultSettings returns critically damped settings for 60 fps.
func DefaultSettings() Settings {
	return Settings{
		EnableDamping: true,
		Frequency:     4.0,
		DampingRatio:  1.0,
		RotateSpeed:   1.0,
		ZoomSpeed:     1.0,
		PanSpeed:      1.0,
		MinDistance:   0.01,
		MaxDistance:   1000,
		FPS:           60,
	}
}

// minPolar keeps the camera off the poles so LookAt's up vector stays valid.
const minPolar = 1e-3

// RotationAxis tracks angular velocity for one axis with spring decay.
type RotationAxis struct {
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // internal spring velocity (for animating Velocity toward 0)
}

func newRotationAxis(s Settings) RotationAxis {
	return RotationAxis{
		velSpring: harmonica.NewSpring(harmonica.FPS(max(s.FPS, 1)), s.Frequency, s.DampingRatio),
	}
}

// step returns the angle to apply this tick and decays velocity toward 0.
func (a *RotationAxis) step(damping bool) float64 {
	delta := a.Velocity
	if damping {
		a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
		if math.Abs(a.Velocity) < 1e-6 && math.Abs(a.velAccel) < 1e-6 {
			a.Velocity, a.velAccel = 0, 0
		}
	} else {
		a.Velocity, a.velAccel = 0, 0
	}
	return delta
}

// Controls orbits a camera around Target. A Controls is bound to exactly
// one owner (a viewport id) at a time.
type Controls struct {
	Target math3d.Vec3

	settings   Settings
	camera     *render.Camera
	owner      string
	yaw, pitch RotationAxis
	onStart    []func()
}

// New creates controls for cam, initially targeting the origin.
func New(cam *render.Camera, owner string, s Settings) *Controls {
	c := &Controls{camera: cam, owner: owner}
	c.SetSettings(s)
	return c
}

// Settings returns a copy of the current settings.
func (c *Controls) Settings() Settings {
	return c.settings
}

// SetSettings replaces the settings, rebuilding the damping springs.
func (c *Controls) SetSettings(s Settings) {
	c.settings = s
	c.yaw = newRotationAxis(s)
	c.pitch = newRotationAxis(s)
}

// Camera returns the bound camera.
func (c *Controls) Camera() *render.Camera {
	return c.camera
}

// Owner returns the id of the viewport the controls are bound to.
func (c *Controls) Owner() string {
	return c.owner
}

// Rebind moves the controls to another camera and owner. Target, settings
// and start listeners are kept; in-flight momentum is dropped.
func (c *Controls) Rebind(cam *render.Camera, owner string) {
	c.camera = cam
	c.owner = owner
	c.yaw = newRotationAxis(c.settings)
	c.pitch = newRotationAxis(c.settings)
	c.camera.LookAt(c.Target)
}

// OnStart registers fn to run whenever a user manipulation begins.
func (c *Controls) OnStart(fn func()) {
	c.onStart = append(c.onStart, fn)
}

// Begin marks the start of a user manipulation.
func (c *Controls) Begin() {
	for _, fn := range c.onStart {
		fn()
	}
}

// Rotate applies an orbit impulse in radians: dx about the up axis, dy
// toward or away from the poles.
func (c *Controls) Rotate(dx, dy float64) {
	c.yaw.Velocity += dx * c.settings.RotateSpeed
	c.pitch.Velocity += dy * c.settings.RotateSpeed
	if !c.settings.EnableDamping {
		c.Update()
	}
}

// Zoom dollies toward the target for positive steps and away for negative.
func (c *Controls) Zoom(steps float64) {
	offset := c.camera.Position.Sub(c.Target)
	dist := offset.Len()
	if dist == 0 {
		return
	}
	next := dist * math.Pow(0.95, steps*c.settings.ZoomSpeed)
	next = math.Min(math.Max(next, c.settings.MinDistance), c.settings.MaxDistance)
	c.camera.SetPosition(c.Target.Add(offset.Scale(next / dist)))
}

// Pan moves camera and target together in the view plane. dx and dy are
// fractions of the visible height at the target distance.
func (c *Controls) Pan(dx, dy float64) {
	offset := c.camera.Position.Sub(c.Target)
	dist := offset.Len()
	forward := offset.Negate().Normalize()
	right := forward.Cross(c.camera.Up).Normalize()
	up := right.Cross(forward).Normalize()

	visible := 2 * dist * math.Tan(c.camera.FOV/2) * c.settings.PanSpeed
	move := right.Scale(-dx * visible).Add(up.Scale(dy * visible))
	c.Target = c.Target.Add(move)
	c.camera.SetPosition(c.camera.Position.Add(move))
	c.camera.LookAt(c.Target)
}

// Update advances damping by one tick and moves the camera. It reports
// whether the camera moved.
func (c *Controls) Update() bool {
	dTheta := c.yaw.step(c.settings.EnableDamping)
	dPhi := c.pitch.step(c.settings.EnableDamping)

	c.camera.LookAt(c.Target)
	if dTheta == 0 && dPhi == 0 {
		return false
	}

	offset := c.camera.Position.Sub(c.Target)
	radius := offset.Len()
	if radius == 0 {
		return false
	}
	theta := math.Atan2(offset.X, offset.Z)
	phi := math.Acos(math.Max(-1, math.Min(1, offset.Y/radius)))

	theta -= dTheta
	phi = math.Max(minPolar, math.Min(math.Pi-minPolar, phi-dPhi))

	sinPhi := math.Sin(phi)
	offset = math3d.V3(radius*sinPhi*math.Sin(theta), radius*math.Cos(phi), radius*sinPhi*math.Cos(theta))
	c.camera.SetPosition(c.Target.Add(offset))
	c.camera.LookAt(c.Target)
	return true
}

// Moving reports whether momentum is still being applied.
func (c *Controls) Moving() bool {
	return c.yaw.Velocity != 0 || c.pitch.Velocity != 0
}
