package showcase

import (
	"github.com/taigrr/trophycase/pkg/math3d"
	"github.com/taigrr/trophycase/pkg/orbit"
	"github.com/taigrr/trophycase/pkg/render"
)

// State is a viewport's load state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Surface is a render target. *render.Pane implements it.
type Surface interface {
	Size() (width, height int)
	Resize(width, height int)
	Render(cam *render.Camera, obj render.MeshRenderer, transform math3d.Mat4)
}

// Container reports the logical layout size of a surface. Pixel size is
// the logical size times the session's pixel ratio.
type Container interface {
	Size() (width, height float64)
}

// Indicator shows load status next to a viewport. All calls happen on the
// loop goroutine.
type Indicator interface {
	SetLoading(loading bool)
	SetProgress(read, total int64)
	SetFailed(err error) // nil clears
}

// NopIndicator discards all status updates.
type NopIndicator struct{}

func (NopIndicator) SetLoading(bool) {}
func (NopIndicator) SetProgress(int64, int64) {}
func (NopIndicator) SetFailed(error) {}

// Slot is what the front end provides for one role.
type Slot struct {
	Surface   Surface
	Container Container
	Indicator Indicator // Optional
}

// Viewport is one surface displaying one role of a group.
type Viewport struct {
	ID   string
	Role Role

	surface   Surface
	container Container
	indicator Indicator

	// Independent camera mode only.
	camera   *render.Camera
	controls *orbit.Controls

	state   State
	object  *DisplayedObject
	wanted  Request
	loading bool
	err     error
}

func newViewport(id string, role Role, slot Slot) *Viewport {
	ind := slot.Indicator
	if ind == nil {
		ind = NopIndicator{}
	}
	return &Viewport{ID: id, Role: role, surface: slot.Surface, container: slot.Container, indicator: ind}
}

// State returns the load state.
func (v *Viewport) State() State { return v.state }

// Object returns the displayed object, or nil.
func (v *Viewport) Object() *DisplayedObject { return v.object }

// Err returns the last load failure, or nil.
func (v *Viewport) Err() error { return v.err }

// Wanted returns the latest requested selection.
func (v *Viewport) Wanted() Request { return v.wanted }

// Surface returns the render target.
func (v *Viewport) Surface() Surface { return v.surface }

// attach releases the current object and shows obj.
func (v *Viewport) attach(obj *DisplayedObject) {
	v.detach()
	v.object = obj
}

// showing reports whether the attached object was loaded for req.
func (v *Viewport) showing(req Request) bool {
	return v.object != nil && v.object.Request == req
}

func (v *Viewport) detach() {
	if v.object != nil {
		v.object.Release()
		v.object = nil
	}
}

// containerSize returns the container size, or zeros without a container.
func (v *Viewport) containerSize() (float64, float64) {
	if v.container == nil {
		return 0, 0
	}
	return v.container.Size()
}
