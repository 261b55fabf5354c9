package showcase

import (
	"github.com/taigrr/trophycase/pkg/math3d"
	"github.com/taigrr/trophycase/pkg/models"
)

// CanonicalTransform is the per-sample normalization shared by every
// viewport showing that sample.
type CanonicalTransform struct {
	Scale       float64
	Translation math3d.Vec3 // Applied after rotation and scale
	Rotation    math3d.Quat
}

// Matrix returns T * R * S.
func (t CanonicalTransform) Matrix() math3d.Mat4 {
	return math3d.Compose(t.Translation, t.Rotation, t.Scale)
}

// DisplayedObject is a loaded asset together with its pose.
type DisplayedObject struct {
	Mesh    *models.Mesh
	Key     SampleKey
	Request Request
	Path    string // Candidate path that loaded

	Translation math3d.Vec3
	Rotation    math3d.Quat
	Scale       float64

	// BaseRotation is the normalized orientation; auto-rotation composes
	// on top of it.
	BaseRotation math3d.Quat
	Phase        float64
}

// NewDisplayedObject wraps mesh with an identity pose.
func NewDisplayedObject(mesh *models.Mesh, key SampleKey, req Request, path string) *DisplayedObject {
	o := &DisplayedObject{Mesh: mesh, Key: key, Request: req, Path: path}
	o.ResetPose()
	o.BaseRotation = math3d.QuatIdentity()
	return o
}

// ResetPose sets translation to zero, rotation to identity and scale to 1.
func (o *DisplayedObject) ResetPose() {
	o.Translation = math3d.Zero3()
	o.Rotation = math3d.QuatIdentity()
	o.Scale = 1
}

// Matrix returns the object's model matrix.
func (o *DisplayedObject) Matrix() math3d.Mat4 {
	return math3d.Compose(o.Translation, o.Rotation, o.Scale)
}

// LocalBounds returns the mesh bounds in its own coordinates.
func (o *DisplayedObject) LocalBounds() math3d.Box3 {
	if o.Mesh == nil {
		return math3d.EmptyBox()
	}
	return o.Mesh.Bounds()
}

// WorldBounds returns the axis-aligned box enclosing the posed local box.
func (o *DisplayedObject) WorldBounds() math3d.Box3 {
	return o.LocalBounds().Transform(o.Matrix())
}

// ClonePose returns a disposable copy sharing the (read-only) mesh.
func (o *DisplayedObject) ClonePose() *DisplayedObject {
	cp := *o
	return &cp
}

// Release drops the mesh storage. The object must not be drawn afterwards.
func (o *DisplayedObject) Release() {
	if o.Mesh != nil {
		o.Mesh.Release()
	}
}
