package showcase

import (
	"math"

	"github.com/taigrr/trophycase/pkg/math3d"
)

// TargetExtent is the largest bounding box dimension after normalization.
const TargetExtent = 0.9

// autoZUpRatio is how much taller along z than along y a neutral-pose box
// must be before "auto" treats it as Z-up.
const autoZUpRatio = 1.25

// Normalize applies t to obj: the pose is reset, then rotated, uniformly
// scaled and translated. The rotation becomes the object's base orientation
// so auto-rotation composes on top of it. The accumulated auto-rotation
// phase is kept for the next rotation step.
func Normalize(obj *DisplayedObject, t CanonicalTransform) {
	obj.ResetPose()
	obj.Rotation = t.Rotation
	obj.Scale = t.Scale
	obj.Translation = t.Translation
	obj.BaseRotation = t.Rotation
	if !isFinite(obj.Phase) {
		obj.Phase = 0
	}
}

// UpAlignment returns the rotation that brings obj's up axis to +Y.
// The "auto" decision is made on the neutral-pose bounds.
func UpAlignment(obj *DisplayedObject, upAxis string) math3d.Quat {
	switch upAxis {
	case "z":
		return zUp()
	case "auto":
		size := obj.LocalBounds().Size()
		if size.Z > size.Y*autoZUpRatio {
			return zUp()
		}
	}
	return math3d.QuatIdentity()
}

func zUp() math3d.Quat {
	return math3d.QuatFromAxisAngle(math3d.UnitX, -math.Pi/2)
}

// SelfNormalize gives obj a provisional transform from its own bounds. It
// is overwritten by Normalize once the sample has a canonical transform.
func SelfNormalize(obj *DisplayedObject, upAxis string) CanonicalTransform {
	t := computeCanonical(obj, upAxis, false)
	Normalize(obj, t)
	return t
}

// computeCanonical derives the transform that aligns, centers and scales
// obj. obj's pose is left untouched.
func computeCanonical(obj *DisplayedObject, upAxis string, alignToGround bool) CanonicalTransform {
	tmp := obj.ClonePose()
	tmp.ResetPose()
	tmp.Rotation = UpAlignment(tmp, upAxis)

	box := tmp.WorldBounds()
	scale := scaleFor(box)
	t := CanonicalTransform{Scale: scale, Rotation: tmp.Rotation}
	if center := box.Center(); !box.IsEmpty() && center.IsFinite() {
		t.Translation = center.Scale(-scale)
	}

	if alignToGround {
		tmp.Phase = 0
		Normalize(tmp, t)
		if minY := tmp.WorldBounds().Min.Y; isFinite(minY) {
			t.Translation.Y -= minY
		}
	}
	return t
}

// scaleFor returns the uniform scale fitting box into TargetExtent, or 1
// for empty, flat-to-a-point or non-finite boxes.
func scaleFor(box math3d.Box3) float64 {
	if box.IsEmpty() {
		return 1
	}
	maxDim := box.Size().MaxComponent()
	if !isFinite(maxDim) || maxDim <= 0 {
		return 1
	}
	return TargetExtent / maxDim
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
