package math3d

import "math"

// Box3 is an axis-aligned bounding box defined by its minimum and maximum
// corners. An empty box has Min at +Inf and Max at -Inf.
type Box3 struct {
	Min Vec3
	Max Vec3
}

// B3 returns a box with the given corners.
func B3(min, max Vec3) Box3 {
	return Box3{Min: min, Max: max}
}

// EmptyBox returns a box that contains nothing; expanding it by a point
// yields a zero-size box at that point.
func EmptyBox() Box3 {
	inf := math.Inf(1)
	return Box3{Min: Splat3(inf), Max: Splat3(-inf)}
}

// IsEmpty reports whether max < min on any axis.
func (b Box3) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

// ExpandByPoint returns the box grown to include p.
func (b Box3) ExpandByPoint(p Vec3) Box3 {
	return Box3{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the smallest box containing both boxes.
func (b Box3) Union(o Box3) Box3 {
	return Box3{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// Center returns the center point. An empty box has a non-finite center.
func (b Box3) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the extent along each axis. An empty box has zero size.
func (b Box3) Size() Vec3 {
	if b.IsEmpty() {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Corners returns the eight corners of the box.
func (b Box3) Corners() [8]Vec3 {
	return [8]Vec3{
		{b.Min.X, b.Min.Y, b.Min.Z},
		{b.Min.X, b.Min.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Min.Z},
		{b.Max.X, b.Max.Y, b.Max.Z},
		{b.Max.X, b.Max.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Max.Z},
	}
}

// Transform returns the box spanning all eight corners after applying m.
func (b Box3) Transform(m Mat4) Box3 {
	if b.IsEmpty() {
		return b
	}
	nb := EmptyBox()
	for _, c := range b.Corners() {
		nb = nb.ExpandByPoint(m.MulVec3(c))
	}
	return nb
}

// BoundingSphere returns the sphere through the box corners.
func (b Box3) BoundingSphere() Sphere {
	return Sphere{Center: b.Center(), Radius: b.Size().Len() * 0.5}
}

// Sphere is a bounding sphere.
type Sphere struct {
	Center Vec3
	Radius float64
}
