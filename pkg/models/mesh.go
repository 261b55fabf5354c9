// Package models provides mesh and point-cloud loading for trophycase.
package models

import (
	"github.com/taigrr/trophycase/pkg/math3d"
)

// Topology says how a Mesh's vertices are drawn.
type Topology int

const (
	TopologyTriangles Topology = iota // Faces index into Vertices
	TopologyPoints                    // Every vertex is a point, Faces is empty
)

func (t Topology) String() string {
	if t == TopologyPoints {
		return "points"
	}
	return "triangles"
}

// Mesh represents either a triangle mesh or a point cloud.
type Mesh struct {
	Name      string
	Topology  Topology
	Vertices  []MeshVertex
	Faces     []Face
	HasColors bool // Vertices carry a meaningful Color

	// Bounding box in local space (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3

	released bool
}

// MeshVertex holds all vertex attributes.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
	Color    [3]uint8
}

// Face represents a triangle face with vertex indices.
type Face struct {
	V [3]int // Indices into Mesh.Vertices
}

// NewMesh creates an empty triangle mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]MeshVertex, 0),
		Faces:    make([]Face, 0),
	}
}

// NewPointCloud creates an empty point cloud.
func NewPointCloud(name string) *Mesh {
	m := NewMesh(name)
	m.Topology = TopologyPoints
	return m
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		m.BoundsMin, m.BoundsMax = math3d.Zero3(), math3d.Zero3()
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Bounds returns the local bounding box. A mesh without vertices has an
// empty box.
func (m *Mesh) Bounds() math3d.Box3 {
	if len(m.Vertices) == 0 {
		return math3d.EmptyBox()
	}
	return math3d.B3(m.BoundsMin, m.BoundsMax)
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// CalculateNormals assigns each face's normal to its vertices (flat shading).
func (m *Mesh) CalculateNormals() {
	for _, f := range m.Faces {
		normal := m.faceNormal(f).Normalize()
		m.Vertices[f.V[0]].Normal = normal
		m.Vertices[f.V[1]].Normal = normal
		m.Vertices[f.V[2]].Normal = normal
	}
}

// CalculateSmoothNormals computes area-weighted averaged vertex normals.
func (m *Mesh) CalculateSmoothNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Zero3()
	}
	for _, f := range m.Faces {
		normal := m.faceNormal(f)
		for _, idx := range f.V {
			m.Vertices[idx].Normal = m.Vertices[idx].Normal.Add(normal)
		}
	}
	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

func (m *Mesh) faceNormal(f Face) math3d.Vec3 {
	v0 := m.Vertices[f.V[0]].Position
	v1 := m.Vertices[f.V[1]].Position
	v2 := m.Vertices[f.V[2]].Position
	return v1.Sub(v0).Cross(v2.Sub(v0))
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := *m
	clone.Vertices = make([]MeshVertex, len(m.Vertices))
	clone.Faces = make([]Face, len(m.Faces))
	copy(clone.Vertices, m.Vertices)
	copy(clone.Faces, m.Faces)
	return &clone
}

// Release drops the vertex and face storage. A released mesh draws nothing
// and must not be attached again.
func (m *Mesh) Release() {
	m.Vertices = nil
	m.Faces = nil
	m.released = true
}

// Released reports whether Release has been called.
func (m *Mesh) Released() bool {
	return m.released
}

// GetVertex returns the position, normal, and UV for vertex i.
// Implements render.MeshRenderer interface.
func (m *Mesh) GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2) {
	v := m.Vertices[i]
	return v.Position, v.Normal, v.UV
}

// GetFace returns the vertex indices for face i.
// Implements render.MeshRenderer interface.
func (m *Mesh) GetFace(i int) [3]int {
	return m.Faces[i].V
}

// GetPoint returns the position and color of point i and whether the color
// is meaningful. Implements render.PointRenderer interface.
func (m *Mesh) GetPoint(i int) (pos math3d.Vec3, color [3]uint8, ok bool) {
	v := m.Vertices[i]
	return v.Position, v.Color, m.HasColors
}

// PointCount returns the number of drawable points.
func (m *Mesh) PointCount() int {
	return len(m.Vertices)
}
