package models

import (
	"fmt"
	"io"

	"github.com/EliCDavis/polyform/formats/ply"
	"github.com/EliCDavis/polyform/modeling"
	"github.com/EliCDavis/vector/vector3"

	"github.com/taigrr/trophycase/pkg/math3d"
)

// PLYLoader loads PLY point clouds and triangle meshes, keeping per-vertex
// colors when the file has them.
type PLYLoader struct {
	SmoothNormals bool
}

// NewPLYLoader creates a PLY loader with smooth normals.
func NewPLYLoader() *PLYLoader {
	return &PLYLoader{SmoothNormals: true}
}

// Load parses ASCII or binary PLY from r.
func (l *PLYLoader) Load(r io.Reader, name string) (*Mesh, error) {
	src, err := ply.ReadMesh(r)
	if err != nil {
		return nil, fmt.Errorf("read ply: %w", err)
	}

	positions := float3Data(src, modeling.PositionAttribute)
	if len(positions) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyGeometry)
	}
	colors := float3Data(src, modeling.ColorAttribute)
	normals := float3Data(src, modeling.NormalAttribute)

	var mesh *Mesh
	switch src.Topology() {
	case modeling.PointTopology:
		mesh = NewPointCloud(name)
	case modeling.TriangleTopology:
		mesh = NewMesh(name)
	default:
		return nil, fmt.Errorf("%s: unsupported topology %s: %w", name, src.Topology(), ErrUnsupportedFormat)
	}

	mesh.HasColors = len(colors) == len(positions)
	mesh.Vertices = make([]MeshVertex, len(positions))
	for i, p := range positions {
		v := MeshVertex{Position: fromVector(p)}
		if mesh.HasColors {
			v.Color = unitColor(colors[i])
		}
		if i < len(normals) {
			v.Normal = fromVector(normals[i]).Normalize()
		}
		mesh.Vertices[i] = v
	}

	if mesh.Topology == TopologyTriangles {
		indices := src.Indices()
		for i := 0; i+2 < indices.Len(); i += 3 {
			// Reverse winding to match the rasterizer.
			mesh.Faces = append(mesh.Faces, Face{V: [3]int{indices.At(i), indices.At(i + 2), indices.At(i + 1)}})
		}
		if len(mesh.Faces) == 0 {
			return nil, fmt.Errorf("%s: %w", name, ErrEmptyGeometry)
		}
		if len(normals) == 0 && l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		}
	}

	mesh.CalculateBounds()
	return mesh, nil
}

// float3Data copies attr out of src, or returns nil when src lacks it.
func float3Data(src *modeling.Mesh, attr string) []vector3.Float64 {
	if !src.HasFloat3Attribute(attr) {
		return nil
	}
	it := src.Float3Attribute(attr)
	data := make([]vector3.Float64, it.Len())
	for i := range data {
		data[i] = it.At(i)
	}
	return data
}

func fromVector(v vector3.Float64) math3d.Vec3 {
	return math3d.V3(v.X(), v.Y(), v.Z())
}

// unitColor converts a 0..1 color to 8-bit channels.
func unitColor(c vector3.Float64) [3]uint8 {
	return [3]uint8{channel(c.X()), channel(c.Y()), channel(c.Z())}
}

func channel(f float64) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 255
	default:
		return uint8(f*255 + 0.5)
	}
}
