package models

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/trophycase/pkg/math3d"
)

const coloredPLY = `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
property uchar red
property uchar green
property uchar blue
end_header
0 0 0 255 0 0
1 2 3 0 255 0
-1 0 4 0 0 255
`

const trianglePLY = `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
0 1 0
3 0 1 2
`

func TestPLYPointCloud(t *testing.T) {
	mesh, err := NewPLYLoader().Load(strings.NewReader(coloredPLY), "points.ply")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if mesh.Topology != TopologyPoints {
		t.Errorf("Topology = %v, want points", mesh.Topology)
	}
	if mesh.PointCount() != 3 {
		t.Errorf("PointCount = %d, want 3", mesh.PointCount())
	}
	pos, color, ok := mesh.GetPoint(1)
	if !ok {
		t.Fatal("expected vertex colors")
	}
	if pos != math3d.V3(1, 2, 3) {
		t.Errorf("point 1 = %v, want (1,2,3)", pos)
	}
	if color != [3]uint8{0, 255, 0} {
		t.Errorf("color 1 = %v, want green", color)
	}
	if mesh.BoundsMin != math3d.V3(-1, 0, 0) || mesh.BoundsMax != math3d.V3(1, 2, 4) {
		t.Errorf("bounds = %v..%v", mesh.BoundsMin, mesh.BoundsMax)
	}
}

func TestPLYTriangles(t *testing.T) {
	mesh, err := NewPLYLoader().Load(strings.NewReader(trianglePLY), "tri.ply")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if mesh.Topology != TopologyTriangles {
		t.Errorf("Topology = %v, want triangles", mesh.Topology)
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("TriangleCount = %d, want 1", mesh.TriangleCount())
	}
	if mesh.HasColors {
		t.Error("HasColors should be false without color properties")
	}
}

func TestPLYOptionalAttributes(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		topo   Topology
		colors bool
		normal math3d.Vec3
	}{
		{
			name: "bare points",
			data: "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n1 1 1\n",
			topo: TopologyPoints,
		},
		{
			name: "points with normals",
			data: "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\n" +
				"property float nx\nproperty float ny\nproperty float nz\nend_header\n0 0 0 0 2 0\n1 1 1 0 2 0\n",
			topo:   TopologyPoints,
			normal: math3d.UnitY,
		},
		{
			name:   "colored points",
			data:   coloredPLY,
			topo:   TopologyPoints,
			colors: true,
		},
		{
			name:   "triangle without normals",
			data:   trianglePLY,
			topo:   TopologyTriangles,
			normal: math3d.V3(0, 0, -1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := NewPLYLoader().Load(strings.NewReader(tt.data), tt.name)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if mesh.Topology != tt.topo {
				t.Errorf("Topology = %v, want %v", mesh.Topology, tt.topo)
			}
			if mesh.HasColors != tt.colors {
				t.Errorf("HasColors = %v, want %v", mesh.HasColors, tt.colors)
			}
			if n := mesh.Vertices[0].Normal; !n.ApproxEqual(tt.normal, 1e-9) {
				t.Errorf("normal = %v, want %v", n, tt.normal)
			}
		})
	}
}

func TestPLYWithoutVertices(t *testing.T) {
	data := "ply\nformat ascii 1.0\nelement vertex 0\nproperty float x\nproperty float y\nproperty float z\nend_header\n"
	if _, err := NewPLYLoader().Load(strings.NewReader(data), "empty.ply"); err == nil {
		t.Error("expected an error for a PLY with no vertices")
	}
}

func TestGLBTriangle(t *testing.T) {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {2, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: gltf.PrimitiveAttributes{gltf.POSITION: pos},
		}},
	}}
	doc.Nodes = []*gltf.Node{{Mesh: gltf.Index(0), Translation: [3]float64{0, 0, 5}, Rotation: [4]float64{0, 0, 0, 1}, Scale: [3]float64{1, 1, 1}}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		t.Fatalf("encode: %v", err)
	}

	mesh, err := Decode("glb", &buf, "tri.glb")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mesh.TriangleCount() != 1 || mesh.VertexCount() != 3 {
		t.Errorf("got %d triangles, %d vertices", mesh.TriangleCount(), mesh.VertexCount())
	}
	if mesh.BoundsMin != math3d.V3(0, 0, 5) || mesh.BoundsMax != math3d.V3(2, 1, 5) {
		t.Errorf("bounds = %v..%v, want node translation applied", mesh.BoundsMin, mesh.BoundsMax)
	}
}

func TestDecodeDispatch(t *testing.T) {
	tests := []struct {
		ext     string
		data    string
		wantErr error
		topo    Topology
	}{
		{"obj", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", nil, TopologyTriangles},
		{".OBJ", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", nil, TopologyTriangles},
		{"ply", coloredPLY, nil, TopologyPoints},
		{".STL", string(binarySTL("", lowerTri)), nil, TopologyTriangles},
		{"fbx", "", ErrUnsupportedFormat, 0},
		{"obj", "", ErrEmptyGeometry, 0},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			mesh, err := Decode(tt.ext, strings.NewReader(tt.data), "x")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if mesh.Topology != tt.topo {
				t.Errorf("Topology = %v, want %v", mesh.Topology, tt.topo)
			}
		})
	}
}
