package models

import (
	"testing"

	"github.com/taigrr/trophycase/pkg/math3d"
)

func TestSortedFace(t *testing.T) {
	for _, in := range [][3]int{{3, 5, 10}, {10, 5, 3}, {5, 3, 10}, {5, 10, 3}, {10, 3, 5}} {
		if got := sortedFace(in); got != [3]int{3, 5, 10} {
			t.Errorf("sortedFace(%v) = %v", in, got)
		}
	}
	if reversed([3]int{0, 1, 2}) || reversed([3]int{2, 0, 1}) || !reversed([3]int{0, 2, 1}) {
		t.Error("reversed disagrees with winding")
	}
}

// quadMesh is a unit square in the XY plane plus a vertex coinciding with
// the origin and one far corner nothing references.
func quadMesh(faces ...[3]int) *Mesh {
	mesh := NewMesh("quad")
	for _, p := range []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0), math3d.V3(1, 1, 0),
		math3d.V3(0, 0, 0), math3d.V3(5, 5, 5),
	} {
		mesh.Vertices = append(mesh.Vertices, MeshVertex{Position: p})
	}
	for _, f := range faces {
		mesh.Faces = append(mesh.Faces, Face{V: f})
	}
	mesh.CalculateBounds()
	return mesh
}

func TestCleanFaces(t *testing.T) {
	tests := []struct {
		name    string
		faces   [][3]int
		removed int
		kept    [][3]int
	}{
		{
			name:  "clean mesh untouched",
			faces: [][3]int{{0, 1, 2}, {1, 3, 2}},
			kept:  [][3]int{{0, 1, 2}, {1, 3, 2}},
		},
		{
			name:    "exact and rotated duplicates",
			faces:   [][3]int{{0, 1, 2}, {0, 1, 2}, {2, 0, 1}, {1, 3, 2}},
			removed: 2,
			kept:    [][3]int{{0, 1, 2}, {1, 3, 2}},
		},
		{
			name:  "back face survives",
			faces: [][3]int{{0, 1, 2}, {0, 2, 1}},
			kept:  [][3]int{{0, 1, 2}, {0, 2, 1}},
		},
		{
			name:    "repeated index and zero area",
			faces:   [][3]int{{0, 0, 1}, {0, 1, 0}, {0, 4, 1}, {0, 1, 2}},
			removed: 3,
			kept:    [][3]int{{0, 1, 2}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh := quadMesh(tt.faces...)
			if got := mesh.CleanFaces(); got != tt.removed {
				t.Errorf("CleanFaces() = %d, want %d", got, tt.removed)
			}
			if len(mesh.Faces) != len(tt.kept) {
				t.Fatalf("kept %d faces, want %d", len(mesh.Faces), len(tt.kept))
			}
			for i, f := range mesh.Faces {
				if f.V != tt.kept[i] {
					t.Errorf("face %d = %v, want %v", i, f.V, tt.kept[i])
				}
			}
			if mesh.VertexCount() != 6 || mesh.BoundsMax != math3d.V3(5, 5, 5) {
				t.Errorf("vertices changed: %d, bounds max %v", mesh.VertexCount(), mesh.BoundsMax)
			}
		})
	}
}

func TestCleanFacesSkipsPointClouds(t *testing.T) {
	mesh := NewPointCloud("scan")
	mesh.Vertices = []MeshVertex{{}, {}}
	if got := mesh.CleanFaces(); got != 0 {
		t.Errorf("CleanFaces() = %d on a point cloud", got)
	}
}
