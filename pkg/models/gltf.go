package models

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/qmuntal/gltf"

	"github.com/taigrr/trophycase/pkg/math3d"
)

// GLTFLoader loads self-contained GLB (or GLTF with embedded buffers) into
// a single Mesh, flattening the default scene's node transforms.
type GLTFLoader struct {
	CalculateNormals bool
	SmoothNormals    bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
	}
}

// Load decodes a GLB/GLTF document from r.
func (l *GLTFLoader) Load(r io.Reader, name string) (*Mesh, error) {
	var doc gltf.Document
	if err := gltf.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode gltf: %w", err)
	}

	mesh := NewMesh(name)
	points := NewPointCloud(name)

	for _, nodeIdx := range rootNodes(&doc) {
		if err := l.processNode(&doc, nodeIdx, math3d.Identity(), mesh, points); err != nil {
			return nil, err
		}
	}

	// A document holding only point primitives is a point cloud.
	if len(mesh.Faces) == 0 {
		if len(points.Vertices) == 0 {
			return nil, fmt.Errorf("%s: %w", name, ErrEmptyGeometry)
		}
		points.CalculateBounds()
		return points, nil
	}

	hasNormals := false
	for _, v := range mesh.Vertices {
		if v.Normal.Len() > 0.001 {
			hasNormals = true
			break
		}
	}
	if l.CalculateNormals && !hasNormals {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}

	mesh.CalculateBounds()
	return mesh, nil
}

// rootNodes returns the default scene's nodes, or every node that is not a
// child when the document has no scenes.
func rootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		sceneIdx := 0
		if doc.Scene != nil {
			sceneIdx = int(*doc.Scene)
		}
		var roots []int
		for _, n := range doc.Scenes[sceneIdx].Nodes {
			roots = append(roots, int(n))
		}
		return roots
	}

	isChild := make(map[int]bool)
	for _, n := range doc.Nodes {
		for _, child := range n.Children {
			isChild[int(child)] = true
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func nodeTransform(node *gltf.Node) math3d.Mat4 {
	if node.Matrix != [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1} {
		return math3d.Mat4FromSlice(node.Matrix[:])
	}

	local := math3d.Identity()
	if node.Translation != [3]float64{0, 0, 0} {
		local = local.Mul(math3d.Translate(math3d.V3(node.Translation[0], node.Translation[1], node.Translation[2])))
	}
	if node.Rotation != [4]float64{0, 0, 0, 1} {
		q := math3d.Quat{X: node.Rotation[0], Y: node.Rotation[1], Z: node.Rotation[2], W: node.Rotation[3]}
		local = local.Mul(q.Normalize().Mat4())
	}
	if node.Scale != [3]float64{1, 1, 1} && node.Scale != [3]float64{0, 0, 0} {
		local = local.Mul(math3d.Scale(math3d.V3(node.Scale[0], node.Scale[1], node.Scale[2])))
	}
	return local
}

// processNode recursively processes a node and its children, accumulating transforms.
func (l *GLTFLoader) processNode(doc *gltf.Document, nodeIdx int, parent math3d.Mat4, mesh, points *Mesh) error {
	if nodeIdx < 0 || nodeIdx >= len(doc.Nodes) {
		return fmt.Errorf("node %d out of range", nodeIdx)
	}
	node := doc.Nodes[nodeIdx]
	world := parent.Mul(nodeTransform(node))

	if node.Mesh != nil {
		if err := l.appendMesh(doc, doc.Meshes[int(*node.Mesh)], world, mesh, points); err != nil {
			return err
		}
	}
	for _, child := range node.Children {
		if err := l.processNode(doc, int(child), world, mesh, points); err != nil {
			return err
		}
	}
	return nil
}

// appendMesh bakes a GLTF mesh's primitives into mesh (triangles) or
// points (point primitives) using the given world transform.
func (l *GLTFLoader) appendMesh(doc *gltf.Document, m *gltf.Mesh, transform math3d.Mat4, mesh, points *Mesh) error {
	for _, prim := range m.Primitives {
		isPoints := prim.Mode == gltf.PrimitivePoints
		if !isPoints && prim.Mode != gltf.PrimitiveTriangles {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readVec3Accessor(doc, int(posIdx))
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		if isPoints {
			for _, p := range positions {
				points.Vertices = append(points.Vertices, MeshVertex{Position: transform.MulVec3(p)})
			}
			continue
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, int(normIdx))
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		baseVertex := len(mesh.Vertices)
		for i, p := range positions {
			v := MeshVertex{Position: transform.MulVec3(p)}
			if i < len(normals) {
				v.Normal = transform.MulVec3Dir(normals[i]).Normalize()
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, int(*prim.Indices))
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		// GLTF is CCW front-facing; the rasterizer is CW after the Y flip.
		for i := 0; i+2 < len(indices); i += 3 {
			a, b, c := indices[i], indices[i+1], indices[i+2]
			if a >= len(positions) || b >= len(positions) || c >= len(positions) {
				return fmt.Errorf("index out of range in primitive")
			}
			mesh.Faces = append(mesh.Faces, Face{V: [3]int{baseVertex + a, baseVertex + c, baseVertex + b}})
		}
	}
	return nil
}

// accessorBytes returns the buffer slice an accessor starts in, and its stride.
func accessorBytes(doc *gltf.Document, accessorIdx int, elemSize int) (*gltf.Accessor, []byte, int, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, nil, 0, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.BufferView == nil {
		return nil, nil, 0, fmt.Errorf("accessor has no buffer view")
	}
	bufferView := doc.BufferViews[int(*accessor.BufferView)]
	buffer := doc.Buffers[int(bufferView.Buffer)]
	if buffer.Data == nil {
		return nil, nil, 0, fmt.Errorf("external buffers not supported")
	}

	stride := int(bufferView.ByteStride)
	if stride == 0 {
		stride = elemSize
	}
	start := int(bufferView.ByteOffset) + int(accessor.ByteOffset)
	count := int(accessor.Count)
	if count > 0 && start+(count-1)*stride+elemSize > len(buffer.Data) {
		return nil, nil, 0, fmt.Errorf("accessor %d exceeds buffer", accessorIdx)
	}
	return accessor, buffer.Data[start:], stride, nil
}

// readVec3Accessor reads float VEC3 data from a GLTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor, data, stride, err := accessorBytes(doc, accessorIdx, 12)
	if err != nil {
		return nil, err
	}
	if accessor.Type != gltf.AccessorVec3 || accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v/%v", accessor.Type, accessor.ComponentType)
	}

	result := make([]math3d.Vec3, int(accessor.Count))
	for i := range result {
		o := i * stride
		result[i] = math3d.V3(readFloat32(data[o:]), readFloat32(data[o+4:]), readFloat32(data[o+8:]))
	}
	return result, nil
}

// readIndices reads scalar index data from a GLTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	var size int
	switch doc.Accessors[accessorIdx].ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index type: %v", doc.Accessors[accessorIdx].ComponentType)
	}

	accessor, data, stride, err := accessorBytes(doc, accessorIdx, size)
	if err != nil {
		return nil, err
	}
	result := make([]int, int(accessor.Count))
	for i := range result {
		o := i * stride
		switch size {
		case 1:
			result[i] = int(data[o])
		case 2:
			result[i] = int(binary.LittleEndian.Uint16(data[o:]))
		case 4:
			result[i] = int(binary.LittleEndian.Uint32(data[o:]))
		}
	}
	return result, nil
}

// readFloat32 reads a little-endian float32.
func readFloat32(b []byte) float64 {
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
}
