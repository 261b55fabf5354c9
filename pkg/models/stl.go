package models

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/taigrr/trophycase/pkg/math3d"
)

// STLLoader loads STL (stereolithography) files in both ASCII and binary formats.
type STLLoader struct {
	SmoothNormals bool // If true, average normals per-vertex for smooth shading
}

// NewSTLLoader creates a new STL loader with smooth normals, matching the
// shading used for the other mesh formats.
func NewSTLLoader() *STLLoader {
	return &STLLoader{SmoothNormals: true}
}

// Load parses STL from a reader. The whole stream is buffered to detect
// the format.
func (l *STLLoader) Load(r io.Reader, name string) (*Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read STL data: %w", err)
	}
	return l.LoadBytes(data, name)
}

// LoadBytes parses STL from a byte slice.
func (l *STLLoader) LoadBytes(data []byte, name string) (*Mesh, error) {
	var (
		mesh *Mesh
		err  error
	)
	if isBinarySTL(data) {
		mesh, err = l.loadBinary(data, name)
	} else {
		mesh, err = l.loadASCII(data, name)
	}
	if err != nil {
		return nil, err
	}
	if len(mesh.Faces) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyGeometry)
	}
	mesh.CalculateBounds()
	if l.SmoothNormals {
		mesh.CalculateSmoothNormals()
	}
	return mesh, nil
}

// isBinarySTL detects binary STL: an 80-byte header then a triangle count
// that matches the file size. ASCII STL starts with "solid", but so do some
// binary headers.
func isBinarySTL(data []byte) bool {
	if len(data) < 84 {
		return false
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("solid")) {
		return true
	}
	triCount := binary.LittleEndian.Uint32(data[80:84])
	return uint64(len(data)) == 84+uint64(triCount)*50
}

// vertexDedup shares vertices with identical positions between facets.
type vertexDedup struct {
	mesh  *Mesh
	index map[math3d.Vec3]int
}

func (d *vertexDedup) add(pos, normal math3d.Vec3) int {
	if idx, ok := d.index[pos]; ok {
		return idx
	}
	idx := len(d.mesh.Vertices)
	d.mesh.Vertices = append(d.mesh.Vertices, MeshVertex{Position: pos, Normal: normal})
	d.index[pos] = idx
	return idx
}

func (l *STLLoader) loadBinary(data []byte, name string) (*Mesh, error) {
	triCount := binary.LittleEndian.Uint32(data[80:84])
	expectedSize := 84 + uint64(triCount)*50
	if uint64(len(data)) < expectedSize {
		return nil, fmt.Errorf("binary STL truncated: expected %d bytes, got %d", expectedSize, len(data))
	}

	mesh := NewMesh(name)
	dedup := vertexDedup{mesh: mesh, index: make(map[math3d.Vec3]int)}

	offset := 84
	for range triCount {
		normal := readVec3LE(data[offset:])
		offset += 12

		var face Face
		for v := range 3 {
			face.V[v] = dedup.add(readVec3LE(data[offset:]), normal)
			offset += 12
		}
		offset += 2 // attribute byte count
		mesh.Faces = append(mesh.Faces, face)
	}
	return mesh, nil
}

func readVec3LE(b []byte) math3d.Vec3 {
	f := func(o int) float64 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b[o:])))
	}
	return math3d.V3(f(0), f(4), f(8))
}

func (l *STLLoader) loadASCII(data []byte, name string) (*Mesh, error) {
	mesh := NewMesh(name)
	dedup := vertexDedup{mesh: mesh, index: make(map[math3d.Vec3]int)}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0

	var currentNormal math3d.Vec3
	var faceVerts []int
	inFacet, inLoop := false, false

	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "solid":
			if len(fields) > 1 {
				mesh.Name = fields[1]
			}
		case "facet":
			if len(fields) >= 5 && strings.EqualFold(fields[1], "normal") {
				n, err := parseVec3(fields[1:])
				if err != nil {
					return nil, fmt.Errorf("line %d: facet normal: %w", lineNum, err)
				}
				currentNormal = n.Normalize()
			}
			inFacet = true
			faceVerts = faceVerts[:0]
		case "outer":
			inLoop = len(fields) >= 2 && strings.EqualFold(fields[1], "loop")
		case "vertex":
			if !inFacet || !inLoop {
				return nil, fmt.Errorf("line %d: vertex outside facet/loop", lineNum)
			}
			pos, err := parseVec3(fields)
			if err != nil {
				return nil, fmt.Errorf("line %d: vertex: %w", lineNum, err)
			}
			faceVerts = append(faceVerts, dedup.add(pos, currentNormal))
		case "endloop":
			inLoop = false
		case "endfacet":
			if len(faceVerts) >= 3 {
				mesh.Faces = append(mesh.Faces, Face{V: [3]int{faceVerts[0], faceVerts[1], faceVerts[2]}})
			}
			inFacet = false
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}
	return mesh, nil
}
