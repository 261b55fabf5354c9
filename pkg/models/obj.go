package models

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/taigrr/trophycase/pkg/math3d"
)

// OBJLoader loads Wavefront OBJ files, including the common "v x y z r g b"
// vertex color extension written by reconstruction tools.
type OBJLoader struct {
	CalculateNormals bool // Compute normals when the file has none
	SmoothNormals    bool // Average computed normals per vertex
}

// NewOBJLoader creates a new OBJ loader. Reconstructions are shaded smooth
// by default.
func NewOBJLoader() *OBJLoader {
	return &OBJLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
	}
}

// objCorner identifies one face corner; OBJ indexes position, uv and normal
// independently.
type objCorner struct {
	pos, uv, normal int
}

// objParser accumulates OBJ statements into a Mesh.
type objParser struct {
	mesh      *Mesh
	positions []math3d.Vec3
	colors    [][3]uint8 // Parallel to positions when the file has colors
	uvs       []math3d.Vec2
	normals   []math3d.Vec3
	corners   map[objCorner]int
}

func (p *objParser) vertex(fields []string) error {
	pos, err := parseVec3(fields)
	if err != nil {
		return fmt.Errorf("vertex: %w", err)
	}
	p.positions = append(p.positions, pos)
	if len(fields) < 7 {
		if len(p.colors) > 0 {
			p.colors = append(p.colors, [3]uint8{})
		}
		return nil
	}
	rgb, err := parseVec3(fields[3:])
	if err != nil {
		return fmt.Errorf("vertex color: %w", err)
	}
	// Pad earlier uncolored vertices so indices stay aligned.
	for len(p.colors) < len(p.positions)-1 {
		p.colors = append(p.colors, [3]uint8{})
	}
	p.colors = append(p.colors, vertexColor(rgb))
	return nil
}

// vertexColor accepts 0..1 floats or 0..255 values.
func vertexColor(c math3d.Vec3) [3]uint8 {
	if c.MaxComponent() > 1 {
		c = c.Scale(1.0 / 255)
	}
	return [3]uint8{channel(c.X), channel(c.Y), channel(c.Z)}
}

func (p *objParser) texcoord(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("texture coord needs u v, got %d values", len(fields)-1)
	}
	u, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Errorf("texture u: %w", err)
	}
	v, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return fmt.Errorf("texture v: %w", err)
	}
	p.uvs = append(p.uvs, math3d.V2(u, v))
	return nil
}

func (p *objParser) normal(fields []string) error {
	n, err := parseVec3(fields)
	if err != nil {
		return fmt.Errorf("normal: %w", err)
	}
	p.normals = append(p.normals, n.Normalize())
	return nil
}

func (p *objParser) face(fields []string) error {
	if len(fields) < 4 {
		return fmt.Errorf("face needs at least 3 vertices, got %d", len(fields)-1)
	}
	idx := make([]int, 0, len(fields)-1)
	for _, field := range fields[1:] {
		c, err := parseFaceVertex(field)
		if err != nil {
			return err
		}
		c = objCorner{
			pos:    resolveIndex(c.pos, len(p.positions)),
			uv:     resolveIndex(c.uv, len(p.uvs)),
			normal: resolveIndex(c.normal, len(p.normals)),
		}
		if c.pos < 0 || c.pos >= len(p.positions) {
			return fmt.Errorf("position index %d out of range", c.pos+1)
		}
		idx = append(idx, p.corner(c))
	}
	// Fan triangulation; winding reversed since the rasterizer is CW after
	// the screen-space Y flip.
	for i := 1; i < len(idx)-1; i++ {
		p.mesh.Faces = append(p.mesh.Faces, Face{V: [3]int{idx[0], idx[i+1], idx[i]}})
	}
	return nil
}

// corner returns the mesh vertex for c, creating it on first use.
func (p *objParser) corner(c objCorner) int {
	if i, ok := p.corners[c]; ok {
		return i
	}
	v := MeshVertex{Position: p.positions[c.pos]}
	if c.pos < len(p.colors) {
		v.Color = p.colors[c.pos]
	}
	if c.uv >= 0 && c.uv < len(p.uvs) {
		v.UV = p.uvs[c.uv]
	}
	if c.normal >= 0 && c.normal < len(p.normals) {
		v.Normal = p.normals[c.normal]
	}
	i := len(p.mesh.Vertices)
	p.mesh.Vertices = append(p.mesh.Vertices, v)
	p.corners[c] = i
	return i
}

// finish turns a face-less file into a point cloud.
func (p *objParser) finish() {
	p.mesh.HasColors = len(p.colors) > 0
	if len(p.mesh.Faces) > 0 {
		return
	}
	p.mesh.Topology = TopologyPoints
	p.mesh.Vertices = p.mesh.Vertices[:0]
	for i, pos := range p.positions {
		v := MeshVertex{Position: pos}
		if i < len(p.colors) {
			v.Color = p.colors[i]
		}
		p.mesh.Vertices = append(p.mesh.Vertices, v)
	}
}

// Load parses an OBJ from a reader. Only geometry statements are read;
// materials and groups are ignored apart from the object name.
func (l *OBJLoader) Load(r io.Reader, name string) (*Mesh, error) {
	p := &objParser{mesh: NewMesh(name), corners: make(map[objCorner]int)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		var err error
		switch fields[0] {
		case "v":
			err = p.vertex(fields)
		case "vt":
			err = p.texcoord(fields)
		case "vn":
			err = p.normal(fields)
		case "f":
			err = p.face(fields)
		case "o":
			if len(fields) > 1 {
				p.mesh.Name = fields[1]
			}
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading OBJ: %w", err)
	}

	p.finish()
	mesh := p.mesh
	if len(mesh.Vertices) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyGeometry)
	}
	mesh.CalculateBounds()
	if l.CalculateNormals && len(p.normals) == 0 && mesh.Topology == TopologyTriangles {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}
	return mesh, nil
}

func parseVec3(fields []string) (math3d.Vec3, error) {
	if len(fields) < 4 {
		return math3d.Vec3{}, fmt.Errorf("need x y z, got %d values", len(fields)-1)
	}
	var xyz [3]float64
	for i := range xyz {
		f, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return math3d.Vec3{}, fmt.Errorf("component %d: %w", i, err)
		}
		xyz[i] = f
	}
	return math3d.V3(xyz[0], xyz[1], xyz[2]), nil
}

// parseFaceVertex parses v, v/vt, v/vt/vn or v//vn. Indices stay 1-based;
// 0 means absent.
func parseFaceVertex(s string) (objCorner, error) {
	var c objCorner
	for i, part := range strings.SplitN(s, "/", 3) {
		if part == "" {
			if i == 0 {
				return c, fmt.Errorf("missing vertex index in %q", s)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return c, fmt.Errorf("invalid index %q in %q", part, s)
		}
		switch i {
		case 0:
			c.pos = n
		case 1:
			c.uv = n
		case 2:
			c.normal = n
		}
	}
	return c, nil
}

// resolveIndex converts a 1-based or negative (relative) OBJ index to
// 0-based. An absent index (0) becomes -1.
func resolveIndex(idx, count int) int {
	switch {
	case idx == 0:
		return -1
	case idx < 0:
		return count + idx
	default:
		return idx - 1
	}
}
