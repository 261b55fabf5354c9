// Package render provides software rasterization for trophycase panes.
package render

import (
	"math"

	"github.com/taigrr/trophycase/pkg/math3d"
)

// Vertex represents a vertex with all attributes needed for rasterization.
type Vertex struct {
	Position math3d.Vec3 // World position
	Normal   math3d.Vec3 // Normal vector (for lighting)
	Color    Color       // Vertex color
}

// Triangle represents a triangle to be rasterized.
type Triangle struct {
	V [3]Vertex
}

// MeshRenderer is implemented by models.Mesh. Declared here so render does
// not import models.
type MeshRenderer interface {
	VertexCount() int
	TriangleCount() int
	GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2)
	GetFace(i int) [3]int
}

// PointRenderer is implemented by point clouds. ok is false when the point
// has no color of its own.
type PointRenderer interface {
	PointCount() int
	GetPoint(i int) (pos math3d.Vec3, color [3]uint8, ok bool)
}

// Rasterizer handles software triangle and point rasterization.
type Rasterizer struct {
	camera  *Camera
	fb      *Framebuffer
	zbuffer []float64 // Depth buffer (1D array, row-major)

	DoubleSided bool // Shade back faces instead of culling them
	PointSize   int  // Splat size in pixels, at least 1
}

// NewRasterizer creates a new rasterizer.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		camera:    camera,
		fb:        fb,
		PointSize: 1,
	}
	r.Resize()
	return r
}

// SetCamera switches the camera used for subsequent draws.
func (r *Rasterizer) SetCamera(camera *Camera) {
	r.camera = camera
}

// Resize resizes the rasterizer's buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		return
	}
	if n := r.fb.Width * r.fb.Height; len(r.zbuffer) != n {
		r.zbuffer = make([]float64, n)
	}
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// ClearDepth clears the Z-buffer (call before each frame).
func (r *Rasterizer) ClearDepth() {
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// depthTest writes z at (x, y) and reports true if it is nearer than the
// stored depth.
func (r *Rasterizer) depthTest(x, y int, z float64) bool {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return false
	}
	i := y*r.Width() + x
	if z >= r.zbuffer[i] {
		return false
	}
	r.zbuffer[i] = z
	return true
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y  float64 // Screen coordinates
	Z     float64 // NDC depth
	W     float64 // Clip W
	Color Color
}

// project maps a world position to screen space. ok is false behind the
// camera.
func (r *Rasterizer) project(viewProj math3d.Mat4, p math3d.Vec3) (sv screenVertex, ok bool) {
	clip := viewProj.MulVec4(math3d.V4FromV3(p, 1))
	if clip.W <= 1e-9 {
		return sv, false
	}
	sv.X = (clip.X/clip.W + 1) * 0.5 * float64(r.Width())
	sv.Y = (1 - clip.Y/clip.W) * 0.5 * float64(r.Height()) // Y flipped
	sv.Z = clip.Z / clip.W
	sv.W = clip.W
	return sv, sv.Z >= -1 && sv.Z <= 1
}

func shade(base Color, normal, light math3d.Vec3) Color {
	intensity := math.Max(0, normal.Dot(light))
	return base.Scale(0.3 + 0.7*intensity) // Ambient + diffuse
}

// DrawTriangleGouraud rasterizes a triangle with Gouraud shading (per-vertex lighting).
// Triangles with any vertex outside the depth range are skipped.
func (r *Rasterizer) DrawTriangleGouraud(tri Triangle, lightDir math3d.Vec3) {
	var sv [3]screenVertex
	viewProj := r.camera.ViewProjectionMatrix()
	for i := range 3 {
		var ok bool
		if sv[i], ok = r.project(viewProj, tri.V[i].Position); !ok {
			return
		}
	}

	// Backface test using screen-space winding.
	cross := (sv[1].X-sv[0].X)*(sv[2].Y-sv[0].Y) - (sv[1].Y-sv[0].Y)*(sv[2].X-sv[0].X)
	backFacing := cross < 0
	if backFacing && !r.DoubleSided {
		return
	}

	normLight := lightDir.Normalize()
	for i := range 3 {
		n := tri.V[i].Normal
		if backFacing {
			n = n.Negate()
		}
		sv[i].Color = shade(tri.V[i].Color, n, normLight)
	}
	if backFacing {
		sv[1], sv[2] = sv[2], sv[1]
	}

	r.fillTriangle(sv)
}

func (r *Rasterizer) fillTriangle(sv [3]screenVertex) {
	minX := int(math.Max(0, math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(r.Width()-1), math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(r.Height()-1), math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			bc, ok := barycentric(sv[0].X, sv[0].Y, sv[1].X, sv[1].Y, sv[2].X, sv[2].Y, px, py)
			if !ok || bc.X < 0 || bc.Y < 0 || bc.Z < 0 {
				continue
			}
			z := bc.X*sv[0].Z + bc.Y*sv[1].Z + bc.Z*sv[2].Z
			if !r.depthTest(x, y, z) {
				continue
			}
			r.fb.SetPixel(x, y, interpolateColor3(sv[0].Color, sv[1].Color, sv[2].Color, bc))
		}
	}
}

// DrawMeshGouraud renders a mesh with Gouraud shading (per-vertex lighting).
func (r *Rasterizer) DrawMeshGouraud(mesh MeshRenderer, transform math3d.Mat4, color Color, lightDir math3d.Vec3) {
	for i := range mesh.TriangleCount() {
		face := mesh.GetFace(i)
		var tri Triangle
		for k, idx := range face {
			p, n, _ := mesh.GetVertex(idx)
			tri.V[k] = Vertex{
				Position: transform.MulVec3(p),
				Normal:   transform.MulVec3Dir(n).Normalize(),
				Color:    color,
			}
		}
		r.DrawTriangleGouraud(tri, lightDir)
	}
}

// DrawPoints renders a point cloud as square splats. Points without their
// own color use fallback.
func (r *Rasterizer) DrawPoints(cloud PointRenderer, transform math3d.Mat4, fallback Color) {
	viewProj := r.camera.ViewProjectionMatrix()
	size := max(r.PointSize, 1)
	half := size / 2

	for i := range cloud.PointCount() {
		p, rgb, ok := cloud.GetPoint(i)
		sv, visible := r.project(viewProj, transform.MulVec3(p))
		if !visible {
			continue
		}
		c := fallback
		if ok {
			c = RGB(rgb[0], rgb[1], rgb[2])
		}
		cx, cy := int(sv.X)-half, int(sv.Y)-half
		for dy := range size {
			for dx := range size {
				if r.depthTest(cx+dx, cy+dy, sv.Z) {
					r.fb.SetPixel(cx+dx, cy+dy, c)
				}
			}
		}
	}
}

// barycentric calculates barycentric coordinates for point (px, py) in
// triangle. ok is false for a degenerate triangle.
func barycentric(x0, y0, x1, y1, x2, y2, px, py float64) (math3d.Vec3, bool) {
	v0x, v0y := x2-x0, y2-y0
	v1x, v1y := x1-x0, y1-y0
	v2x, v2y := px-x0, py-y0

	dot00 := v0x*v0x + v0y*v0y
	dot01 := v0x*v1x + v0y*v1y
	dot02 := v0x*v2x + v0y*v2y
	dot11 := v1x*v1x + v1y*v1y
	dot12 := v1x*v2x + v1y*v2y

	denom := dot00*dot11 - dot01*dot01
	if denom == 0 {
		return math3d.Vec3{}, false
	}
	invDenom := 1.0 / denom
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	return math3d.V3(1-u-v, v, u), true
}

// interpolateColor3 interpolates between 3 colors using barycentric coords.
func interpolateColor3(c0, c1, c2 Color, bc math3d.Vec3) Color {
	return RGB(
		clampByte(float64(c0.R)*bc.X+float64(c1.R)*bc.Y+float64(c2.R)*bc.Z),
		clampByte(float64(c0.G)*bc.X+float64(c1.G)*bc.Y+float64(c2.G)*bc.Z),
		clampByte(float64(c0.B)*bc.X+float64(c1.B)*bc.Y+float64(c2.B)*bc.Z),
	)
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
