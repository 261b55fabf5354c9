package showcase

import (
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/taigrr/trophycase/pkg/config"
	"github.com/taigrr/trophycase/pkg/math3d"
	"github.com/taigrr/trophycase/pkg/models"
	"github.com/taigrr/trophycase/pkg/render"
)

// boxOBJ returns a closed box spanning min..max as OBJ text.
func boxOBJ(min, max math3d.Vec3) *fstest.MapFile {
	var b strings.Builder
	for _, c := range math3d.B3(min, max).Corners() {
		fmt.Fprintf(&b, "v %g %g %g\n", c.X, c.Y, c.Z)
	}
	// Corner order: ---, --+, -+-, +--, +++, ++-, +-+, -++
	for _, f := range [][3]int{
		{1, 2, 8}, {1, 8, 3},
		{4, 6, 5}, {4, 5, 7},
		{1, 4, 7}, {1, 7, 2},
		{3, 8, 5}, {3, 5, 6},
		{1, 3, 6}, {1, 6, 4},
		{2, 7, 5}, {2, 5, 8},
	} {
		fmt.Fprintf(&b, "f %d %d %d\n", f[0], f[1], f[2])
	}
	return &fstest.MapFile{Data: []byte(b.String())}
}

const pointsPLY = `ply
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
1 2 0 0 255 0
0 0 3 0 0 255
`

func boxMesh(min, max math3d.Vec3) *models.Mesh {
	m := models.NewMesh("box")
	for _, c := range math3d.B3(min, max).Corners() {
		m.Vertices = append(m.Vertices, models.MeshVertex{Position: c})
	}
	m.CalculateBounds()
	return m
}

func boxObject(min, max math3d.Vec3) *DisplayedObject {
	return NewDisplayedObject(boxMesh(min, max), Key("abc", "s"), Request{Sample: "s", Method: "gt"}, "abc/s_gt.obj")
}

// testGroup is the abc group restricted to roles.
func testGroup(roles ...string) *config.Group {
	g := config.Defaults().Groups[0]
	g.Roles = roles
	return &g
}

type fakeSurface struct {
	w, h       int
	renders    int
	lastMesh   render.MeshRenderer
	lastAspect float64
}

func (f *fakeSurface) Size() (int, int) { return f.w, f.h }
func (f *fakeSurface) Resize(w, h int) { f.w, f.h = w, h }
func (f *fakeSurface) Render(cam *render.Camera, obj render.MeshRenderer, _ math3d.Mat4) {
	f.renders++
	f.lastMesh = obj
	f.lastAspect = cam.Aspect
}

type fakeContainer struct{ w, h float64 }

func (c *fakeContainer) Size() (float64, float64) { return c.w, c.h }

type recIndicator struct {
	loading  bool
	failed   error
	progress int64
}

func (r *recIndicator) SetLoading(l bool) { r.loading = l }
func (r *recIndicator) SetProgress(read, _ int64) { r.progress = read }
func (r *recIndicator) SetFailed(err error) { r.failed = err }

// slotsFor builds 40x30 slots for roles.
func slotsFor(roles ...Role) map[Role]Slot {
	slots := make(map[Role]Slot)
	for _, r := range roles {
		slots[r] = Slot{Surface: &fakeSurface{}, Container: &fakeContainer{w: 40, h: 30}, Indicator: &recIndicator{}}
	}
	return slots
}

// gateFS blocks Open on gated paths until their channel is closed.
type gateFS struct {
	fstest.MapFS
	gates map[string]chan struct{}
}

func (g gateFS) Open(name string) (fs.File, error) {
	if ch, ok := g.gates[name]; ok {
		<-ch
	}
	return g.MapFS.Open(name)
}

// countFS counts Open calls per path.
type countFS struct {
	fs.FS
	mu    sync.Mutex
	opens map[string]int
}

func (c *countFS) Open(name string) (fs.File, error) {
	c.mu.Lock()
	if c.opens == nil {
		c.opens = make(map[string]int)
	}
	c.opens[name]++
	c.mu.Unlock()
	return c.FS.Open(name)
}

func (c *countFS) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens[name]
}

// waitFor drains s until cond holds.
func waitFor(t *testing.T, s *Session, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s.Drain()
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached")
}
