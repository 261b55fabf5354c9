package showcase

import (
	"context"
	"errors"
	"math"

	"fortio.org/log"

	"github.com/taigrr/trophycase/pkg/config"
	"github.com/taigrr/trophycase/pkg/math3d"
	"github.com/taigrr/trophycase/pkg/orbit"
	"github.com/taigrr/trophycase/pkg/render"
)

// Group coordinates the viewports comparing one sample across roles.
type Group struct {
	Config *config.Group

	session   *Session
	viewports []*Viewport
	byRole    map[Role]*Viewport

	// Shared camera mode.
	camera   *render.Camera
	controls *orbit.Controls
	// Viewport receiving pointer input in independent mode.
	active *Viewport

	frame      FrameOptions
	autoRotate bool

	currentSample string
	currentMethod string
}

func newGroup(s *Session, cfg *config.Group, slots map[Role]Slot) *Group {
	if !usable(slots[RoleGT]) {
		log.Warnf("group %s: no ground-truth surface, group not created", cfg.Name)
		return nil
	}
	g := &Group{
		Config:        cfg,
		session:       s,
		byRole:        make(map[Role]*Viewport),
		frame:         FrameOptionsFor(cfg),
		autoRotate:    cfg.AutoRotateEnabled(),
		currentMethod: cfg.DefaultMethod,
	}
	pointsOK := usable(slots[RoleBaselinePoints]) && usable(slots[RoleCandidatePoints])
	for _, name := range cfg.Roles {
		role := Role(name)
		slot := slots[role]
		switch {
		case !usable(slot):
			log.LogVf("group %s: no surface for %s, viewport skipped", cfg.Name, role)
			continue
		case role.PointsOnly() && !pointsOK:
			log.LogVf("group %s: point viewports need both surfaces, %s skipped", cfg.Name, role)
			continue
		}
		v := newViewport(cfg.Name+"/"+name, role, slot)
		g.viewports = append(g.viewports, v)
		g.byRole[role] = v
	}

	g.camera = g.initialCamera()
	settings := orbit.DefaultSettings()
	settings.FPS = s.fps
	owner := g.initialOwner()
	g.controls = orbit.New(g.camera, owner.ID, settings)
	g.controls.OnStart(g.stopAutoRotate)
	g.active = owner
	if g.independent() {
		for _, v := range g.viewports {
			v.camera = g.initialCamera()
			v.controls = orbit.New(v.camera, v.ID, settings)
			v.controls.OnStart(g.stopAutoRotate)
		}
	}
	return g
}

func usable(s Slot) bool {
	return s.Surface != nil && s.Container != nil
}

func (g *Group) initialCamera() *render.Camera {
	cam := render.NewCamera()
	p := g.Config.CameraPosition
	cam.SetPosition(math3d.V3(p[0], p[1], p[2]))
	cam.SetFOV(g.Config.CameraFOV * math.Pi / 180)
	cam.LookAt(math3d.Zero3())
	return cam
}

// initialOwner is the baseline viewport, else ground truth.
func (g *Group) initialOwner() *Viewport {
	if v, ok := g.byRole[RoleBaseline]; ok {
		return v
	}
	return g.byRole[RoleGT]
}

func (g *Group) independent() bool {
	return g.Config.CameraMode == config.CameraIndependent
}

// Name returns the group name.
func (g *Group) Name() string { return g.Config.Name }

// Viewports returns the group's viewports in role order.
func (g *Group) Viewports() []*Viewport { return g.viewports }

// Viewport returns the viewport for role, if created.
func (g *Group) Viewport(role Role) (*Viewport, bool) {
	v, ok := g.byRole[role]
	return v, ok
}

// CurrentSample returns the selected sample id ("" before any selection).
func (g *Group) CurrentSample() string { return g.currentSample }

// CurrentMethod returns the selected candidate method.
func (g *Group) CurrentMethod() string { return g.currentMethod }

// AutoRotating reports whether auto-rotation is still on.
func (g *Group) AutoRotating() bool { return g.autoRotate }

// Camera returns the camera that draws v.
func (g *Group) Camera(v *Viewport) *render.Camera {
	if g.independent() {
		return v.camera
	}
	return g.camera
}

// Controls returns the controls that receive pointer input for v.
func (g *Group) Controls(v *Viewport) *orbit.Controls {
	if g.independent() {
		return v.controls
	}
	return g.controls
}

// ActiveControls returns the controls bound to the last pointed viewport.
func (g *Group) ActiveControls() *orbit.Controls {
	return g.Controls(g.active)
}

// OnSampleChanged selects a sample and loads it into every viewport.
func (g *Group) OnSampleChanged(sample string) {
	g.currentSample = sample
	g.applySelection(false)
}

// OnMethodChanged selects the candidate method. Nothing loads until a
// sample is selected.
func (g *Group) OnMethodChanged(method string) {
	g.currentMethod = method
	if g.currentSample == "" {
		return
	}
	g.applySelection(false)
}

// Reload loads the current selection again, keeping canonical transforms.
func (g *Group) Reload() {
	if g.currentSample == "" {
		return
	}
	g.applySelection(true)
}

func (g *Group) applySelection(force bool) {
	for _, v := range g.viewports {
		g.request(v, Request{Sample: g.currentSample, Method: v.Role.Method(g.Config, g.currentMethod)}, force)
	}
}

// request records req as v's wanted selection and starts a load unless
// one is already in flight; the in-flight completion picks up the new
// wanted selection.
func (g *Group) request(v *Viewport, req Request, force bool) {
	if req.Method == "" {
		return
	}
	v.wanted = req
	if v.loading {
		return
	}
	if !force && v.state == StateReady && v.showing(req) {
		return
	}
	g.startLoad(v, req)
}

func (g *Group) startLoad(v *Viewport, req Request) {
	s := g.session
	v.loading = true
	v.state = StateLoading
	v.indicator.SetFailed(nil)
	v.indicator.SetLoading(true)
	s.pending++

	ctx := s.ctx
	go func() {
		progress := func(read, total int64) {
			s.Post(func() { v.indicator.SetProgress(read, total) })
		}
		asset, err := s.loader.Load(ctx, g.Config, req.Sample, req.Method, v.Role, progress)
		s.Post(func() { g.complete(v, req, asset, err) })
	}()
}

// complete runs on the loop goroutine when a load finishes.
func (g *Group) complete(v *Viewport, req Request, asset *Asset, err error) {
	s := g.session
	s.pending--
	v.loading = false
	v.indicator.SetLoading(false)

	if s.closed {
		if asset != nil {
			asset.Mesh.Release()
		}
		return
	}
	if req != v.wanted {
		if asset != nil {
			asset.Mesh.Release()
		}
		if v.showing(v.wanted) {
			// Reselected what is still attached.
			v.state = StateReady
			return
		}
		log.LogVf("%s: discarding stale %s, loading %s", v.ID, req, v.wanted)
		g.startLoad(v, v.wanted)
		return
	}
	if err != nil {
		v.detach()
		v.state = StateFailed
		v.err = err
		v.indicator.SetFailed(err)
		if !errors.Is(err, context.Canceled) {
			log.Warnf("%s: %v", v.ID, err)
		}
		return
	}

	key := Key(g.Config.DatasetDir, req.Sample)
	obj := NewDisplayedObject(asset.Mesh, key, req, asset.Path)
	v.attach(obj)
	v.state = StateReady
	v.err = nil

	if t, ok := s.registry.Get(key); ok {
		Normalize(obj, t)
	} else {
		up := g.Config.UpAxis
		if v.Role.PointsOnly() {
			up = "y"
		}
		SelfNormalize(obj, up)
	}

	if v.Role.ReferenceEligible() && s.registry.TrySetReference(key, obj, g.Config) {
		g.propagate(key)
		if g.Config.AutoFrameEnabled() {
			g.autoFrame(obj)
		}
	}
}

// propagate normalizes every viewport showing key with its canonical
// transform.
func (g *Group) propagate(key SampleKey) {
	t, ok := g.session.registry.Get(key)
	if !ok {
		return
	}
	for _, v := range g.viewports {
		if v.object != nil && v.object.Key == key {
			Normalize(v.object, t)
		}
	}
}

func (g *Group) autoFrame(ref *DisplayedObject) {
	if !g.independent() {
		AutoFrame(g.camera, g.controls, ref, g.frame)
		return
	}
	for _, v := range g.viewports {
		if v.object != nil && v.object.Key == ref.Key {
			AutoFrame(v.camera, v.controls, ref, g.frame)
		}
	}
}

// PointerEnter binds the shared controls to v.
func (g *Group) PointerEnter(v *Viewport) {
	g.bind(v)
}

// PointerDown binds the shared controls to v.
func (g *Group) PointerDown(v *Viewport) {
	g.bind(v)
}

func (g *Group) bind(v *Viewport) {
	g.active = v
	if g.independent() || g.controls.Owner() == v.ID {
		return
	}
	g.controls.Rebind(g.camera, v.ID)
}

func (g *Group) stopAutoRotate() {
	if g.autoRotate {
		log.LogVf("group %s: auto-rotation off", g.Config.Name)
	}
	g.autoRotate = false
}

func (g *Group) updateControls() {
	if !g.independent() {
		g.controls.Update()
		return
	}
	for _, v := range g.viewports {
		v.controls.Update()
	}
}

// advanceAutoRotate steps every displayed object's phase and recomposes
// its rotation as phase about the base-rotated local axis, then base.
func (g *Group) advanceAutoRotate() {
	if !g.autoRotate {
		return
	}
	local := math3d.UnitY
	if g.Config.AutoRotateAxis == "z" {
		local = math3d.UnitZ
	}
	for _, v := range g.viewports {
		obj := v.object
		if obj == nil {
			continue
		}
		obj.Phase += g.Config.AutoRotateSpeed
		axis := obj.BaseRotation.Rotate(local).Normalize()
		obj.Rotation = math3d.QuatFromAxisAngle(axis, obj.Phase).Mul(obj.BaseRotation)
	}
}

// reconcile resizes each surface to its container size times ratio.
func (g *Group) reconcile(ratio float64) {
	for _, v := range g.viewports {
		w, h := v.containerSize()
		if w <= 0 || h <= 0 {
			continue
		}
		pw, ph := int(math.Floor(w*ratio)), int(math.Floor(h*ratio))
		if pw < 1 || ph < 1 {
			continue
		}
		if cw, ch := v.surface.Size(); cw != pw || ch != ph {
			v.surface.Resize(pw, ph)
		}
	}
}

// draw renders every viewport once, setting the camera aspect first.
func (g *Group) draw() {
	for _, v := range g.viewports {
		w, h := v.containerSize()
		if w <= 0 || h <= 0 {
			continue
		}
		cam := g.Camera(v)
		cam.SetAspectRatio(w / h)
		var mesh render.MeshRenderer
		transform := math3d.Identity()
		if v.object != nil {
			mesh = v.object.Mesh
			transform = v.object.Matrix()
		}
		v.surface.Render(cam, mesh, transform)
	}
}

func (g *Group) tick(ratio float64) {
	g.updateControls()
	g.reconcile(ratio)
	g.advanceAutoRotate()
	g.draw()
}

func (g *Group) teardown() {
	for _, v := range g.viewports {
		v.detach()
		v.state = StateIdle
	}
}
