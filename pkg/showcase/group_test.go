package showcase

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/trophycase/pkg/config"
	"github.com/taigrr/trophycase/pkg/math3d"
)

func settle(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Settle(ctx))
}

func newTestSession(fsys fs.FS, g *config.Group, roles ...Role) (*Session, *Group) {
	s := NewSession(config.Defaults(), fsys)
	return s, s.AddGroup(g, slotsFor(roles...))
}

func TestCandidateTakesReferenceScale(t *testing.T) {
	fsys := fstest.MapFS{
		"abc/s_gt.obj":   boxOBJ(math3d.Zero3(), math3d.V3(2, 1, 4)),
		"abc/s_symm.obj": boxOBJ(math3d.V3(-5, -5, -5), math3d.V3(5, 5, 5)),
	}
	s, g := newTestSession(fsys, testGroup("gt", "candidate"), RoleGT, RoleCandidate)
	require.NotNil(t, g)

	g.OnSampleChanged("s")
	settle(t, s)

	gt, _ := g.Viewport(RoleGT)
	cand, _ := g.Viewport(RoleCandidate)
	require.Equal(t, StateReady, gt.State())
	require.Equal(t, StateReady, cand.State())
	assert.InDelta(t, 0.225, gt.Object().Scale, 1e-9)
	assert.InDelta(t, 0.225, cand.Object().Scale, 1e-9)
	ref, ok := s.Registry().Get(Key("abc", "s"))
	require.True(t, ok)
	assert.Equal(t, ref.Translation, cand.Object().Translation)
}

func TestProvisionalThenPropagated(t *testing.T) {
	gate := make(chan struct{})
	fsys := gateFS{
		MapFS: fstest.MapFS{
			"abc/s_gt.obj":   boxOBJ(math3d.Zero3(), math3d.V3(2, 1, 4)),
			"abc/s_symm.obj": boxOBJ(math3d.Zero3(), math3d.V3(3, 3, 3)),
		},
		gates: map[string]chan struct{}{"abc/s_gt.obj": gate},
	}
	s, g := newTestSession(fsys, testGroup("gt", "candidate"), RoleGT, RoleCandidate)
	g.OnSampleChanged("s")

	cand, _ := g.Viewport(RoleCandidate)
	waitFor(t, s, func() bool { return cand.State() == StateReady })
	assert.InDelta(t, 0.3, cand.Object().Scale, 1e-9)
	assert.Equal(t, 0, s.Registry().Len())

	close(gate)
	settle(t, s)
	assert.InDelta(t, 0.225, cand.Object().Scale, 1e-9)
}

func TestBaselineIsFallbackReference(t *testing.T) {
	gate := make(chan struct{})
	fsys := gateFS{
		MapFS: fstest.MapFS{
			"abc/s_gt.obj":    boxOBJ(math3d.Zero3(), math3d.V3(1, 1, 1)),
			"abc/s_unico.obj": boxOBJ(math3d.Zero3(), math3d.V3(9, 1, 1)),
		},
		gates: map[string]chan struct{}{"abc/s_gt.obj": gate},
	}
	s, g := newTestSession(fsys, testGroup("gt", "baseline"), RoleGT, RoleBaseline)
	g.OnSampleChanged("s")

	base, _ := g.Viewport(RoleBaseline)
	waitFor(t, s, func() bool { return base.State() == StateReady })
	close(gate)
	settle(t, s)

	gt, _ := g.Viewport(RoleGT)
	assert.InDelta(t, 0.1, gt.Object().Scale, 1e-9)
}

func TestInputFallbackIsNotAFailure(t *testing.T) {
	fsys := fstest.MapFS{
		"abc/s_gt.obj":    boxOBJ(math3d.Zero3(), math3d.V3(1, 1, 1)),
		"abc/s_input.obj": boxOBJ(math3d.Zero3(), math3d.V3(1, 1, 1)),
	}
	s, g := newTestSession(fsys, testGroup("gt", "input"), RoleGT, RoleInput)
	g.OnSampleChanged("s")
	settle(t, s)

	in, _ := g.Viewport(RoleInput)
	require.Equal(t, StateReady, in.State())
	assert.Equal(t, "abc/s_input.obj", in.Object().Path)
	assert.Nil(t, in.indicator.(*recIndicator).failed)
	assert.False(t, in.indicator.(*recIndicator).loading)
}

func TestMissingAssetFailsOnlyThatViewport(t *testing.T) {
	fsys := fstest.MapFS{"abc/s_gt.obj": boxOBJ(math3d.Zero3(), math3d.V3(1, 1, 1))}
	s, g := newTestSession(fsys, testGroup("gt", "candidate"), RoleGT, RoleCandidate)
	g.OnSampleChanged("s")
	settle(t, s)

	gt, _ := g.Viewport(RoleGT)
	cand, _ := g.Viewport(RoleCandidate)
	assert.Equal(t, StateReady, gt.State())
	assert.Equal(t, StateFailed, cand.State())
	assert.Nil(t, cand.Object())

	var ex *ExhaustedError
	require.True(t, errors.As(cand.Err(), &ex))
	assert.Len(t, ex.Attempts, 2)
	assert.Equal(t, cand.Err(), cand.indicator.(*recIndicator).failed)
}

func TestFailureReleasesPreviousObject(t *testing.T) {
	fsys := fstest.MapFS{
		"abc/a_gt.obj":   boxOBJ(math3d.Zero3(), math3d.V3(1, 1, 1)),
		"abc/a_symm.obj": boxOBJ(math3d.Zero3(), math3d.V3(1, 1, 1)),
		"abc/b_gt.obj":   boxOBJ(math3d.Zero3(), math3d.V3(1, 1, 1)),
	}
	s, g := newTestSession(fsys, testGroup("gt", "candidate"), RoleGT, RoleCandidate)
	g.OnSampleChanged("a")
	settle(t, s)
	cand, _ := g.Viewport(RoleCandidate)
	old := cand.Object()
	require.NotNil(t, old)

	g.OnSampleChanged("b")
	settle(t, s)
	assert.Equal(t, StateFailed, cand.State())
	assert.True(t, old.Mesh.Released())
}

func TestStaleResultDiscarded(t *testing.T) {
	gate := make(chan struct{})
	fsys := gateFS{
		MapFS: fstest.MapFS{
			"abc/a_gt.obj": boxOBJ(math3d.Zero3(), math3d.V3(1, 1, 1)),
			"abc/b_gt.obj": boxOBJ(math3d.Zero3(), math3d.V3(2, 2, 2)),
		},
		gates: map[string]chan struct{}{"abc/a_gt.obj": gate},
	}
	s, g := newTestSession(fsys, testGroup("gt"), RoleGT)
	gt, _ := g.Viewport(RoleGT)

	g.OnSampleChanged("a")
	g.OnSampleChanged("b")
	assert.Equal(t, Request{Sample: "b", Method: "gt"}, gt.Wanted())
	assert.Equal(t, 1, s.Pending())

	close(gate)
	settle(t, s)

	require.Equal(t, StateReady, gt.State())
	assert.Equal(t, "b", gt.Object().Request.Sample)
	_, ok := s.Registry().Get(Key("abc", "a"))
	assert.False(t, ok)
	_, ok = s.Registry().Get(Key("abc", "b"))
	assert.True(t, ok)
}

func TestReselectAttachedSampleSkipsReload(t *testing.T) {
	gate := make(chan struct{})
	fsys := &countFS{FS: gateFS{
		MapFS: fstest.MapFS{
			"abc/a_gt.obj": boxOBJ(math3d.Zero3(), math3d.V3(1, 1, 1)),
			"abc/b_gt.obj": boxOBJ(math3d.Zero3(), math3d.V3(2, 2, 2)),
		},
		gates: map[string]chan struct{}{"abc/b_gt.obj": gate},
	}}
	s, g := newTestSession(fsys, testGroup("gt"), RoleGT)
	gt, _ := g.Viewport(RoleGT)

	g.OnSampleChanged("a")
	settle(t, s)
	require.Equal(t, StateReady, gt.State())
	shown := gt.Object()
	opens := fsys.count("abc/a_gt.obj")

	g.OnSampleChanged("b")
	g.OnSampleChanged("a")
	assert.Equal(t, StateLoading, gt.State())
	close(gate)
	settle(t, s)

	assert.Equal(t, StateReady, gt.State())
	assert.Same(t, shown, gt.Object())
	assert.Equal(t, opens, fsys.count("abc/a_gt.obj"))
	assert.Equal(t, 0, s.Pending())
}

func TestMethodChangeWaitsForSample(t *testing.T) {
	fsys := fstest.MapFS{}
	s, g := newTestSession(fsys, testGroup("gt", "candidate"), RoleGT, RoleCandidate)
	g.OnMethodChanged("other")
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, "other", g.CurrentMethod())
}

func TestGroupCreation(t *testing.T) {
	cfg := testGroup(config.KnownRoles...)

	t.Run("missing gt surface", func(t *testing.T) {
		_, g := newTestSession(fstest.MapFS{}, cfg, RoleInput, RoleBaseline)
		assert.Nil(t, g)
	})
	t.Run("points need both surfaces", func(t *testing.T) {
		_, g := newTestSession(fstest.MapFS{}, cfg, RoleGT, RoleBaseline, RoleBaselinePoints)
		require.NotNil(t, g)
		_, ok := g.Viewport(RoleBaselinePoints)
		assert.False(t, ok)
		assert.Len(t, g.Viewports(), 2)
	})
	t.Run("all roles", func(t *testing.T) {
		_, g := newTestSession(fstest.MapFS{}, cfg, RoleGT, RoleInput, RoleBaseline, RoleCandidate, RoleBaselinePoints, RoleCandidatePoints)
		require.NotNil(t, g)
		assert.Len(t, g.Viewports(), 6)
		base, _ := g.Viewport(RoleBaseline)
		assert.Equal(t, base.ID, g.ActiveControls().Owner())
	})
}

func TestInitialCamera(t *testing.T) {
	cfg := testGroup("gt")
	cfg.CameraFOV = 90
	_, g := newTestSession(fstest.MapFS{}, cfg, RoleGT)
	gt, _ := g.Viewport(RoleGT)
	cam := g.Camera(gt)
	assert.Equal(t, math3d.V3(0.5, 0.5, 1.8), cam.Position)
	assert.Equal(t, math3d.Zero3(), cam.Target)
	assert.InDelta(t, 1.5707963267948966, cam.FOV, 1e-12)
}

func TestPointerRebindKeepsSettings(t *testing.T) {
	_, g := newTestSession(fstest.MapFS{}, testGroup("gt", "baseline"), RoleGT, RoleBaseline)
	gt, _ := g.Viewport(RoleGT)
	base, _ := g.Viewport(RoleBaseline)
	ctl := g.ActiveControls()
	require.Equal(t, base.ID, ctl.Owner())

	settings := ctl.Settings()
	settings.RotateSpeed = 2.5
	ctl.SetSettings(settings)
	ctl.Target = math3d.V3(0, 0.3, 0)

	g.PointerEnter(gt)
	assert.Equal(t, gt.ID, ctl.Owner())
	assert.Equal(t, settings, ctl.Settings())
	assert.Equal(t, math3d.V3(0, 0.3, 0), ctl.Target)
	assert.Same(t, ctl, g.ActiveControls())

	g.PointerDown(base)
	assert.Equal(t, base.ID, ctl.Owner())
}

func TestAutoRotateStepsAndStopsForGood(t *testing.T) {
	fsys := fstest.MapFS{"abc/s_gt.obj": boxOBJ(math3d.Zero3(), math3d.V3(1, 2, 1))}
	cfg := testGroup("gt")
	cfg.UpAxis = "z"
	s, g := newTestSession(fsys, cfg, RoleGT)
	g.OnSampleChanged("s")
	settle(t, s)

	gt, _ := g.Viewport(RoleGT)
	obj := gt.Object()
	base := obj.BaseRotation
	s.Tick()

	assert.InDelta(t, 0.01, obj.Phase, 1e-12)
	axis := base.Rotate(math3d.UnitY)
	want := math3d.QuatFromAxisAngle(axis, 0.01).Mul(base)
	assert.True(t, obj.Rotation.ApproxEqual(want, 1e-12))

	g.ActiveControls().Begin()
	assert.False(t, g.AutoRotating())
	s.Tick()
	s.Tick()
	assert.InDelta(t, 0.01, obj.Phase, 1e-12)
}

func TestTickResizesAndSkipsZeroArea(t *testing.T) {
	cfg := config.Defaults()
	cfg.PixelRatio = 2
	s := NewSession(cfg, fstest.MapFS{})
	slots := slotsFor(RoleGT, RoleCandidate)
	slots[RoleCandidate].Container.(*fakeContainer).w = 0
	g := s.AddGroup(testGroup("gt", "candidate"), slots)
	require.NotNil(t, g)

	s.Tick()
	gtSurf := slots[RoleGT].Surface.(*fakeSurface)
	candSurf := slots[RoleCandidate].Surface.(*fakeSurface)
	assert.Equal(t, 80, gtSurf.w)
	assert.Equal(t, 60, gtSurf.h)
	assert.Equal(t, 1, gtSurf.renders)
	assert.Nil(t, gtSurf.lastMesh)
	assert.InDelta(t, 40.0/30.0, gtSurf.lastAspect, 1e-12)
	assert.Equal(t, 0, candSurf.renders)
	assert.Equal(t, 0, candSurf.w)
}

func TestIndependentCamerasFrameEachViewport(t *testing.T) {
	fsys := fstest.MapFS{
		"abc/s_gt.obj":   boxOBJ(math3d.Zero3(), math3d.V3(2, 1, 4)),
		"abc/s_symm.obj": boxOBJ(math3d.Zero3(), math3d.V3(1, 1, 1)),
	}
	cfg := testGroup("gt", "candidate")
	cfg.CameraMode = config.CameraIndependent
	cfg.AutoFrame = nil
	s, g := newTestSession(fsys, cfg, RoleGT, RoleCandidate)
	g.OnSampleChanged("s")
	settle(t, s)

	gt, _ := g.Viewport(RoleGT)
	cand, _ := g.Viewport(RoleCandidate)
	assert.NotSame(t, g.Camera(gt), g.Camera(cand))
	assert.NotEqual(t, math3d.V3(0.5, 0.5, 1.8), g.Camera(gt).Position)

	g.PointerEnter(cand)
	assert.Same(t, g.Controls(cand), g.ActiveControls())
}

func TestLoopStartStop(t *testing.T) {
	fsys := fstest.MapFS{"abc/s_gt.obj": boxOBJ(math3d.Zero3(), math3d.V3(1, 1, 1))}
	s, g := newTestSession(fsys, testGroup("gt"), RoleGT)
	ticks := make(chan struct{}, 100)
	s.AfterTick(func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	h := s.Start()
	s.Post(func() { g.OnSampleChanged("s") })
	<-ticks
	h.Stop()

	select {
	case <-h.Done():
	default:
		t.Fatal("loop still running after Stop")
	}
	gt, _ := g.Viewport(RoleGT)
	assert.Nil(t, gt.Object())
	assert.Equal(t, StateIdle, gt.State())
	// Stop is idempotent.
	h.Stop()
}

func TestTeardownDiscardsLateCompletions(t *testing.T) {
	gate := make(chan struct{})
	fsys := gateFS{
		MapFS: fstest.MapFS{"abc/s_gt.obj": boxOBJ(math3d.Zero3(), math3d.V3(1, 1, 1))},
		gates: map[string]chan struct{}{"abc/s_gt.obj": gate},
	}
	s, g := newTestSession(fsys, testGroup("gt"), RoleGT)
	g.OnSampleChanged("s")
	s.Teardown()
	close(gate)
	settle(t, s)

	gt, _ := g.Viewport(RoleGT)
	assert.Nil(t, gt.Object())
	assert.Equal(t, 0, s.Registry().Len())
}
