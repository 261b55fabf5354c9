package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"fortio.org/log"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"

	"github.com/taigrr/trophycase/pkg/config"
	"github.com/taigrr/trophycase/pkg/math3d"
	"github.com/taigrr/trophycase/pkg/render"
	"github.com/taigrr/trophycase/pkg/showcase"
)

var (
	colorHeader = render.RGB(40, 44, 52)
	colorText   = render.RGB(220, 220, 220)
	colorDim    = render.RGB(140, 140, 150)
	colorAccent = render.RGB(120, 200, 255)
	colorError  = render.RGB(255, 90, 90)
)

// Orbit radians per cell of drag.
const dragSpeed = 0.05

func viewCmd() *cobra.Command {
	var (
		groupName string
		watch     bool
	)
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Interactive terminal comparison viewer",
		Long: `Interactive terminal comparison viewer.

Controls:
  Mouse drag  - Orbit (right drag pans)
  Scroll      - Zoom in/out
  N/P         - Next/previous sample
  1-9         - Select candidate method
  Tab         - Next group
  R           - Reload current sample
  Q/Esc       - Quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, fsys, err := loadConfig()
			if err != nil {
				return err
			}
			if logFile == "" {
				// The alternate screen owns stdout.
				log.SetOutput(io.Discard)
			}
			return runView(cfg, fsys, groupName, watch)
		},
	}
	cmd.Flags().StringVarP(&groupName, "group", "g", "", "Group shown first")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload the current sample when its files change")
	return cmd
}

// rect is a cell rectangle.
type rect struct{ x, y, w, h int }

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// cellBox is a viewport container measured in half-block pixels, which are
// roughly square. A zero box hides the viewport.
type cellBox struct{ r rect }

func (b *cellBox) Size() (float64, float64) {
	return float64(b.r.w), float64(b.r.h * 2)
}

// termIndicator keeps a viewport's load status for the overlay.
type termIndicator struct {
	loading     bool
	read, total int64
	failed      error
}

func (t *termIndicator) SetLoading(l bool) { t.loading = l }

func (t *termIndicator) SetProgress(read, total int64) { t.read, t.total = read, total }

func (t *termIndicator) SetFailed(err error) { t.failed = err }

func (t *termIndicator) status() (string, render.Color) {
	switch {
	case t.failed != nil:
		return "✗ failed to load", colorError
	case t.loading && t.total > 0:
		return fmt.Sprintf("loading %d%%", t.read*100/t.total), colorAccent
	case t.loading:
		return "loading…", colorAccent
	}
	return "", colorText
}

type pane struct {
	viewport  *showcase.Viewport
	surface   *render.Pane
	box       *cellBox
	indicator *termIndicator
}

type viewGroup struct {
	group  *showcase.Group
	panes  []*pane
	sample int
}

// viewer is the terminal front end. Everything but the event reader runs
// on the session's loop goroutine.
type viewer struct {
	screen  *screen
	session *showcase.Session
	groups  []*viewGroup
	active  int
	quit    context.CancelFunc

	dragging bool
	button   uv.MouseButton
	last     math3d.Vec2
	hover    *showcase.Viewport
}

func runView(cfg *config.Config, fsys fs.FS, groupName string, watch bool) error {
	scr, err := openScreen()
	if err != nil {
		return err
	}
	defer scr.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	s := showcase.NewSession(cfg, fsys)
	v := &viewer{screen: scr, session: s, quit: cancel}
	for i := range cfg.Groups {
		if vg := v.addGroup(&cfg.Groups[i]); vg != nil && cfg.Groups[i].Name == groupName {
			v.active = len(v.groups) - 1
		}
	}
	if len(v.groups) == 0 {
		return fmt.Errorf("no viewable groups")
	}
	v.layout()
	for _, vg := range v.groups {
		g := vg.group
		g.OnMethodChanged(g.Config.DefaultMethod)
		if g.Config.DefaultSample != "" {
			g.OnSampleChanged(g.Config.DefaultSample)
		}
	}

	if watch {
		stop, err := watchAssets(s, cfg)
		if err != nil {
			return err
		}
		defer stop()
	}

	s.AfterTick(v.present)
	h := s.Start()
	go func() {
		for ev := range scr.events() {
			s.Post(func() { v.handle(ev) })
		}
	}()
	<-ctx.Done()
	h.Stop()
	return nil
}

func (v *viewer) addGroup(cfg *config.Group) *viewGroup {
	slots := make(map[showcase.Role]showcase.Slot)
	panes := make(map[showcase.Role]*pane)
	for _, name := range cfg.Roles {
		role := showcase.Role(name)
		style := render.DefaultStyle()
		style.DoubleSided = cfg.DoubleSided
		p := &pane{surface: render.NewPane(1, 1, style), box: &cellBox{}, indicator: &termIndicator{}}
		panes[role] = p
		slots[role] = showcase.Slot{Surface: p.surface, Container: p.box, Indicator: p.indicator}
	}
	g := v.session.AddGroup(cfg, slots)
	if g == nil {
		return nil
	}
	vg := &viewGroup{group: g}
	for _, vp := range g.Viewports() {
		p := panes[vp.Role]
		p.viewport = vp
		vg.panes = append(vg.panes, p)
	}
	for i, id := range cfg.Samples {
		if id == cfg.DefaultSample {
			vg.sample = i
		}
	}
	v.groups = append(v.groups, vg)
	return vg
}

// layout tiles the active group's panes between the header and footer
// rows. Other groups get zero boxes and are not drawn.
func (v *viewer) layout() {
	for i, vg := range v.groups {
		if i != v.active {
			for _, p := range vg.panes {
				p.box.r = rect{}
			}
			continue
		}
		n := len(vg.panes)
		cols := min(n, 3)
		rows := (n + cols - 1) / cols
		areaH := max(v.screen.height-2, 0)
		cw, ch := v.screen.width/cols, areaH/rows
		for j, p := range vg.panes {
			p.box.r = rect{x: (j % cols) * cw, y: 1 + (j/cols)*ch, w: cw, h: ch}
		}
	}
}

func (v *viewer) current() *viewGroup {
	return v.groups[v.active]
}

func cellPoint(x, y int) math3d.Vec2 {
	return math3d.V2(float64(x), float64(y))
}

func (v *viewer) paneAt(x, y int) *pane {
	for _, p := range v.current().panes {
		if p.box.r.contains(x, y) {
			return p
		}
	}
	return nil
}

func (v *viewer) handle(ev uv.Event) {
	vg := v.current()
	g := vg.group
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		v.screen.resize(ev.Width, ev.Height)
		v.layout()

	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("q", "escape", "ctrl+c"):
			v.quit()
		case ev.MatchString("n", "right"):
			v.stepSample(1)
		case ev.MatchString("p", "left"):
			v.stepSample(-1)
		case ev.MatchString("tab"):
			v.active = (v.active + 1) % len(v.groups)
			v.dragging = false
			v.screen.term.Erase()
			v.layout()
		case ev.MatchString("r"):
			g.Reload()
		case ev.MatchString("1", "2", "3", "4", "5", "6", "7", "8", "9"):
			i, _ := strconv.Atoi(ev.Text)
			if methods := g.Config.Methods; i >= 1 && i <= len(methods) {
				g.OnMethodChanged(methods[i-1])
			}
		}

	case uv.MouseClickEvent:
		p := v.paneAt(ev.X, ev.Y)
		if p == nil {
			return
		}
		g.PointerDown(p.viewport)
		g.ActiveControls().Begin()
		v.dragging, v.button = true, ev.Button
		v.last = cellPoint(ev.X, ev.Y)

	case uv.MouseReleaseEvent:
		v.dragging = false

	case uv.MouseMotionEvent:
		if p := v.paneAt(ev.X, ev.Y); p != nil && p.viewport != v.hover && !v.dragging {
			v.hover = p.viewport
			g.PointerEnter(p.viewport)
		}
		if !v.dragging {
			return
		}
		cell := cellPoint(ev.X, ev.Y)
		d := cell.Sub(v.last)
		if d.Len() == 0 {
			return
		}
		v.last = cell
		ctl := g.ActiveControls()
		if v.button == uv.MouseRight {
			d = d.Scale(1 / float64(max(v.screen.height-2, 1)))
			ctl.Pan(d.X, d.Y)
		} else {
			d = d.Scale(dragSpeed)
			ctl.Rotate(d.X, d.Y)
		}

	case uv.MouseWheelEvent:
		p := v.paneAt(ev.X, ev.Y)
		if p == nil {
			return
		}
		g.PointerEnter(p.viewport)
		ctl := g.ActiveControls()
		ctl.Begin()
		switch ev.Button {
		case uv.MouseWheelUp:
			ctl.Zoom(1)
		case uv.MouseWheelDown:
			ctl.Zoom(-1)
		}
	}
}

func (v *viewer) stepSample(delta int) {
	vg := v.current()
	samples := vg.group.Config.Samples
	if len(samples) == 0 {
		return
	}
	vg.sample = (vg.sample + delta + len(samples)) % len(samples)
	vg.group.OnSampleChanged(samples[vg.sample])
}

// present copies the active group's panes to the terminal after each tick.
func (v *viewer) present() {
	scr := v.screen
	vg := v.current()
	g := vg.group

	scr.fill(0, colorHeader)
	header := fmt.Sprintf(" %s  sample %d/%d: %s  method: %s",
		g.Name(), vg.sample+1, len(g.Config.Samples), g.CurrentSample(), g.CurrentMethod())
	scr.text(0, 0, scr.width, header, colorText, colorHeader)

	for _, p := range vg.panes {
		r := p.box.r
		if r.w <= 0 || r.h <= 0 {
			continue
		}
		scr.blit(p.surface.Framebuffer(), r)
		label := string(p.viewport.Role)
		if m := p.viewport.Wanted().Method; m != "" && m != string(p.viewport.Role) {
			label += " · " + m
		}
		scr.text(r.x+1, r.y, r.w-2, label, colorText, p.surface.Style.Background)
		if status, c := p.indicator.status(); status != "" {
			scr.text(r.x+1, r.y+r.h-1, r.w-2, status, c, p.surface.Style.Background)
		}
	}

	footer := " n/p sample  1-9 method  tab group  drag orbit  wheel zoom  q quit"
	if !g.AutoRotating() {
		footer += "  (auto-rotate off)"
	}
	scr.fill(scr.height-1, colorHeader)
	scr.text(0, scr.height-1, scr.width, footer, colorDim, colorHeader)

	if err := scr.display(); err != nil {
		log.Errf("display: %v", err)
	}
}
