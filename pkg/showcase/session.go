package showcase

import (
	"context"
	"io/fs"
	"sync"

	"fortio.org/log"

	"github.com/taigrr/trophycase/pkg/config"
)

// Session owns the registry, the groups and the event queue feeding the
// loop goroutine.
type Session struct {
	registry *Registry
	loader   *Loader
	groups   []*Group
	fps      int
	ratio    float64

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queue  []func()
	notify chan struct{}

	pending int // Loads started and not yet completed
	closed  bool
	after   []func()
}

// NewSession creates a session reading assets from fsys (the data root).
func NewSession(cfg *config.Config, fsys fs.FS) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	ratio := cfg.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	return &Session{
		registry: NewRegistry(),
		loader:   NewLoader(fsys),
		fps:      max(cfg.FPS, 1),
		ratio:    ratio,
		ctx:      ctx,
		cancel:   cancel,
		notify:   make(chan struct{}, 1),
	}
}

// AddGroup creates a group from cfg with the front end's surfaces. It
// returns nil if the ground-truth slot is missing.
func (s *Session) AddGroup(cfg *config.Group, slots map[Role]Slot) *Group {
	g := newGroup(s, cfg, slots)
	if g != nil {
		s.groups = append(s.groups, g)
	}
	return g
}

// Groups returns the session's groups.
func (s *Session) Groups() []*Group { return s.groups }

// Registry returns the canonical transform registry.
func (s *Session) Registry() *Registry { return s.registry }

// Loader returns the asset loader.
func (s *Session) Loader() *Loader { return s.loader }

// FPS returns the tick rate.
func (s *Session) FPS() int { return s.fps }

// AfterTick registers fn to run on the loop goroutine after every tick,
// once all viewports are drawn.
func (s *Session) AfterTick(fn func()) {
	s.after = append(s.after, fn)
}

// Post queues fn to run on the loop goroutine. Safe from any goroutine.
func (s *Session) Post(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Drain runs queued events on the calling goroutine, which must be the
// loop goroutine. It returns how many ran.
func (s *Session) Drain() int {
	n := 0
	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()
		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			fn()
		}
		n += len(batch)
	}
}

// Pending returns the number of loads in flight.
func (s *Session) Pending() int { return s.pending }

// Settle processes events until no load is in flight. It must be called
// from the loop goroutine (or with no loop running).
func (s *Session) Settle(ctx context.Context) error {
	for {
		s.Drain()
		if s.pending == 0 {
			return nil
		}
		select {
		case <-s.notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Tick runs queued events, then advances and draws every group once.
func (s *Session) Tick() {
	s.Drain()
	if s.closed {
		return
	}
	for _, g := range s.groups {
		g.tick(s.ratio)
	}
	for _, fn := range s.after {
		fn()
	}
}

// Teardown cancels in-flight loads and releases every viewport's object.
// Completions arriving later are discarded.
func (s *Session) Teardown() {
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	for _, g := range s.groups {
		g.teardown()
	}
	log.LogVf("session torn down, %d loads abandoned", s.pending)
}
