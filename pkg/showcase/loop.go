package showcase

import (
	"sync"
	"time"

	"fortio.org/log"
)

// Handle controls a running loop.
type Handle struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Stop ends the loop and waits for teardown to finish.
func (h *Handle) Stop() {
	h.once.Do(func() { close(h.stop) })
	<-h.done
}

// Done is closed once the loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Start runs the loop on a new goroutine, ticking at the session's fps.
// Queued events run as they arrive, between ticks. The loop tears the
// session down when stopped; it never stops on its own.
func (s *Session) Start() *Handle {
	h := &Handle{stop: make(chan struct{}), done: make(chan struct{})}
	go s.run(h)
	return h
}

func (s *Session) run(h *Handle) {
	defer close(h.done)
	defer s.Teardown()

	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()
	log.Infof("render loop started at %d fps", s.fps)
	for {
		select {
		case <-h.stop:
			log.Infof("render loop stopped")
			return
		case <-s.notify:
			s.Drain()
		case <-ticker.C:
			s.Tick()
		}
	}
}
