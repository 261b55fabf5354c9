package main

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fortio.org/log"
	"github.com/fsnotify/fsnotify"

	"github.com/taigrr/trophycase/pkg/config"
	"github.com/taigrr/trophycase/pkg/showcase"
)

// Writes usually arrive in bursts; reload once they stop.
const reloadDelay = 250 * time.Millisecond

// watchAssets reloads a group's current sample when one of its files under
// the data root changes. Canonical transforms are kept. The returned func
// stops watching.
func watchAssets(s *showcase.Session, cfg *config.Config) (func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dirs := make(map[string]string) // watched dir -> dataset dir
	for _, g := range cfg.Groups {
		dir := filepath.Join(cfg.DataRoot, g.DatasetDir)
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := w.Add(dir); err != nil {
			log.Warnf("watch %s: %v", dir, err)
			continue
		}
		dirs[dir] = g.DatasetDir
	}

	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
	)
	reload := func(dataset, file string) {
		s.Post(func() {
			for _, g := range s.Groups() {
				if g.Config.DatasetDir == dataset && g.CurrentSample() != "" &&
					strings.HasPrefix(file, g.CurrentSample()+"_") {
					log.Infof("%s changed, reloading %s", file, g.Name())
					g.Reload()
				}
			}
		})
	}

	var wg sync.WaitGroup
	wg.Go(func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				dataset, ok := dirs[filepath.Dir(ev.Name)]
				if !ok {
					continue
				}
				file := filepath.Base(ev.Name)
				mu.Lock()
				if t, ok := timers[ev.Name]; ok {
					t.Stop()
				}
				timers[ev.Name] = time.AfterFunc(reloadDelay, func() { reload(dataset, file) })
				mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warnf("watch: %v", err)
			}
		}
	})
	return func() {
		w.Close()
		wg.Wait()
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}, nil
}
