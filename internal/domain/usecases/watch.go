package usecases

import (
	"context"
	"time"

	"github.com/0xcro3dile/linesearch-go/internal/domain/ports"
)

// DefaultSettleDelay is how long a dropped file must stay quiet before it is ingested.
const DefaultSettleDelay = 250 * time.Millisecond

// LoadFunc ingests one settled file from a watched folder.
type LoadFunc func(ctx context.Context, path string) error

// pendingFile is a path waiting to settle. gen changes whenever the path
// sees a new event, so a timer that fired before that event is ignored.
type pendingFile struct {
	timer *time.Timer
	gen   uint64
}

type settledFile struct {
	path string
	gen  uint64
}

// Watch ingests files created or written in dir until ctx is done or the
// watcher closes. A file is ingested once its events have settled, so a
// create followed by several writes yields one batch.
func (uc *IngestUseCase) Watch(ctx context.Context, watcher ports.FileWatcher, dir string, settle time.Duration) error {
	return uc.watch(ctx, watcher, dir, settle, func(ctx context.Context, path string) error {
		_, err := uc.IngestFile(ctx, path)
		return err
	})
}

func (uc *IngestUseCase) watch(ctx context.Context, watcher ports.FileWatcher, dir string, settle time.Duration, load LoadFunc) error {
	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		return err
	}
	if settle <= 0 {
		settle = DefaultSettleDelay
	}

	uc.logger.Info("watching drop folder", "dir", dir)

	var gen uint64
	pending := make(map[string]*pendingFile)
	ready := make(chan settledFile)
	done := make(chan struct{})
	defer func() {
		close(done)
		for _, p := range pending {
			p.timer.Stop()
		}
	}()

	schedule := func(path string) {
		gen++
		msg := settledFile{path: path, gen: gen}
		t := time.AfterFunc(settle, func() {
			select {
			case ready <- msg:
			case <-done:
			}
		})
		pending[path] = &pendingFile{timer: t, gen: gen}
	}

	handle := func(ev ports.FileEvent) {
		switch ev.Operation {
		case ports.FileCreated, ports.FileModified:
			if p, ok := pending[ev.Path]; ok {
				p.timer.Stop()
			}
			schedule(ev.Path)
		case ports.FileDeleted:
			if p, ok := pending[ev.Path]; ok {
				p.timer.Stop()
				delete(pending, ev.Path)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			handle(ev)
		case f := <-ready:
			// events queued before this delivery win: a write or delete
			// after the timer fired makes f stale
			for drained := false; !drained; {
				select {
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					handle(ev)
				default:
					drained = true
				}
			}
			p, ok := pending[f.path]
			if !ok || p.gen != f.gen {
				continue
			}
			delete(pending, f.path)
			if err := load(ctx, f.path); err != nil {
				uc.logger.Error("drop folder ingest failed", "path", f.path, "error", err)
			}
		}
	}
}
