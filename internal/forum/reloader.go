package forum

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Reloader keeps the current snapshot and coalesces reload pressure two
// ways: change notifications are debounced (last trigger wins), and
// concurrent readers of a stale snapshot share one in-flight load instead of
// stacking queries. There is no force-unlock timeout; a hung load is bounded
// by its context, not by a guard.
type Reloader struct {
	load     func(ctx context.Context) (*Snapshot, error)
	debounce time.Duration

	group singleflight.Group

	mu      sync.Mutex
	current *Snapshot
	timer   *time.Timer
}

func NewReloader(load func(ctx context.Context) (*Snapshot, error), debounce time.Duration) *Reloader {
	return &Reloader{load: load, debounce: debounce}
}

// Snapshot returns the cached snapshot, loading it first if none exists.
func (r *Reloader) Snapshot(ctx context.Context) (*Snapshot, error) {
	r.mu.Lock()
	cur := r.current
	r.mu.Unlock()
	if cur != nil {
		return cur, nil
	}
	return r.Reload(ctx)
}

// Reload loads a fresh snapshot. Concurrent callers share a single load.
func (r *Reloader) Reload(ctx context.Context) (*Snapshot, error) {
	v, err, _ := r.group.Do("snapshot", func() (interface{}, error) {
		snap, err := r.load(ctx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.current = snap
		r.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate schedules a reload after the debounce window. Repeated calls
// within the window reset the timer, so a burst of change events produces
// one reload.
func (r *Reloader) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := r.Reload(ctx); err != nil {
			slog.Error("snapshot reload failed", "error", err)
		}
	})
}
