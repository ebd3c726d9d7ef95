package watcher

import (
	"sync"
	"time"
)

// batcher coalesces events per path over a debounce window. A burst of
// writes to the same file collapses into the latest event; the batch is
// handed off once the window elapses or the batch cap is hit.
type batcher struct {
	mu      sync.Mutex
	pending map[string]Event
	timer   *time.Timer
	window  time.Duration
	limit   int
	emit    func([]Event)
}

func newBatcher(window time.Duration, limit int, emit func([]Event)) *batcher {
	return &batcher{
		pending: make(map[string]Event),
		window:  window,
		limit:   limit,
		emit:    emit,
	}
}

func (b *batcher) add(ev Event) {
	b.mu.Lock()
	b.pending[ev.Path] = ev

	if len(b.pending) >= b.limit {
		b.flushLocked()
		return
	}

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.window, b.flush)
	b.mu.Unlock()
}

func (b *batcher) flush() {
	b.mu.Lock()
	b.flushLocked()
}

// flushLocked expects b.mu held and releases it before emitting, so the
// callback may call back into the batcher.
func (b *batcher) flushLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}

	batch := make([]Event, 0, len(b.pending))
	for _, ev := range b.pending {
		batch = append(batch, ev)
	}
	b.pending = make(map[string]Event, b.limit)
	b.mu.Unlock()

	b.emit(batch)
}

// stop flushes anything still pending.
func (b *batcher) stop() {
	b.flush()
}
