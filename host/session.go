package host

import (
	"context"
	"sync"

	"github.com/wasmforge/forge/errors"
)

// Session holds one extension that can be reloaded in place while
// callers keep using it. Calls and swaps are serialized, so a watcher
// goroutine and an interactive prompt can share it.
type Session struct {
	h   *Host
	src Source

	mu  sync.Mutex
	ext *Extension
	gen int
}

// NewSession prepares a reloadable session for src. Nothing is loaded
// until the first Reload.
func (h *Host) NewSession(src Source) *Session {
	return &Session{h: h, src: src}
}

// Reload loads the source fresh and swaps it in, closing the previous
// instance. On failure the previous instance stays active.
func (s *Session) Reload(ctx context.Context) error {
	ext, err := s.h.Load(ctx, s.src)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.ext
	s.ext = ext
	s.gen++
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// Generation counts successful reloads.
func (s *Session) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Name returns the loaded module's name, or "" before the first Reload.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ext == nil {
		return ""
	}
	return s.ext.Name()
}

// Exports lists the declared exports of the current instance.
func (s *Session) Exports() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ext == nil {
		return nil
	}
	return s.ext.Exports()
}

// Has reports whether the current instance exports name.
func (s *Session) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ext != nil && s.ext.Has(name)
}

// Call invokes a function on the current instance. The lock is held
// for the whole call; guest calls never overlap.
func (s *Session) Call(name string, input []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ext == nil {
		return nil, errors.InvalidInput(errors.PhaseCall, "session has no loaded extension")
	}
	return s.ext.Call(name, input)
}

// Close releases the current instance, if any.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ext == nil {
		return nil
	}
	err := s.ext.Close()
	s.ext = nil
	return err
}
