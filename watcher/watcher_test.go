package watcher

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/wasmforge/forge/errors"
)

func wantKind(t *testing.T, err error, phase errors.Phase, kind errors.Kind) {
	t.Helper()
	var fe *errors.Error
	if !stderrors.As(err, &fe) {
		t.Fatalf("error %v (%T) is not *errors.Error", err, err)
	}
	if fe.Phase != phase || fe.Kind != kind {
		t.Fatalf("error = %v/%v, want %v/%v", fe.Phase, fe.Kind, phase, kind)
	}
}

func collectBatches(buf int) (func([]Event), <-chan []Event) {
	ch := make(chan []Event, buf)
	return func(batch []Event) { ch <- batch }, ch
}

func TestBatcherCoalesces(t *testing.T) {
	onBatch, batches := collectBatches(4)
	b := newBatcher(50*time.Millisecond, 100, onBatch)

	b.add(Event{Path: "a.go", Op: OpCreate, At: time.Now()})
	b.add(Event{Path: "a.go", Op: OpModify, At: time.Now()})
	b.add(Event{Path: "a.go", Op: OpModify, At: time.Now()})
	b.add(Event{Path: "b.go", Op: OpModify, At: time.Now()})

	select {
	case batch := <-batches:
		if len(batch) != 2 {
			t.Fatalf("batch = %v, want 2 coalesced events", batch)
		}
		paths := []string{batch[0].Path, batch[1].Path}
		sort.Strings(paths)
		if paths[0] != "a.go" || paths[1] != "b.go" {
			t.Fatalf("batch paths = %v", paths)
		}
		for _, ev := range batch {
			if ev.Path == "a.go" && ev.Op != OpModify {
				t.Fatalf("a.go op = %v, want latest event to win", ev.Op)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("batch never emitted")
	}
}

func TestBatcherMaxBatchFlushesImmediately(t *testing.T) {
	onBatch, batches := collectBatches(4)
	b := newBatcher(time.Hour, 3, onBatch)

	b.add(Event{Path: "a", Op: OpModify})
	b.add(Event{Path: "b", Op: OpModify})
	b.add(Event{Path: "c", Op: OpModify})

	select {
	case batch := <-batches:
		if len(batch) != 3 {
			t.Fatalf("batch size = %d, want 3", len(batch))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cap reached but no flush")
	}
}

func TestBatcherStopFlushesPending(t *testing.T) {
	onBatch, batches := collectBatches(4)
	b := newBatcher(time.Hour, 100, onBatch)

	b.add(Event{Path: "a", Op: OpDelete})
	b.add(Event{Path: "b", Op: OpCreate})
	b.stop()

	select {
	case batch := <-batches:
		if len(batch) != 2 {
			t.Fatalf("batch size = %d, want 2", len(batch))
		}
	case <-time.After(time.Second):
		t.Fatal("stop did not flush pending events")
	}

	b.stop()
	select {
	case batch := <-batches:
		t.Fatalf("unexpected second batch %v", batch)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBatcherReusableAfterFlush(t *testing.T) {
	onBatch, batches := collectBatches(4)
	b := newBatcher(20*time.Millisecond, 100, onBatch)

	b.add(Event{Path: "a", Op: OpModify})
	<-batches
	b.add(Event{Path: "b", Op: OpModify})

	select {
	case batch := <-batches:
		if len(batch) != 1 || batch[0].Path != "b" {
			t.Fatalf("second batch = %v", batch)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no batch after reuse")
	}
}

func TestOpString(t *testing.T) {
	cases := map[Op]string{
		OpCreate: "create",
		OpModify: "modify",
		OpDelete: "delete",
		OpRename: "rename",
		Op(99):   "unknown",
	}
	for op, want := range cases {
		if got := op.String(); got != want {
			t.Errorf("Op(%d).String() = %q, want %q", int(op), got, want)
		}
	}
}

func TestNewRequiresCallback(t *testing.T) {
	_, err := New(DefaultConfig(), nil, nil)
	wantKind(t, err, errors.PhaseWatch, errors.KindInvalidInput)
}

func TestWatchMissingRoot(t *testing.T) {
	w := newTestWatcher(t, DefaultConfig(), func([]Event) {})
	err := w.Watch(filepath.Join(t.TempDir(), "nope"))
	wantKind(t, err, errors.PhaseWatch, errors.KindIO)
}

func TestWatchFileRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t, DefaultConfig(), func([]Event) {})
	err := w.Watch(file)
	wantKind(t, err, errors.PhaseWatch, errors.KindInvalidInput)
}

func newTestWatcher(t *testing.T, cfg Config, onBatch func([]Event)) *Watcher {
	t.Helper()
	w, err := New(cfg, nil, onBatch)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

// waitForPath drains batches until one contains path or the deadline
// passes.
func waitForPath(t *testing.T, batches <-chan []Event, path string, timeout time.Duration) Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case batch := <-batches:
			for _, ev := range batch {
				if ev.Path == path {
					return ev
				}
			}
		case <-deadline:
			t.Fatalf("no event for %s within %v", path, timeout)
		}
	}
}

func TestWatcherSeesWrites(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Debounce = 50 * time.Millisecond

	onBatch, batches := collectBatches(16)
	w := newTestWatcher(t, cfg, onBatch)
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	target := filepath.Join(dir, "main.go")
	if err := os.WriteFile(target, []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ev := waitForPath(t, batches, target, 5*time.Second)
	if ev.Op != OpCreate && ev.Op != OpModify {
		t.Fatalf("op = %v, want create or modify", ev.Op)
	}
	if ev.At.IsZero() {
		t.Fatal("event timestamp not set")
	}
}

func TestWatcherIgnoresBuildOutputAndHidden(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"build", ".git"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	cfg := DefaultConfig()
	cfg.Debounce = 100 * time.Millisecond

	var mu sync.Mutex
	var seen []string
	w := newTestWatcher(t, cfg, func(batch []Event) {
		mu.Lock()
		for _, ev := range batch {
			seen = append(seen, ev.Path)
		}
		mu.Unlock()
	})
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	writes := map[string]string{
		filepath.Join(dir, "build", "mod.wasm"): "wasm",
		filepath.Join(dir, ".git", "HEAD"):      "ref",
		filepath.Join(dir, ".env"):              "secret",
		filepath.Join(dir, "out.wasm"):          "wasm",
		filepath.Join(dir, "lib.go"):            "package lib",
	}
	for path, content := range writes {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	want := filepath.Join(dir, "lib.go")
	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		got := append([]string(nil), seen...)
		mu.Unlock()

		found := false
		for _, p := range got {
			switch p {
			case want:
				found = true
			default:
				t.Fatalf("event for ignored path %s", p)
			}
		}
		if found {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("no event for %s", want)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWatcherPicksUpNewDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Debounce = 50 * time.Millisecond

	onBatch, batches := collectBatches(64)
	w := newTestWatcher(t, cfg, onBatch)
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	sub := filepath.Join(dir, "data")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	// The subdirectory watch registers asynchronously, so retry the
	// write until an event for it comes through.
	target := filepath.Join(sub, "sample.txt")
	deadline := time.Now().Add(5 * time.Second)
	for {
		if err := os.WriteFile(target, []byte("hi"), 0o644); err != nil {
			t.Fatal(err)
		}
		select {
		case batch := <-batches:
			for _, ev := range batch {
				if ev.Path == target {
					return
				}
			}
		case <-time.After(150 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			t.Fatalf("no event for %s in new directory", target)
		}
	}
}

func TestShouldIgnore(t *testing.T) {
	cfg := DefaultConfig()
	w := newTestWatcher(t, cfg, func([]Event) {})

	cases := []struct {
		path string
		want bool
	}{
		{"/p/app/main.go", false},
		{"/p/app/build/app.wasm", true},
		{"/p/app/out.wasm", true},
		{"/p/app/.git/HEAD", true},
		{"/p/app/.env", true},
		{"/p/app/main.go.swp", true},
		{"/p/app/main.go~", true},
		{"/p/app/data/sample.txt", false},
	}
	for _, tc := range cases {
		if got := w.shouldIgnore(tc.path); got != tc.want {
			t.Errorf("shouldIgnore(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}

	cfg.WatchHidden = true
	wh := newTestWatcher(t, cfg, func([]Event) {})
	if wh.shouldIgnore("/p/app/.env") {
		t.Error("hidden file ignored with WatchHidden set")
	}
	if !wh.shouldIgnore("/p/app/.git/HEAD") {
		t.Error(".git contents not ignored by pattern")
	}
}
