package pot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tarpitd/internal/generator"
)

func newTestPot(t *testing.T, cfg Config) *Pot {
	t.Helper()
	if cfg.Kind == "" {
		cfg.Kind = generator.KindRandom
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 1024
	}
	store, err := generator.NewStore(cfg.Kind, "")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return New(cfg, store, zerolog.Nop())
}

// countWriter records write sizes and can fail or block on demand.
type countWriter struct {
	mu     sync.Mutex
	sizes  []int
	total  int64
	failAt int           // fail the nth write (1-based), 0 = never
	onN    int           // calls so far
	hook   func(n int)   // called after each successful write
}

var errPipeBroken = errors.New("broken pipe")

func (w *countWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onN++
	if w.failAt > 0 && w.onN >= w.failAt {
		return 0, errPipeBroken
	}
	w.sizes = append(w.sizes, len(p))
	w.total += int64(len(p))
	if w.hook != nil {
		w.hook(w.onN)
	}
	return len(p), nil
}

func (w *countWriter) Total() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.total
}

func (w *countWriter) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.sizes)
}

func TestAcquireBound(t *testing.T) {
	for _, limit := range []int{1, 2, 5, 16} {
		p := newTestPot(t, Config{MaxConcurrent: limit})
		releases := make([]func(), 0, limit)
		for i := 0; i < limit; i++ {
			release, ok := p.acquire()
			if !ok {
				t.Fatalf("limit %d: acquire %d rejected", limit, i)
			}
			releases = append(releases, release)
		}
		if _, ok := p.acquire(); ok {
			t.Fatalf("limit %d: acquire beyond bound succeeded", limit)
		}
		if got := p.Active(); got != limit {
			t.Fatalf("limit %d: active=%d", limit, got)
		}
		for _, r := range releases {
			r()
		}
		if got := p.Active(); got != 0 {
			t.Fatalf("limit %d: active=%d after release", limit, got)
		}
	}
}

func TestAcquireUnlimited(t *testing.T) {
	p := newTestPot(t, Config{MaxConcurrent: 0})
	for i := 0; i < 100; i++ {
		if _, ok := p.acquire(); !ok {
			t.Fatalf("unlimited pot rejected acquire %d", i)
		}
	}
}

func TestReleaseIdempotent(t *testing.T) {
	p := newTestPot(t, Config{MaxConcurrent: 1})
	release, ok := p.acquire()
	if !ok {
		t.Fatal("acquire rejected")
	}
	release()
	release()
	release()
	// The slot must have been given back exactly once: one acquire works,
	// a second does not.
	r2, ok := p.acquire()
	if !ok {
		t.Fatal("acquire after release rejected")
	}
	defer r2()
	if _, ok := p.acquire(); ok {
		t.Fatal("double release freed a phantom slot")
	}
}

func TestStreamSizeOvershootBound(t *testing.T) {
	const (
		sizeLimit = 100000
		chunkSize = 16384
	)
	p := newTestPot(t, Config{ChunkSize: chunkSize, SizeLimit: sizeLimit})
	w := &countWriter{}
	if err := p.Stream(context.Background(), w, nil); err != nil {
		t.Fatalf("stream: %v", err)
	}
	total := w.Total()
	if total < sizeLimit {
		t.Fatalf("sent %d bytes, below the %d limit", total, sizeLimit)
	}
	if total >= sizeLimit+chunkSize {
		t.Fatalf("sent %d bytes, a full chunk or more past the %d limit", total, sizeLimit)
	}
	if got := p.Active(); got != 0 {
		t.Fatalf("active=%d after session end", got)
	}
}

func TestStreamTimeLimit(t *testing.T) {
	p := newTestPot(t, Config{ChunkSize: 64, TimeLimit: 50 * time.Millisecond})
	w := &countWriter{}
	start := time.Now()
	if err := p.Stream(context.Background(), w, nil); err != nil {
		t.Fatalf("stream: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("session ran %s past a 50ms limit", elapsed)
	}
	if w.Writes() == 0 {
		t.Fatal("no chunks written before the time limit")
	}
	if got := p.Active(); got != 0 {
		t.Fatalf("active=%d after session end", got)
	}
}

func TestStreamTransportError(t *testing.T) {
	p := newTestPot(t, Config{ChunkSize: 64})
	w := &countWriter{failAt: 3}
	err := p.Stream(context.Background(), w, nil)
	if err == nil || !IsTransport(err) {
		t.Fatalf("want transport error, got %v", err)
	}
	if !errors.Is(err, errPipeBroken) {
		t.Fatalf("transport error does not wrap the write failure: %v", err)
	}
	if got := p.Active(); got != 0 {
		t.Fatalf("active=%d after transport failure", got)
	}
}

func TestStreamDisconnectUnwindsWithinOneIteration(t *testing.T) {
	p := newTestPot(t, Config{ChunkSize: 64})
	ctx, cancel := context.WithCancel(context.Background())
	w := &countWriter{hook: func(n int) {
		if n == 5 {
			cancel()
		}
	}}
	if err := p.Stream(ctx, w, nil); err != nil {
		t.Fatalf("stream: %v", err)
	}
	// The cancel lands after write 5; the loop must notice before
	// generating another chunk.
	if got := w.Writes(); got != 5 {
		t.Fatalf("wrote %d chunks after disconnect at 5", got)
	}
	if got := p.Active(); got != 0 {
		t.Fatalf("active=%d after disconnect", got)
	}
}

func TestStreamBusyWritesNothing(t *testing.T) {
	p := newTestPot(t, Config{MaxConcurrent: 1, ChunkSize: 64})
	release, ok := p.acquire()
	if !ok {
		t.Fatal("setup acquire rejected")
	}
	defer release()
	w := &countWriter{}
	err := p.Stream(context.Background(), w, nil)
	if err == nil || !IsBusy(err) {
		t.Fatalf("want busy error, got %v", err)
	}
	if w.Writes() != 0 {
		t.Fatalf("rejected session still wrote %d chunks", w.Writes())
	}
}

func TestStreamStaticSingleWrite(t *testing.T) {
	content := strings.Repeat("d", 500)
	path := filepath.Join(t.TempDir(), "decoy.html")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write decoy: %v", err)
	}
	store, err := generator.NewStore(generator.KindStatic, path)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	p := New(Config{Kind: generator.KindStatic, ChunkSize: 50}, store, zerolog.Nop())
	w := &countWriter{}
	if err := p.Stream(context.Background(), w, nil); err != nil {
		t.Fatalf("stream: %v", err)
	}
	if w.Writes() != 1 || w.Total() != 500 {
		t.Fatalf("static session: %d writes, %d bytes; want 1 write of 500", w.Writes(), w.Total())
	}
	if got := p.Active(); got != 0 {
		t.Fatalf("active=%d after static session", got)
	}
}

func TestStreamPrefixOnFirstChunkOnly(t *testing.T) {
	const prefix = "<!DOCTYPE html>\n"
	p := newTestPot(t, Config{ChunkSize: 64, Prefix: prefix, SizeLimit: 200})
	w := &countWriter{}
	if err := p.Stream(context.Background(), w, nil); err != nil {
		t.Fatalf("stream: %v", err)
	}
	if len(w.sizes) < 2 {
		t.Fatalf("want at least 2 chunks, got %d", len(w.sizes))
	}
	if w.sizes[0] != 64+len(prefix) {
		t.Fatalf("first write %d bytes, want chunk+prefix %d", w.sizes[0], 64+len(prefix))
	}
	for i, n := range w.sizes[1:] {
		if n != 64 {
			t.Fatalf("write %d: %d bytes, want bare chunk 64", i+2, n)
		}
	}
}

// atomic64 tracks a running maximum across goroutines.
type atomic64 struct{ v atomic.Int64 }

func (a *atomic64) max(n int64) {
	for {
		cur := a.v.Load()
		if n <= cur || a.v.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (a *atomic64) load() int64 { return a.v.Load() }

func TestConcurrentSessionsNeverExceedBound(t *testing.T) {
	const limit = 4
	p := newTestPot(t, Config{MaxConcurrent: limit, ChunkSize: 64, SizeLimit: 4096})
	var wg sync.WaitGroup
	var maxSeen atomic64
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := &countWriter{hook: func(int) {
				maxSeen.max(int64(p.Active()))
			}}
			err := p.Stream(context.Background(), w, nil)
			if err != nil && !IsBusy(err) {
				t.Errorf("stream: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := maxSeen.load(); got > limit {
		t.Fatalf("observed %d concurrent sessions, bound is %d", got, limit)
	}
	if got := p.Active(); got != 0 {
		t.Fatalf("active=%d after all sessions ended", got)
	}
}
