package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// newTestMemory returns a cache with no sweeper and a controllable clock.
func newTestMemory() (*Memory, *time.Time) {
	m := NewMemory(0)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestMemory_GetOrLoad_HitSkipsLoader(t *testing.T) {
	t.Parallel()

	m, _ := newTestMemory()
	ctx := context.Background()

	var calls int32
	loader := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return true, nil
	}

	for i := 0; i < 3; i++ {
		v, err := m.GetOrLoad(ctx, "premium:carrier@example.com", 30*time.Second, loader)
		if err != nil {
			t.Fatalf("GetOrLoad failed: %v", err)
		}
		if v != true {
			t.Errorf("GetOrLoad() = %v, want true", v)
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("loader called %d times, want 1", got)
	}
}

func TestMemory_GetOrLoad_ExpiryForcesReload(t *testing.T) {
	t.Parallel()

	m, now := newTestMemory()
	ctx := context.Background()

	var calls int32
	loader := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "value", nil
	}

	if _, err := m.GetOrLoad(ctx, "k", 30*time.Second, loader); err != nil {
		t.Fatalf("GetOrLoad failed: %v", err)
	}

	// An entry is never valid at its expiry instant.
	*now = now.Add(30 * time.Second)
	if _, err := m.GetOrLoad(ctx, "k", 30*time.Second, loader); err != nil {
		t.Fatalf("GetOrLoad failed: %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("loader called %d times after expiry, want 2", got)
	}
}

func TestMemory_GetOrLoad_LoaderErrorNotCached(t *testing.T) {
	t.Parallel()

	m, _ := newTestMemory()
	ctx := context.Background()

	wantErr := errors.New("store unavailable")
	var calls int32
	loader := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, wantErr
	}

	for i := 0; i < 2; i++ {
		_, err := m.GetOrLoad(ctx, "k", time.Minute, loader)
		if !errors.Is(err, wantErr) {
			t.Fatalf("GetOrLoad error = %v, want %v", err, wantErr)
		}
	}

	// No negative caching: every failed read retries the loader.
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("loader called %d times, want 2", got)
	}
	if m.Len() != 0 {
		t.Errorf("cache holds %d entries after loader failures, want 0", m.Len())
	}
}

func TestMemory_Invalidate(t *testing.T) {
	t.Parallel()

	m, _ := newTestMemory()
	ctx := context.Background()

	var calls int32
	loader := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return atomic.LoadInt32(&calls), nil
	}

	if _, err := m.GetOrLoad(ctx, "k", time.Minute, loader); err != nil {
		t.Fatalf("GetOrLoad failed: %v", err)
	}

	m.Invalidate("k")

	v, err := m.GetOrLoad(ctx, "k", time.Minute, loader)
	if err != nil {
		t.Fatalf("GetOrLoad failed: %v", err)
	}
	if v != int32(2) {
		t.Errorf("GetOrLoad() after invalidation = %v, want fresh load", v)
	}

	// Invalidating an absent key is a no-op.
	m.Invalidate("missing")
}

func TestMemory_Clear(t *testing.T) {
	t.Parallel()

	m, _ := newTestMemory()
	ctx := context.Background()

	loader := func(ctx context.Context) (any, error) { return 1, nil }
	for _, key := range []string{"a", "b", "c"} {
		if _, err := m.GetOrLoad(ctx, key, time.Minute, loader); err != nil {
			t.Fatalf("GetOrLoad failed: %v", err)
		}
	}

	m.Clear()

	if m.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", m.Len())
	}
}

func TestMemory_Sweep_DeletesOnlyExpired(t *testing.T) {
	t.Parallel()

	m, now := newTestMemory()
	ctx := context.Background()

	loader := func(ctx context.Context) (any, error) { return 1, nil }
	if _, err := m.GetOrLoad(ctx, "short", 10*time.Second, loader); err != nil {
		t.Fatalf("GetOrLoad failed: %v", err)
	}
	if _, err := m.GetOrLoad(ctx, "long", 10*time.Minute, loader); err != nil {
		t.Fatalf("GetOrLoad failed: %v", err)
	}

	*now = now.Add(30 * time.Second)
	m.sweep()

	if m.Len() != 1 {
		t.Errorf("Len() after sweep = %d, want 1", m.Len())
	}

	var calls int32
	counting := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return 2, nil
	}
	if _, err := m.GetOrLoad(ctx, "long", time.Minute, counting); err != nil {
		t.Fatalf("GetOrLoad failed: %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("sweep deleted an unexpired entry")
	}
}

func TestMemory_SweeperStopsOnClose(t *testing.T) {
	t.Parallel()

	m := NewMemory(time.Millisecond)

	done := make(chan struct{})
	go func() {
		m.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not stop the sweeper")
	}

	// Close is idempotent.
	m.Close()
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	m := NewMemory(time.Millisecond)
	defer m.Close()
	ctx := context.Background()

	loader := func(ctx context.Context) (any, error) { return true, nil }

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			keys := []string{"premium:a@x.com", "premium:b@x.com", "premium:c@x.com"}
			for j := 0; j < 200; j++ {
				key := keys[j%len(keys)]
				switch n % 3 {
				case 0:
					if _, err := m.GetOrLoad(ctx, key, time.Millisecond, loader); err != nil {
						t.Errorf("GetOrLoad failed: %v", err)
						return
					}
				case 1:
					m.Invalidate(key)
				default:
					m.Len()
				}
			}
		}(i)
	}
	wg.Wait()
}
