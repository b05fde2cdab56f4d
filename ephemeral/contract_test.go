package ephemeral

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type storeHarness struct {
	store   Store
	advance func(time.Duration)
}

func runStoreContract(t *testing.T, newHarness func(t *testing.T) storeHarness) {
	t.Run("SetGetExpire", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		if err := h.store.SetWithTTL(ctx, "k", []byte("v1"), 10*time.Second); err != nil {
			t.Fatalf("SetWithTTL: %v", err)
		}
		got, ok, err := h.store.Get(ctx, "k")
		if err != nil || !ok || string(got) != "v1" {
			t.Fatalf("Get = %q, %v, %v", got, ok, err)
		}

		h.advance(9 * time.Second)
		if _, ok, _ := h.store.Get(ctx, "k"); !ok {
			t.Fatal("expected key to be live before its ttl")
		}

		h.advance(2 * time.Second)
		if _, ok, err := h.store.Get(ctx, "k"); ok || err != nil {
			t.Fatalf("expected key to expire, ok=%v err=%v", ok, err)
		}
	})

	t.Run("SetOverwrites", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		_ = h.store.SetWithTTL(ctx, "k", []byte("old"), time.Minute)
		_ = h.store.SetWithTTL(ctx, "k", []byte("new"), time.Minute)
		got, _, _ := h.store.Get(ctx, "k")
		if string(got) != "new" {
			t.Fatalf("expected overwrite, got %q", got)
		}
	})

	t.Run("FetchAndDeleteSingleWinner", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		if err := h.store.SetWithTTL(ctx, "once", []byte("x"), time.Minute); err != nil {
			t.Fatalf("SetWithTTL: %v", err)
		}

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, ok, err := h.store.FetchAndDelete(ctx, "once"); err == nil && ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		if wins.Load() != 1 {
			t.Fatalf("expected exactly one fetch to win, got %d", wins.Load())
		}
		if _, ok, _ := h.store.Get(ctx, "once"); ok {
			t.Fatal("expected key to be gone after fetch-and-delete")
		}
	})

	t.Run("DeleteIfEqual", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		_ = h.store.SetWithTTL(ctx, "c", []byte("current"), time.Minute)

		deleted, err := h.store.DeleteIfEqual(ctx, "c", []byte("stale"))
		if err != nil || deleted {
			t.Fatalf("expected mismatch to keep key, deleted=%v err=%v", deleted, err)
		}
		if _, ok, _ := h.store.Get(ctx, "c"); !ok {
			t.Fatal("expected key to survive mismatched delete")
		}

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ok, err := h.store.DeleteIfEqual(ctx, "c", []byte("current")); err == nil && ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		if wins.Load() != 1 {
			t.Fatalf("expected one matching delete to win, got %d", wins.Load())
		}
	})

	t.Run("IncrementFixedWindow", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		for want := int64(1); want <= 3; want++ {
			n, err := h.store.Increment(ctx, "ctr", 10*time.Second)
			if err != nil || n != want {
				t.Fatalf("Increment = %d, %v; want %d", n, err, want)
			}
			h.advance(3 * time.Second)
		}

		// 9s elapsed; later hits did not extend the window.
		h.advance(2 * time.Second)
		n, err := h.store.Increment(ctx, "ctr", 10*time.Second)
		if err != nil || n != 1 {
			t.Fatalf("expected a fresh window after expiry, got %d, %v", n, err)
		}
	})

	t.Run("TTL", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		if _, ok, err := h.store.TTL(ctx, "missing"); ok || err != nil {
			t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
		}
		_ = h.store.SetWithTTL(ctx, "t", []byte("v"), time.Minute)
		h.advance(20 * time.Second)
		remaining, ok, err := h.store.TTL(ctx, "t")
		if err != nil || !ok {
			t.Fatalf("TTL: ok=%v err=%v", ok, err)
		}
		if remaining <= 0 || remaining > 40*time.Second {
			t.Fatalf("unexpected remaining ttl %v", remaining)
		}
	})
}
