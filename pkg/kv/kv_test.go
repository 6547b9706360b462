package kv

import (
	"context"
	"errors"
	"testing"
)

func TestKeyBuilders(t *testing.T) {
	t.Parallel()

	if got := CartKey("sess-1"); got != "mom:cart:sess-1" {
		t.Fatalf("unexpected cart key %q", got)
	}
	if got := ThemeKey("sess-1"); got != "mom:theme:sess-1" {
		t.Fatalf("unexpected theme key %q", got)
	}
	if got := PlaybackKey("sess-1"); got != "mom:playback:sess-1" {
		t.Fatalf("unexpected playback key %q", got)
	}
	if got := SessionChannel("sess-1"); got != "mom:events:sess-1" {
		t.Fatalf("unexpected channel name %q", got)
	}
	if got := CartKey(""); got != "mom:cart" {
		t.Fatalf("empty segments should be skipped, got %q", got)
	}
}

func TestMemoryMirrorRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := m.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("get returned (%q, %v)", got, err)
	}

	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// deleting an absent key is a no-op
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("repeat delete failed: %v", err)
	}
}

func TestMemoryBusFanOut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	first, cancelFirst, err := m.Subscribe(ctx, "chan", 4)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	second, cancelSecond, err := m.Subscribe(ctx, "chan", 4)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancelSecond()

	if err := m.Publish(ctx, "chan", "hello"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if got := <-first; got != "hello" {
		t.Fatalf("first subscriber got %q", got)
	}
	if got := <-second; got != "hello" {
		t.Fatalf("second subscriber got %q", got)
	}

	cancelFirst()
	if _, ok := <-first; ok {
		t.Fatal("canceled subscriber channel should be closed")
	}

	// publishing after one cancel still reaches the live subscriber
	if err := m.Publish(ctx, "chan", "again"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if got := <-second; got != "again" {
		t.Fatalf("second subscriber got %q after cancel of first", got)
	}
}

func TestMemoryBusDropsWhenFull(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	ch, cancel, err := m.Subscribe(ctx, "chan", 1)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	if err := m.Publish(ctx, "chan", "one"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := m.Publish(ctx, "chan", "two"); err != nil {
		t.Fatalf("publish should drop, not fail: %v", err)
	}

	if got := <-ch; got != "one" {
		t.Fatalf("expected first payload, got %q", got)
	}
	select {
	case extra := <-ch:
		t.Fatalf("expected second payload to be dropped, got %q", extra)
	default:
	}
}
