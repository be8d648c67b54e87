package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreSetGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, found, err := s.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("Get = (%v, %v), want found", found, err)
	}
	if string(got) != "v" {
		t.Errorf("value = %q, want v", got)
	}
}

func TestMemoryStoreMiss(t *testing.T) {
	s := NewMemoryStore()

	_, found, err := s.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("absent key reported as found")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	if err := s.Set(ctx, "k", []byte("v"), 300*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}

	now = now.Add(299 * time.Second)
	if _, found, _ := s.Get(ctx, "k"); !found {
		t.Error("entry expired before its TTL")
	}

	now = now.Add(2 * time.Second)
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Error("entry survived past its TTL")
	}
}

func TestMemoryStoreReplaceRenewsTTL(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	s.Set(ctx, "k", []byte("old"), 300*time.Second)

	now = now.Add(200 * time.Second)
	s.Set(ctx, "k", []byte("new"), 300*time.Second)

	now = now.Add(200 * time.Second)
	got, found, _ := s.Get(ctx, "k")
	if !found {
		t.Fatal("replaced entry expired on the old schedule")
	}
	if string(got) != "new" {
		t.Errorf("value = %q, want new", got)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Set(ctx, "k", []byte("v"), time.Minute)
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Error("deleted key reported as found")
	}
}
