package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smritilabs/chatbot-backend/internal/core"
)

func newMemoryStore(t *testing.T, capacity int) Store {
	t.Helper()
	store, err := NewStore(DriverMemory, WithCapacity(capacity))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := newMemoryStore(t, 10)
	ctx := context.Background()

	sess := &ChatSession{ID: "s1", UserID: 7, Persona: core.Persona{Name: "Alex"}}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sess.Version != 1 {
		t.Errorf("Version after create = %d, want 1", sess.Version)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.UserID != 7 || got.Persona.Name != "Alex" {
		t.Errorf("unexpected session: %+v", got)
	}
}

func TestMemoryStore_GetUnknownReturnsNil(t *testing.T) {
	store := newMemoryStore(t, 10)

	got, err := store.Get(context.Background(), "missing")
	if err != nil || got != nil {
		t.Errorf("Get(missing) = (%+v, %v), want (nil, nil)", got, err)
	}
}

func TestMemoryStore_UpdateBumpsVersion(t *testing.T) {
	store := newMemoryStore(t, 10)
	ctx := context.Background()

	sess := &ChatSession{ID: "s1"}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	sess.Context = core.ContextState{Context: "ctx", Remaining: 5}
	if err := store.Update(ctx, sess); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if sess.Version != 2 {
		t.Errorf("Version after update = %d, want 2", sess.Version)
	}

	got, _ := store.Get(ctx, "s1")
	if got.Context.Remaining != 5 {
		t.Errorf("update not persisted: %+v", got.Context)
	}
}

func TestMemoryStore_UpdateConflict(t *testing.T) {
	store := newMemoryStore(t, 10)
	ctx := context.Background()

	sess := &ChatSession{ID: "s1"}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	stale := *sess
	if err := store.Update(ctx, sess); err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	if err := store.Update(ctx, &stale); !errors.Is(err, ErrConflict) {
		t.Errorf("stale update = %v, want ErrConflict", err)
	}
}

func TestMemoryStore_UpdateMissing(t *testing.T) {
	store := newMemoryStore(t, 10)

	err := store.Update(context.Background(), &ChatSession{ID: "ghost", Version: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_CapacityEvictsOldest(t *testing.T) {
	store := newMemoryStore(t, 2)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := store.Create(ctx, &ChatSession{ID: id}); err != nil {
			t.Fatalf("Create(%s) failed: %v", id, err)
		}
		time.Sleep(2 * time.Millisecond) // distinct UpdatedAt for eviction order
	}

	if err := store.Create(ctx, &ChatSession{ID: "c"}); err != nil {
		t.Fatalf("Create(c) failed: %v", err)
	}

	if got, _ := store.Get(ctx, "a"); got != nil {
		t.Error("oldest session should have been evicted")
	}
	for _, id := range []string{"b", "c"} {
		if got, _ := store.Get(ctx, id); got == nil {
			t.Errorf("session %s should have survived eviction", id)
		}
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := newMemoryStore(t, 10)
	ctx := context.Background()

	if err := store.Create(ctx, &ChatSession{ID: "s1"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got, _ := store.Get(ctx, "s1"); got != nil {
		t.Error("session still present after delete")
	}
}

func TestNewStore_InvalidConfig(t *testing.T) {
	if _, err := NewStore(DriverRedis); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("redis driver without client = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewStore(Driver("bogus")); !errors.Is(err, ErrInvalidDriver) {
		t.Errorf("bogus driver = %v, want ErrInvalidDriver", err)
	}
	if _, err := NewStore(DriverMemory, WithCapacity(0)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero capacity = %v, want ErrInvalidConfig", err)
	}
}
