package snippets

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "snippets.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "greeting", "hello from the overlay")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created snippet has empty id")
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "greeting" || got.Body != "hello from the overlay" {
		t.Errorf("Get = %+v", got)
	}
	if got.LastUsedAt != nil {
		t.Error("new snippet already has last_used_at")
	}
}

func TestCreateValidation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "   ", "body"); err == nil {
		t.Error("blank title accepted")
	}
	if _, err := store.Create(ctx, "big", strings.Repeat("a", maxBodyBytes+1)); err == nil {
		t.Error("oversize body accepted")
	}
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Get(context.Background(), "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "draft", "v1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := store.Update(ctx, created.ID, "final", "v2")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "final" || updated.Body != "v2" {
		t.Errorf("Update = %+v", updated)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Error("updated_at went backwards")
	}

	if _, err := store.Update(ctx, "no-such-id", "x", "y"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update missing = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "temp", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestListOrdersByRecentUse(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// Deterministic clock so ordering does not depend on timer resolution.
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	first, err := store.Create(ctx, "first", "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Create(ctx, "second", "")
	if err != nil {
		t.Fatal(err)
	}
	third, err := store.Create(ctx, "third", "")
	if err != nil {
		t.Fatal(err)
	}

	// Use the oldest snippet; it should jump to the front. The never-used
	// ones follow, newest first.
	if err := store.Touch(ctx, first.ID); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List returned %d snippets, want 3", len(list))
	}
	if list[0].ID != first.ID {
		t.Errorf("list[0] = %s, want the touched snippet", list[0].Title)
	}
	if list[1].ID != third.ID || list[2].ID != second.ID {
		t.Errorf("unused order = %s, %s; want third, second", list[1].Title, list[2].Title)
	}
	if list[0].LastUsedAt == nil {
		t.Error("touched snippet has no last_used_at")
	}
}

func TestTouchMissing(t *testing.T) {
	store := openTestStore(t)
	if err := store.Touch(context.Background(), "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Touch missing = %v, want ErrNotFound", err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("Open with blank path succeeded")
	}
}
