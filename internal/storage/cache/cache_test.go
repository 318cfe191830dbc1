package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/goodtune/silentspaces/internal/storage"
	"github.com/goodtune/silentspaces/internal/storage/memory"
)

// countingUsers records how often the backing store is consulted
type countingUsers struct {
	storage.UserStore
	gets  int
	finds int
}

func (c *countingUsers) Get(ctx context.Context, id int64) (*storage.User, error) {
	c.gets++
	return c.UserStore.Get(ctx, id)
}

func (c *countingUsers) FindByName(ctx context.Context, name string) (*storage.User, error) {
	c.finds++
	return c.UserStore.FindByName(ctx, name)
}

type countingStore struct {
	*memory.Store
	users *countingUsers
}

func (s *countingStore) Users() storage.UserStore { return s.users }

func setupCache(t *testing.T, size int) (*Store, *countingUsers) {
	t.Helper()

	mem := memory.New(nil)
	counting := &countingUsers{UserStore: mem.Users()}
	store, err := Wrap(&countingStore{Store: mem, users: counting}, size)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	return store, counting
}

func TestGetIsCached(t *testing.T) {
	store, counting := setupCache(t, 8)
	ctx := context.Background()

	alice, err := store.Users().Create(ctx, storage.NewUser{Name: "Alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 3; i++ {
		user, err := store.Users().Get(ctx, alice.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if user.Name != "Alice" {
			t.Errorf("expected Alice, got %q", user.Name)
		}
		*user.Email = "mutated@example.com"
	}

	if counting.gets != 0 {
		t.Errorf("expected no backing Get calls, got %d", counting.gets)
	}

	user, _ := store.Users().Get(ctx, alice.ID)
	if *user.Email != "alice@example.com" {
		t.Errorf("cache entry was mutated through a returned user: %q", *user.Email)
	}
}

func TestMissesAreNotCached(t *testing.T) {
	store, counting := setupCache(t, 8)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := store.Users().Get(ctx, 42); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := store.Users().FindByName(ctx, "Nobody"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}

	if counting.gets != 2 || counting.finds != 2 {
		t.Errorf("expected every miss to reach the backing store, got %d gets and %d finds", counting.gets, counting.finds)
	}
}

func TestFindByNameKeepsFirstUserAfterEviction(t *testing.T) {
	store, _ := setupCache(t, 1)
	ctx := context.Background()

	first, _ := store.Users().Create(ctx, storage.NewUser{Name: "Alice"})
	if _, err := store.Users().FindByName(ctx, "Alice"); err != nil {
		t.Fatalf("find: %v", err)
	}

	// Evict Alice from the name cache, then create a second Alice
	_, _ = store.Users().Create(ctx, storage.NewUser{Name: "Bob"})
	_, _ = store.Users().FindByName(ctx, "Bob")
	_, _ = store.Users().Create(ctx, storage.NewUser{Name: "Alice"})

	found, err := store.Users().FindByName(ctx, "Alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.ID != first.ID {
		t.Errorf("expected first Alice (ID %d), got %d", first.ID, found.ID)
	}
}

func TestWrapInvalidSize(t *testing.T) {
	if _, err := Wrap(memory.New(nil), 0); err == nil {
		t.Error("expected error for zero cache size")
	}
}

func TestOtherStoresPassThrough(t *testing.T) {
	mem := memory.New(nil)
	store, err := Wrap(mem, 4)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}

	if _, err := storage.SeedZones(context.Background(), store.Zones(), nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	zones, _ := mem.Zones().List(context.Background())
	if len(zones) != len(storage.DefaultZones) {
		t.Errorf("expected zones to be written through, got %d", len(zones))
	}
}
