package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goodtune/silentspaces/internal/clock"
	"github.com/goodtune/silentspaces/internal/storage"
)

func openTestStore(t *testing.T) (*Store, *clock.TestClock) {
	t.Helper()

	clk := &clock.TestClock{CurrentTime: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
	store := New(clk)

	if _, err := storage.SeedZones(context.Background(), store.Zones(), nil); err != nil {
		t.Fatalf("seed zones: %v", err)
	}

	return store, clk
}

func TestSeedZones(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	zones, err := store.Zones().List(ctx)
	if err != nil {
		t.Fatalf("list zones: %v", err)
	}
	if len(zones) != len(storage.DefaultZones) {
		t.Fatalf("expected %d zones, got %d", len(storage.DefaultZones), len(zones))
	}
	for i, zone := range zones {
		if zone.ID != int64(i+1) {
			t.Errorf("zone %d: expected ID %d, got %d", i, i+1, zone.ID)
		}
		if zone.Name != storage.DefaultZones[i].Name {
			t.Errorf("zone %d: expected name %q, got %q", i, storage.DefaultZones[i].Name, zone.Name)
		}
		if zone.ActiveUsers != 0 {
			t.Errorf("zone %d: expected 0 active users, got %d", i, zone.ActiveUsers)
		}
	}

	// Seeding again must not duplicate zones
	created, err := storage.SeedZones(ctx, store.Zones(), nil)
	if err != nil {
		t.Fatalf("reseed zones: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected reseed to create 0 zones, got %d", created)
	}
}

func TestZoneStoreGetMissing(t *testing.T) {
	store, _ := openTestStore(t)

	_, err := store.Zones().Get(context.Background(), 99)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestZoneStoreSetActiveCount(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	if err := store.Zones().SetActiveCount(ctx, 2, 7); err != nil {
		t.Fatalf("set active count: %v", err)
	}
	zone, err := store.Zones().Get(ctx, 2)
	if err != nil {
		t.Fatalf("get zone: %v", err)
	}
	if zone.ActiveUsers != 7 {
		t.Fatalf("expected 7 active users, got %d", zone.ActiveUsers)
	}

	// Missing zone is ignored
	if err := store.Zones().SetActiveCount(ctx, 42, 3); err != nil {
		t.Fatalf("set active count on missing zone: %v", err)
	}
}

func TestZoneStoreReturnsCopies(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	zone, err := store.Zones().Get(ctx, 1)
	if err != nil {
		t.Fatalf("get zone: %v", err)
	}
	zone.Name = "mutated"
	zone.ActiveUsers = 100

	again, err := store.Zones().Get(ctx, 1)
	if err != nil {
		t.Fatalf("get zone: %v", err)
	}
	if again.Name != "Coffee Shop" || again.ActiveUsers != 0 {
		t.Fatalf("store was mutated through returned zone: %+v", again)
	}
}

func TestUserStore(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	alice, err := store.Users().Create(ctx, storage.NewUser{Name: "Alice"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if alice.ID != 1 {
		t.Errorf("expected first user ID 1, got %d", alice.ID)
	}
	if alice.Email != nil || alice.Avatar != nil {
		t.Errorf("expected absent email and avatar, got %v %v", alice.Email, alice.Avatar)
	}

	bob, err := store.Users().Create(ctx, storage.NewUser{Name: "Bob", Email: "bob@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if bob.Email == nil || *bob.Email != "bob@example.com" {
		t.Errorf("expected bob's email to be stored, got %v", bob.Email)
	}

	// Duplicate name: first match wins
	if _, err := store.Users().Create(ctx, storage.NewUser{Name: "Alice"}); err != nil {
		t.Fatalf("create duplicate user: %v", err)
	}

	found, err := store.Users().FindByName(ctx, "Alice")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if found.ID != alice.ID {
		t.Errorf("expected first Alice (ID %d), got ID %d", alice.ID, found.ID)
	}

	// Case-sensitive
	if _, err := store.Users().FindByName(ctx, "alice"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for lowercase name, got %v", err)
	}

	if _, err := store.Users().Get(ctx, 99); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	store, clk := openTestStore(t)
	ctx := context.Background()

	session, err := store.Sessions().Create(ctx, 1, 1, "25 minutes (Pomodoro)")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if !session.IsActive || session.CheckedOutAt != nil {
		t.Fatalf("expected new session to be active, got %+v", session)
	}
	if !session.CheckedInAt.Equal(clk.CurrentTime) {
		t.Errorf("expected CheckedInAt %v, got %v", clk.CurrentTime, session.CheckedInAt)
	}

	zone, _ := store.Zones().Get(ctx, 1)
	if zone.ActiveUsers != 1 {
		t.Fatalf("expected zone 1 to have 1 active user, got %d", zone.ActiveUsers)
	}

	clk.Advance(10 * time.Minute)
	if err := store.Sessions().Close(ctx, session.ID); err != nil {
		t.Fatalf("close session: %v", err)
	}

	zone, _ = store.Zones().Get(ctx, 1)
	if zone.ActiveUsers != 0 {
		t.Fatalf("expected zone 1 to have 0 active users, got %d", zone.ActiveUsers)
	}

	active, _ := store.Sessions().ListActive(ctx)
	if len(active) != 0 {
		t.Fatalf("expected no active sessions, got %d", len(active))
	}

	// Closing again is a no-op
	clk.Advance(time.Minute)
	if err := store.Sessions().Close(ctx, session.ID); err != nil {
		t.Fatalf("close closed session: %v", err)
	}
	if err := store.Sessions().Close(ctx, 999); err != nil {
		t.Fatalf("close missing session: %v", err)
	}

	closedAt := store.sessions[session.ID].CheckedOutAt
	if closedAt == nil || !closedAt.Equal(clk.CurrentTime.Add(-time.Minute)) {
		t.Errorf("expected CheckedOutAt to keep the first close time, got %v", closedAt)
	}

	// IDs are never reused
	next, err := store.Sessions().Create(ctx, 1, 2, "1 hour")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if next.ID != session.ID+1 {
		t.Errorf("expected session ID %d, got %d", session.ID+1, next.ID)
	}
}

func TestCloseAllForUser(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	// Bypass the check-in workflow to create several active sessions for one user
	_, _ = store.Sessions().Create(ctx, 1, 1, "25m")
	_, _ = store.Sessions().Create(ctx, 1, 2, "25m")
	_, _ = store.Sessions().Create(ctx, 2, 2, "25m")

	closed, err := store.Sessions().CloseAllForUser(ctx, 1)
	if err != nil {
		t.Fatalf("close all for user: %v", err)
	}
	if closed != 2 {
		t.Fatalf("expected 2 sessions closed, got %d", closed)
	}

	zones, _ := store.Zones().List(ctx)
	if zones[0].ActiveUsers != 0 {
		t.Errorf("expected zone 1 to be empty, got %d", zones[0].ActiveUsers)
	}
	if zones[1].ActiveUsers != 1 {
		t.Errorf("expected zone 2 to have 1 active user, got %d", zones[1].ActiveUsers)
	}

	byZone, _ := store.Sessions().ListActiveByZone(ctx, 2)
	if len(byZone) != 1 || byZone[0].UserID != 2 {
		t.Fatalf("expected only user 2 in zone 2, got %+v", byZone)
	}

	closed, err = store.Sessions().CloseAllForUser(ctx, 1)
	if err != nil {
		t.Fatalf("close all for user again: %v", err)
	}
	if closed != 0 {
		t.Fatalf("expected 0 sessions closed, got %d", closed)
	}
}
