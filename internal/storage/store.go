package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
// A single Store instance is constructed at startup and shared by every
// handler; callers always receive copies of the stored records.
type Store interface {
	Close() error
	Zones() ZoneStore
	Users() UserStore
	Sessions() SessionStore
}

// ZoneStore manages focus zones.
type ZoneStore interface {
	// List returns every zone ordered by ID.
	List(ctx context.Context) ([]Zone, error)
	Get(ctx context.Context, id int64) (*Zone, error)
	// Create assigns the next zone ID and stores the zone with zero active users.
	Create(ctx context.Context, zone NewZone) (*Zone, error)
	// SetActiveCount overwrites the cached occupancy. Missing zones are ignored.
	SetActiveCount(ctx context.Context, id int64, count int) error
}

// UserStore manages check-in users.
type UserStore interface {
	Get(ctx context.Context, id int64) (*User, error)
	// FindByName returns the first user whose name matches exactly.
	FindByName(ctx context.Context, name string) (*User, error)
	Create(ctx context.Context, user NewUser) (*User, error)
}

// SessionStore manages presence sessions.
//
// Every call that opens or closes a session recomputes the affected zone's
// active user count before returning, so Zones().List always reflects
// current occupancy.
type SessionStore interface {
	ListActive(ctx context.Context) ([]Session, error)
	ListActiveByZone(ctx context.Context, zoneID int64) ([]Session, error)
	Create(ctx context.Context, userID, zoneID int64, duration string) (*Session, error)
	// Close deactivates a session. Closing a missing or inactive session is a no-op.
	Close(ctx context.Context, id int64) error
	// CloseAllForUser closes every active session owned by userID and
	// returns how many were closed.
	CloseAllForUser(ctx context.Context, userID int64) (int, error)
}
