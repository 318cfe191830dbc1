// Package memory provides the in-process implementation of storage.Store.
package memory

import (
	"cmp"
	"slices"
	"sync"

	"github.com/goodtune/silentspaces/internal/clock"
	"github.com/goodtune/silentspaces/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps zones, users and sessions in ID-keyed maps guarded by a
// single mutex. IDs come from per-type counters and are never reused.
type Store struct {
	mu    sync.RWMutex
	clock clock.Clock

	zones    map[int64]*storage.Zone
	users    map[int64]*storage.User
	sessions map[int64]*storage.Session

	nextZoneID    int64
	nextUserID    int64
	nextSessionID int64

	zoneStore    *zoneStore
	userStore    *userStore
	sessionStore *sessionStore
}

// New creates an empty in-memory store. A nil clock uses the system time.
func New(c clock.Clock) *Store {
	if c == nil {
		c = clock.RealClock{}
	}

	s := &Store{
		clock:         c,
		zones:         make(map[int64]*storage.Zone),
		users:         make(map[int64]*storage.User),
		sessions:      make(map[int64]*storage.Session),
		nextZoneID:    1,
		nextUserID:    1,
		nextSessionID: 1,
	}
	s.zoneStore = &zoneStore{s: s}
	s.userStore = &userStore{s: s}
	s.sessionStore = &sessionStore{s: s}

	return s
}

// Close is a no-op; the store holds no external resources.
func (s *Store) Close() error {
	return nil
}

// Zones returns the ZoneStore implementation
func (s *Store) Zones() storage.ZoneStore {
	return s.zoneStore
}

// Users returns the UserStore implementation
func (s *Store) Users() storage.UserStore {
	return s.userStore
}

// Sessions returns the SessionStore implementation
func (s *Store) Sessions() storage.SessionStore {
	return s.sessionStore
}

// recountZone recomputes a zone's active user count from the session map.
// Caller must hold s.mu for writing.
func (s *Store) recountZone(zoneID int64) {
	zone, ok := s.zones[zoneID]
	if !ok {
		return
	}

	count := 0
	for _, session := range s.sessions {
		if session.IsActive && session.ZoneID == zoneID {
			count++
		}
	}
	zone.ActiveUsers = count
}

// closeSession deactivates one session. Caller must hold s.mu for writing.
func (s *Store) closeSession(id int64) bool {
	session, ok := s.sessions[id]
	if !ok || !session.IsActive {
		return false
	}

	now := s.clock.Now()
	session.IsActive = false
	session.CheckedOutAt = &now
	s.recountZone(session.ZoneID)

	return true
}

// activeSessions returns copies of active sessions matching keep, ordered by ID.
// Caller must hold s.mu.
func (s *Store) activeSessions(keep func(*storage.Session) bool) []storage.Session {
	result := make([]storage.Session, 0)
	for _, session := range s.sessions {
		if session.IsActive && keep(session) {
			result = append(result, copySession(session))
		}
	}
	slices.SortFunc(result, func(a, b storage.Session) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return result
}

func copyUser(u *storage.User) storage.User {
	c := *u
	if u.Email != nil {
		email := *u.Email
		c.Email = &email
	}
	if u.Avatar != nil {
		avatar := *u.Avatar
		c.Avatar = &avatar
	}
	return c
}

func copySession(s *storage.Session) storage.Session {
	c := *s
	if s.CheckedOutAt != nil {
		out := *s.CheckedOutAt
		c.CheckedOutAt = &out
	}
	return c
}
