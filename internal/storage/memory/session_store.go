package memory

import (
	"context"

	"github.com/goodtune/silentspaces/internal/storage"
)

type sessionStore struct {
	s *Store
}

// ListActive returns all active sessions ordered by ID
func (ss *sessionStore) ListActive(ctx context.Context) ([]storage.Session, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	return ss.s.activeSessions(func(*storage.Session) bool { return true }), nil
}

// ListActiveByZone returns the active sessions in one zone
func (ss *sessionStore) ListActiveByZone(ctx context.Context, zoneID int64) ([]storage.Session, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	return ss.s.activeSessions(func(session *storage.Session) bool {
		return session.ZoneID == zoneID
	}), nil
}

// Create opens a session and recounts the target zone
func (ss *sessionStore) Create(ctx context.Context, userID, zoneID int64, duration string) (*storage.Session, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	id := ss.s.nextSessionID
	ss.s.nextSessionID++

	session := &storage.Session{
		ID:          id,
		UserID:      userID,
		ZoneID:      zoneID,
		CheckedInAt: ss.s.clock.Now(),
		Duration:    duration,
		IsActive:    true,
	}
	ss.s.sessions[id] = session
	ss.s.recountZone(zoneID)

	c := copySession(session)
	return &c, nil
}

// Close deactivates a session if it exists and is active
func (ss *sessionStore) Close(ctx context.Context, id int64) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	ss.s.closeSession(id)
	return nil
}

// CloseAllForUser closes every active session owned by userID
func (ss *sessionStore) CloseAllForUser(ctx context.Context, userID int64) (int, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	closed := 0
	for id, session := range ss.s.sessions {
		if session.UserID == userID && ss.s.closeSession(id) {
			closed++
		}
	}

	return closed, nil
}
