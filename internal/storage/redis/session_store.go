package redis

import (
	"context"
	"time"

	"github.com/goodtune/silentspaces/internal/clock"
	"github.com/goodtune/silentspaces/internal/storage"
	"github.com/redis/go-redis/v9"
)

type sessionStore struct {
	client *redis.Client
	keys   keys
	clock  clock.Clock
}

// ListActive returns all active sessions ordered by ID
func (s *sessionStore) ListActive(ctx context.Context) ([]storage.Session, error) {
	return s.listFromSet(ctx, s.keys.activeSessions())
}

// ListActiveByZone returns the active sessions in one zone ordered by ID
func (s *sessionStore) ListActiveByZone(ctx context.Context, zoneID int64) ([]storage.Session, error) {
	return s.listFromSet(ctx, s.keys.zoneSessions(zoneID))
}

// Create stores a new active session and recounts its zone
func (s *sessionStore) Create(ctx context.Context, userID, zoneID int64, duration string) (*storage.Session, error) {
	id, err := s.client.Incr(ctx, s.keys.counter("session")).Result()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	scriptKeys := []string{
		s.keys.session(id),
		s.keys.activeSessions(),
		s.keys.zoneSessions(zoneID),
		s.keys.userSessions(userID),
		s.keys.zone(zoneID),
	}
	args := []interface{}{
		id,
		userID,
		zoneID,
		now.Format(time.RFC3339Nano),
		duration,
	}

	if err := createSession.Run(ctx, s.client, scriptKeys, args...).Err(); err != nil {
		return nil, err
	}

	return &storage.Session{
		ID:          id,
		UserID:      userID,
		ZoneID:      zoneID,
		CheckedInAt: now,
		Duration:    duration,
		IsActive:    true,
	}, nil
}

// Close deactivates a session. Absent or already closed sessions are ignored.
func (s *sessionStore) Close(ctx context.Context, id int64) error {
	_, err := s.close(ctx, id)
	return err
}

// CloseAllForUser deactivates every active session of a user and returns
// how many were closed.
func (s *sessionStore) CloseAllForUser(ctx context.Context, userID int64) (int, error) {
	members, err := s.client.SMembers(ctx, s.keys.userSessions(userID)).Result()
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, id := range parseIDs(members) {
		ok, err := s.close(ctx, id)
		if err != nil {
			return closed, err
		}
		if ok {
			closed++
		}
	}

	return closed, nil
}

func (s *sessionStore) close(ctx context.Context, id int64) (bool, error) {
	data, err := s.client.HGetAll(ctx, s.keys.session(id)).Result()
	if err != nil {
		return false, err
	}

	session, err := parseSession(data)
	if err == storage.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !session.IsActive {
		return false, nil
	}

	scriptKeys := []string{
		s.keys.session(id),
		s.keys.activeSessions(),
		s.keys.zoneSessions(session.ZoneID),
		s.keys.userSessions(session.UserID),
		s.keys.zone(session.ZoneID),
	}
	result, err := closeSession.Run(ctx, s.client, scriptKeys, id, s.clock.Now().Format(time.RFC3339Nano)).Int()
	if err != nil {
		return false, err
	}

	return result == 1, nil
}

func (s *sessionStore) listFromSet(ctx context.Context, setKey string) ([]storage.Session, error) {
	members, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, err
	}

	ids := parseIDs(members)
	if len(ids) == 0 {
		return []storage.Session{}, nil
	}

	// Use pipeline for efficient batch retrieval
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.keys.session(id))
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	sessions := make([]storage.Session, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}

		session, err := parseSession(data)
		if err != nil {
			return nil, err
		}
		if session.IsActive {
			sessions = append(sessions, *session)
		}
	}

	return sessions, nil
}
