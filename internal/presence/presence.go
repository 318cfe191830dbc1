// Package presence derives who is currently present in each zone.
package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/silentspaces/internal/storage"
)

// Member describes one user's active session in a zone.
type Member struct {
	SessionID      int64     `json:"sessionId"`
	UserID         int64     `json:"userId"`
	Name           string    `json:"name"`
	CheckedInAt    time.Time `json:"checkedInAt"`
	Duration       string    `json:"duration"`
	ElapsedSeconds int64     `json:"elapsedSeconds"`
}

// ZonePresence lists the users with an active session in one zone.
type ZonePresence struct {
	ZoneID  int64          `json:"zoneId"`
	Users   []storage.User `json:"users"`
	Count   int            `json:"count"`
	Members []Member       `json:"members"`
}

// Compute returns one entry per zone, in zone order. Sessions whose user
// cannot be resolved are skipped. Elapsed time is measured against now.
// Compute takes no lock of its own; callers must keep session changes out
// while it runs.
func Compute(ctx context.Context, store storage.Store, now time.Time) ([]ZonePresence, error) {
	zones, err := store.Zones().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}

	result := make([]ZonePresence, 0, len(zones))
	for _, zone := range zones {
		sessions, err := store.Sessions().ListActiveByZone(ctx, zone.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions for zone %d: %w", zone.ID, err)
		}

		entry := ZonePresence{
			ZoneID:  zone.ID,
			Users:   make([]storage.User, 0, len(sessions)),
			Members: make([]Member, 0, len(sessions)),
		}

		for _, session := range sessions {
			user, err := store.Users().Get(ctx, session.UserID)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to get user %d: %w", session.UserID, err)
			}

			entry.Users = append(entry.Users, *user)
			entry.Members = append(entry.Members, Member{
				SessionID:      session.ID,
				UserID:         user.ID,
				Name:           user.Name,
				CheckedInAt:    session.CheckedInAt,
				Duration:       session.Duration,
				ElapsedSeconds: elapsed(session.CheckedInAt, now),
			})
		}

		entry.Count = len(entry.Users)
		result = append(result, entry)
	}

	return result, nil
}

func elapsed(since, now time.Time) int64 {
	d := now.Sub(since)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
