package redis

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/goodtune/silentspaces/internal/storage"
)

// parseZone converts a Redis hash to Zone
func parseZone(data map[string]string) (*storage.Zone, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	id, err := strconv.ParseInt(data["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse id: %w", err)
	}

	activeUsers := 0
	if v := data["active_users"]; v != "" {
		activeUsers, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse active_users: %w", err)
		}
	}

	return &storage.Zone{
		ID:          id,
		Name:        data["name"],
		Description: data["description"],
		Icon:        data["icon"],
		Color:       data["color"],
		YouTubeURL:  data["youtube_url"],
		ActiveUsers: activeUsers,
	}, nil
}

// parseUser converts a Redis hash to User
func parseUser(data map[string]string) (*storage.User, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	id, err := strconv.ParseInt(data["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse id: %w", err)
	}

	user := storage.NewUser{
		Name:   data["name"],
		Email:  data["email"],
		Avatar: data["avatar"],
	}.Build(id)

	return &user, nil
}

// parseSession converts a Redis hash to Session
func parseSession(data map[string]string) (*storage.Session, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	id, err := strconv.ParseInt(data["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse id: %w", err)
	}

	userID, err := strconv.ParseInt(data["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user_id: %w", err)
	}

	zoneID, err := strconv.ParseInt(data["zone_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse zone_id: %w", err)
	}

	checkedInAt, err := time.Parse(time.RFC3339Nano, data["checked_in_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse checked_in_at: %w", err)
	}

	var checkedOutAt *time.Time
	if v := data["checked_out_at"]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse checked_out_at: %w", err)
		}
		checkedOutAt = &t
	}

	return &storage.Session{
		ID:           id,
		UserID:       userID,
		ZoneID:       zoneID,
		CheckedInAt:  checkedInAt,
		CheckedOutAt: checkedOutAt,
		Duration:     data["duration"],
		IsActive:     data["active"] == "1",
	}, nil
}

// parseIDs converts Redis set members to sorted numeric IDs
func parseIDs(members []string) []int64 {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	slices.SortFunc(ids, cmp.Compare[int64])
	return ids
}
