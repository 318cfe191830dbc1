package redis

import (
	"context"
	"strconv"

	"github.com/goodtune/silentspaces/internal/storage"
	"github.com/redis/go-redis/v9"
)

type zoneStore struct {
	client *redis.Client
	keys   keys
}

// List returns all zones ordered by ID
func (s *zoneStore) List(ctx context.Context) ([]storage.Zone, error) {
	members, err := s.client.ZRange(ctx, s.keys.zoneIndex(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	ids := parseIDs(members)
	if len(ids) == 0 {
		return []storage.Zone{}, nil
	}

	// Use pipeline for efficient batch retrieval
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.keys.zone(id))
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	zones := make([]storage.Zone, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}

		zone, err := parseZone(data)
		if err != nil {
			return nil, err
		}
		zones = append(zones, *zone)
	}

	return zones, nil
}

// Get retrieves a zone by ID
func (s *zoneStore) Get(ctx context.Context, id int64) (*storage.Zone, error) {
	data, err := s.client.HGetAll(ctx, s.keys.zone(id)).Result()
	if err != nil {
		return nil, err
	}

	return parseZone(data)
}

// Create stores a new zone with the next zone ID
func (s *zoneStore) Create(ctx context.Context, z storage.NewZone) (*storage.Zone, error) {
	id, err := s.client.Incr(ctx, s.keys.counter("zone")).Result()
	if err != nil {
		return nil, err
	}

	zone := z.Build(id)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.keys.zone(id),
			"id", id,
			"name", zone.Name,
			"description", zone.Description,
			"icon", zone.Icon,
			"color", zone.Color,
			"youtube_url", zone.YouTubeURL,
			"active_users", 0,
		)
		pipe.ZAdd(ctx, s.keys.zoneIndex(), redis.Z{Score: float64(id), Member: strconv.FormatInt(id, 10)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &zone, nil
}

// SetActiveCount overwrites a zone's active user count. Unknown zones are ignored.
func (s *zoneStore) SetActiveCount(ctx context.Context, id int64, count int) error {
	return setActiveCount.Run(ctx, s.client, []string{s.keys.zone(id)}, count).Err()
}
