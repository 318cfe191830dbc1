package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/goodtune/silentspaces/internal/storage"
)

type zoneStore struct {
	s *Store
}

// List returns all zones ordered by ID.
func (z *zoneStore) List(ctx context.Context) ([]storage.Zone, error) {
	z.s.mu.RLock()
	defer z.s.mu.RUnlock()

	zones := make([]storage.Zone, 0, len(z.s.zones))
	for _, zone := range z.s.zones {
		zones = append(zones, *zone)
	}
	slices.SortFunc(zones, func(a, b storage.Zone) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return zones, nil
}

// Get retrieves a zone by ID
func (z *zoneStore) Get(ctx context.Context, id int64) (*storage.Zone, error) {
	z.s.mu.RLock()
	defer z.s.mu.RUnlock()

	zone, ok := z.s.zones[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	c := *zone
	return &c, nil
}

// Create stores a new zone under the next zone ID
func (z *zoneStore) Create(ctx context.Context, attrs storage.NewZone) (*storage.Zone, error) {
	z.s.mu.Lock()
	defer z.s.mu.Unlock()

	id := z.s.nextZoneID
	z.s.nextZoneID++

	zone := attrs.Build(id)
	z.s.zones[id] = &zone

	c := zone
	return &c, nil
}

// SetActiveCount overwrites a zone's cached active user count
func (z *zoneStore) SetActiveCount(ctx context.Context, id int64, count int) error {
	z.s.mu.Lock()
	defer z.s.mu.Unlock()

	if zone, ok := z.s.zones[id]; ok {
		zone.ActiveUsers = count
	}

	return nil
}
