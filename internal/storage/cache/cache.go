// Package cache wraps a storage.Store with an in-process LRU for user
// lookups. Users are never modified after creation, so cached entries do
// not need invalidation.
package cache

import (
	"context"
	"fmt"

	"github.com/goodtune/silentspaces/internal/metrics"
	"github.com/goodtune/silentspaces/internal/storage"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Store overrides Users() of the wrapped store with a cached UserStore.
type Store struct {
	storage.Store
	users *userStore
}

// Wrap returns store with user lookups cached in an LRU of the given size.
func Wrap(store storage.Store, size int) (*Store, error) {
	byID, err := lru.New[int64, storage.User](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create user cache: %w", err)
	}

	byName, err := lru.New[string, int64](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create user name cache: %w", err)
	}

	return &Store{
		Store: store,
		users: &userStore{next: store.Users(), byID: byID, byName: byName},
	}, nil
}

// Users returns the cached UserStore
func (s *Store) Users() storage.UserStore {
	return s.users
}

type userStore struct {
	next   storage.UserStore
	byID   *lru.Cache[int64, storage.User]
	byName *lru.Cache[string, int64]
}

func (s *userStore) Get(ctx context.Context, id int64) (*storage.User, error) {
	if user, ok := s.byID.Get(id); ok {
		metrics.UserCacheHits.Inc()
		return clone(user), nil
	}
	metrics.UserCacheMisses.Inc()

	user, err := s.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.byID.Add(id, *clone(*user))
	return user, nil
}

// FindByName only caches names resolved by the backing store. Entries are
// never added from Create, since an evicted earlier user with the same name
// must keep winning.
func (s *userStore) FindByName(ctx context.Context, name string) (*storage.User, error) {
	if id, ok := s.byName.Get(name); ok {
		return s.Get(ctx, id)
	}

	user, err := s.next.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	s.byName.Add(name, user.ID)
	s.byID.Add(user.ID, *clone(*user))
	return user, nil
}

func (s *userStore) Create(ctx context.Context, u storage.NewUser) (*storage.User, error) {
	user, err := s.next.Create(ctx, u)
	if err != nil {
		return nil, err
	}

	s.byID.Add(user.ID, *clone(*user))
	return user, nil
}

func clone(u storage.User) *storage.User {
	c := u
	if u.Email != nil {
		email := *u.Email
		c.Email = &email
	}
	if u.Avatar != nil {
		avatar := *u.Avatar
		c.Avatar = &avatar
	}
	return &c
}
