package memory

import (
	"context"

	"github.com/goodtune/silentspaces/internal/storage"
)

type userStore struct {
	s *Store
}

// Get retrieves a user by ID
func (u *userStore) Get(ctx context.Context, id int64) (*storage.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	user, ok := u.s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	c := copyUser(user)
	return &c, nil
}

// FindByName scans users in ID order and returns the first exact match.
func (u *userStore) FindByName(ctx context.Context, name string) (*storage.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	// Map iteration order is random, so walk IDs to keep first-match-wins stable.
	for id := int64(1); id < u.s.nextUserID; id++ {
		user, ok := u.s.users[id]
		if ok && user.Name == name {
			c := copyUser(user)
			return &c, nil
		}
	}

	return nil, storage.ErrNotFound
}

// Create stores a new user under the next user ID
func (u *userStore) Create(ctx context.Context, attrs storage.NewUser) (*storage.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	id := u.s.nextUserID
	u.s.nextUserID++

	user := attrs.Build(id)
	u.s.users[id] = &user

	c := copyUser(&user)
	return &c, nil
}
