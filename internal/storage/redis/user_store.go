package redis

import (
	"context"
	"strconv"

	"github.com/goodtune/silentspaces/internal/storage"
	"github.com/redis/go-redis/v9"
)

type userStore struct {
	client *redis.Client
	keys   keys
}

// Get retrieves a user by ID
func (s *userStore) Get(ctx context.Context, id int64) (*storage.User, error) {
	data, err := s.client.HGetAll(ctx, s.keys.user(id)).Result()
	if err != nil {
		return nil, err
	}

	return parseUser(data)
}

// FindByName returns the first user created with exactly this name
func (s *userStore) FindByName(ctx context.Context, name string) (*storage.User, error) {
	idStr, err := s.client.HGet(ctx, s.keys.userNames(), name).Result()
	if err == redis.Nil {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, storage.ErrNotFound
	}

	return s.Get(ctx, id)
}

// Create stores a new user with the next user ID. The name index keeps the
// earliest user for a name.
func (s *userStore) Create(ctx context.Context, u storage.NewUser) (*storage.User, error) {
	id, err := s.client.Incr(ctx, s.keys.counter("user")).Result()
	if err != nil {
		return nil, err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.keys.user(id),
			"id", id,
			"name", u.Name,
			"email", u.Email,
			"avatar", u.Avatar,
		)
		pipe.HSetNX(ctx, s.keys.userNames(), u.Name, id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	user := u.Build(id)
	return &user, nil
}
