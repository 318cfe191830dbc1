// Package redis provides a Redis-backed implementation of storage.Store.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/silentspaces/internal/clock"
	"github.com/goodtune/silentspaces/internal/config"
	"github.com/goodtune/silentspaces/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements the storage.Store interface using Redis
type Store struct {
	client       *redis.Client
	zoneStore    *zoneStore
	userStore    *userStore
	sessionStore *sessionStore
}

// Open creates a new Redis-backed storage instance. A nil clock uses the
// system time for session timestamps.
func Open(cfg config.RedisConfig, c clock.Clock) (*Store, error) {
	// Parse timeouts
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	readTimeout, err := time.ParseDuration(cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}

	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	// Determine address
	addr := cfg.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	// Ping to verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if c == nil {
		c = clock.RealClock{}
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "silentspaces"
	}
	k := keys{prefix: prefix}

	store := &Store{
		client:       client,
		zoneStore:    &zoneStore{client: client, keys: k},
		userStore:    &userStore{client: client, keys: k},
		sessionStore: &sessionStore{client: client, keys: k, clock: c},
	}

	return store, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
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

// keys builds the Redis key names under a common prefix.
type keys struct {
	prefix string
}

func (k keys) counter(kind string) string { return k.prefix + ":" + kind + ":next" }

func (k keys) zone(id int64) string { return fmt.Sprintf("%s:zone:%d", k.prefix, id) }

func (k keys) zoneIndex() string { return k.prefix + ":zones" }

func (k keys) user(id int64) string { return fmt.Sprintf("%s:user:%d", k.prefix, id) }

func (k keys) userNames() string { return k.prefix + ":users:by_name" }

func (k keys) session(id int64) string { return fmt.Sprintf("%s:session:%d", k.prefix, id) }

func (k keys) activeSessions() string { return k.prefix + ":sessions:active" }

func (k keys) zoneSessions(zoneID int64) string {
	return fmt.Sprintf("%s:sessions:zone:%d:active", k.prefix, zoneID)
}

func (k keys) userSessions(userID int64) string {
	return fmt.Sprintf("%s:sessions:user:%d:active", k.prefix, userID)
}
