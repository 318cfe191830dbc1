// Package checkin implements the check-in and check-out workflows.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goodtune/silentspaces/internal/metrics"
	"github.com/goodtune/silentspaces/internal/presence"
	"github.com/goodtune/silentspaces/internal/storage"
	"github.com/rs/zerolog"
)

// Request is a check-in submission
type Request struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	ZoneID   int64  `json:"zoneId" validate:"required,min=1"`
	Duration string `json:"duration" validate:"required"`
}

// CheckOutRequest is a check-out submission
type CheckOutRequest struct {
	UserID int64 `json:"userId" validate:"required,min=1"`
}

// Result is returned by a successful check-in
type Result struct {
	Session storage.Session `json:"session"`
	User    storage.User    `json:"user"`
	Zone    storage.Zone    `json:"zone"`
}

// Service runs the check-in workflows against a store. Workflows are
// serialized so closing a user's old sessions and opening the new one never
// interleave with another request.
type Service struct {
	mu       sync.Mutex
	store    storage.Store
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewService creates a check-in service
func NewService(store storage.Store, logger zerolog.Logger) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Service{
		store:    store,
		validate: v,
		logger:   logger.With().Str("component", "checkin").Logger(),
	}
}

// CheckIn validates req, resolves or creates the user, closes the user's
// active sessions and opens a new one in the requested zone.
func (s *Service) CheckIn(ctx context.Context, req Request) (*Result, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Zones().Get(ctx, req.ZoneID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrZoneNotFound
		}
		return nil, fmt.Errorf("failed to get zone %d: %w", req.ZoneID, err)
	}

	user, err := s.findOrCreateUser(ctx, req)
	if err != nil {
		return nil, err
	}

	closed, err := s.store.Sessions().CloseAllForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to close sessions for user %d: %w", user.ID, err)
	}
	if closed > 0 {
		metrics.SessionsClosedTotal.WithLabelValues("switch").Add(float64(closed))
	}

	session, err := s.store.Sessions().Create(ctx, user.ID, req.ZoneID, req.Duration)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Re-read so activeUsers includes the new session
	zone, err := s.store.Zones().Get(ctx, req.ZoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload zone %d: %w", req.ZoneID, err)
	}

	metrics.CheckInsTotal.WithLabelValues(zone.Name).Inc()
	s.logger.Info().
		Int64("user_id", user.ID).
		Int64("zone_id", zone.ID).
		Int64("session_id", session.ID).
		Int("closed_sessions", closed).
		Msg("User checked in")

	return &Result{Session: *session, User: *user, Zone: *zone}, nil
}

// CheckOut closes every active session of the user. It succeeds when the
// user has nothing open.
func (s *Service) CheckOut(ctx context.Context, req CheckOutRequest) error {
	if err := s.check(req); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	closed, err := s.store.Sessions().CloseAllForUser(ctx, req.UserID)
	if err != nil {
		return fmt.Errorf("failed to close sessions for user %d: %w", req.UserID, err)
	}

	metrics.CheckOutsTotal.Inc()
	if closed > 0 {
		metrics.SessionsClosedTotal.WithLabelValues("checkout").Add(float64(closed))
	}
	s.logger.Info().Int64("user_id", req.UserID).Int("closed_sessions", closed).Msg("User checked out")

	return nil
}

// Presence returns the per-zone presence snapshot. It holds the workflow
// lock so a concurrent zone switch cannot show a user in two zones.
func (s *Service) Presence(ctx context.Context, now time.Time) ([]presence.ZonePresence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return presence.Compute(ctx, s.store, now)
}

func (s *Service) findOrCreateUser(ctx context.Context, req Request) (*storage.User, error) {
	user, err := s.store.Users().FindByName(ctx, req.Name)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to find user %q: %w", req.Name, err)
	}

	user, err = s.store.Users().Create(ctx, storage.NewUser{Name: req.Name, Email: req.Email})
	if err != nil {
		return nil, fmt.Errorf("failed to create user %q: %w", req.Name, err)
	}

	metrics.UsersCreatedTotal.Inc()
	s.logger.Debug().Int64("user_id", user.ID).Str("name", user.Name).Msg("Created user")

	return user, nil
}

// check validates v and converts the first failure to a *ValidationError
func (s *Service) check(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("failed to validate request: %w", err)
	}

	verr := newValidationError(fieldErrs[0].Field())
	metrics.ValidationFailuresTotal.WithLabelValues(verr.Field).Inc()
	return verr
}
