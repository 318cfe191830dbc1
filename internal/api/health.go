package api

import (
	"net/http"
	"time"

	"github.com/goodtune/silentspaces/internal/storage"
	"github.com/rs/zerolog"
)

// PollIntervals are the refresh cadences suggested to clients.
type PollIntervals struct {
	Zones    time.Duration
	Presence time.Duration
}

// HealthHandler reports service health.
type HealthHandler struct {
	sessions  storage.SessionStore
	intervals PollIntervals
	startTime time.Time
	logger    zerolog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(sessions storage.SessionStore, intervals PollIntervals, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		sessions:  sessions,
		intervals: intervals,
		startTime: time.Now(),
		logger:    logger.With().Str("handler", "health").Logger(),
	}
}

// Get returns the health status of the service.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	active, err := h.sessions.ListActive(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Storage health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unhealthy",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"activeSessions": len(active),
		"uptimeSeconds":  int(time.Since(h.startTime).Seconds()),
		"pollIntervals": map[string]int{
			"zonesSeconds":    int(h.intervals.Zones.Seconds()),
			"presenceSeconds": int(h.intervals.Presence.Seconds()),
		},
	})
}
