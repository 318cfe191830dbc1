package api

import (
	"net/http"

	"github.com/goodtune/silentspaces/internal/checkin"
	"github.com/goodtune/silentspaces/internal/clock"
	"github.com/rs/zerolog"
)

// PresenceHandler serves the per-zone presence snapshot.
type PresenceHandler struct {
	service *checkin.Service
	clock   clock.Clock
	logger  zerolog.Logger
}

// NewPresenceHandler creates a new presence handler.
func NewPresenceHandler(service *checkin.Service, c clock.Clock, logger zerolog.Logger) *PresenceHandler {
	if c == nil {
		c = clock.RealClock{}
	}
	return &PresenceHandler{
		service: service,
		clock:   c,
		logger:  logger.With().Str("handler", "presence").Logger(),
	}
}

// Get returns who is present in each zone.
func (h *PresenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Presence(r.Context(), h.clock.Now())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to compute presence")
		writeError(w, http.StatusInternalServerError, "Failed to fetch presence data")
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}
