package api

import (
	"net/http"

	"github.com/goodtune/silentspaces/internal/storage"
	"github.com/rs/zerolog"
)

// SessionHandler handles session API requests.
type SessionHandler struct {
	store  storage.SessionStore
	logger zerolog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(store storage.SessionStore, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		store:  store,
		logger: logger.With().Str("handler", "session").Logger(),
	}
}

// ListActive returns all active sessions.
func (h *SessionHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListActive(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list active sessions")
		writeError(w, http.StatusInternalServerError, "Failed to fetch sessions")
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}
