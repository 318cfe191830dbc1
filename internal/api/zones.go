package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/goodtune/silentspaces/internal/storage"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// ZoneHandler handles zone API requests.
type ZoneHandler struct {
	store  storage.ZoneStore
	logger zerolog.Logger
}

// NewZoneHandler creates a new zone handler.
func NewZoneHandler(store storage.ZoneStore, logger zerolog.Logger) *ZoneHandler {
	return &ZoneHandler{
		store:  store,
		logger: logger.With().Str("handler", "zone").Logger(),
	}
}

// List returns all zones ordered by ID.
func (h *ZoneHandler) List(w http.ResponseWriter, r *http.Request) {
	zones, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list zones")
		writeError(w, http.StatusInternalServerError, "Failed to fetch zones")
		return
	}

	writeJSON(w, http.StatusOK, zones)
}

// Get returns a single zone by ID.
func (h *ZoneHandler) Get(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid zone ID")
		return
	}

	zone, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Zone not found")
			return
		}
		h.logger.Error().Err(err).Int64("id", id).Msg("Failed to get zone")
		writeError(w, http.StatusInternalServerError, "Failed to fetch zone")
		return
	}

	writeJSON(w, http.StatusOK, zone)
}
