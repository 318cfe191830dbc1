package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goodtune/silentspaces/internal/checkin"
	"github.com/rs/zerolog"
)

// CheckInHandler handles check-in and check-out requests.
type CheckInHandler struct {
	service *checkin.Service
	logger  zerolog.Logger
}

// NewCheckInHandler creates a new check-in handler.
func NewCheckInHandler(service *checkin.Service, logger zerolog.Logger) *CheckInHandler {
	return &CheckInHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkin").Logger(),
	}
}

// CheckIn moves a user into a zone, creating the user on first use.
func (h *CheckInHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkin.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.CheckIn(r.Context(), req)
	if err != nil {
		var verr *checkin.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, checkin.ErrZoneNotFound):
			writeError(w, http.StatusNotFound, "Zone not found")
		default:
			h.logger.Error().Err(err).Int64("zone_id", req.ZoneID).Msg("Failed to check in")
			writeError(w, http.StatusInternalServerError, "Failed to check in")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CheckOut closes the user's active sessions.
func (h *CheckInHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req checkin.CheckOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	if err := h.service.CheckOut(r.Context(), req); err != nil {
		var verr *checkin.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		h.logger.Error().Err(err).Int64("user_id", req.UserID).Msg("Failed to check out")
		writeError(w, http.StatusInternalServerError, "Failed to check out")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Checked out successfully"})
}
