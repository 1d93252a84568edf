package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/notifyd/notifyd/internal/middleware"
	"github.com/notifyd/notifyd/internal/notify"
)

// sendJSON sends a JSON response
func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// sendError sends a standardized error response
func sendError(w http.ResponseWriter, r *http.Request, status int, code, message string, details interface{}) {
	requestID, _ := r.Context().Value(middleware.RequestIDKey).(string)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := middleware.ErrorResponse{
		Error: middleware.ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// parseIndexParam extracts and validates a channel index from URL params.
// A non-numeric index cannot name a constructed channel, so it is
// reported the same way as one past the end of the registry.
func parseIndexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	indexStr := chi.URLParam(r, "index")
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		sendError(w, r, http.StatusNotFound, "OUT_OF_RANGE", "Invalid channel index", nil)
		return 0, false
	}
	return index, true
}

// decodeJSON decodes request body with error handling
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var input T
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", err)
		return input, false
	}
	return input, true
}

// handleNotifyError sends the appropriate error response for core errors
func handleNotifyError(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, notify.ErrOutOfRange):
		sendError(w, r, http.StatusNotFound, "OUT_OF_RANGE", "No channel with that index", nil)
	case errors.Is(err, notify.ErrInvalidArgument):
		sendError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error(), nil)
	case errors.Is(err, notify.ErrClosed):
		sendError(w, r, http.StatusServiceUnavailable, "SHUTTING_DOWN", "Channel registry is shutting down", nil)
	default:
		sendError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error", err.Error())
	}
	return true
}
