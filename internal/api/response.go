package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// jsonMessage writes a JSON success message.
func jsonMessage(w http.ResponseWriter, message string) {
	jsonResponse(w, http.StatusOK, map[string]string{"message": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// errorStatus maps a domain error to an HTTP status.
func errorStatus(err error) int {
	var insufficient *store.InsufficientStockError
	var transition *store.TransitionError
	switch {
	case errors.Is(err, inventory.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, inventory.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrItemNotFound),
		errors.Is(err, store.ErrRequestNotFound),
		errors.Is(err, store.ErrUserNotFound):
		return http.StatusNotFound
	case errors.As(err, &insufficient),
		errors.As(err, &transition),
		errors.Is(err, store.ErrDuplicateItem),
		errors.Is(err, store.ErrUsernameTaken),
		errors.Is(err, store.ErrStockChanged),
		errors.Is(err, store.ErrTransactionFailed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError renders err with its mapped status. Internal errors are not
// echoed to the client.
func writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		jsonError(w, status, "internal error")
		return
	}
	jsonError(w, status, err.Error())
}
