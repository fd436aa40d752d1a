package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/qkhacks/controller/internal/service"
	"github.com/rs/zerolog"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps a service error onto a status code and the error envelope.
// Anything outside the service taxonomy becomes a 500 with a generic message
// so storage details never leak to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	message := err.Error()

	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
		message = "internal server error"
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
	}

	writeJSON(w, status, errorResponse{Success: false, Message: message})
}

// decodeBody decodes a JSON request body into dst. A missing or malformed
// body is the caller's fault.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return service.InvalidInputf("invalid request body")
	}
	return nil
}
