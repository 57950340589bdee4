package web

import (
	"encoding/json"
	"net/http"

	perr "vaktpost/internal/platform/errors"
	"vaktpost/internal/platform/logger"
)

// Envelope is the uniform JSON response shape
type Envelope struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *perr.Wire `json:"error,omitempty"`
}

// WriteJSON writes data wrapped in the success envelope
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{OK: true, Data: data}); err != nil {
		logger.Get().Error().Err(err).Msg("respond: encode failed")
	}
}

// WriteError maps err to a status and writes the error envelope
func WriteError(w http.ResponseWriter, err error) {
	status, wire := perr.HTTP(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(Envelope{OK: false, Error: &wire}); encErr != nil {
		logger.Get().Error().Err(encErr).Msg("respond: encode failed")
	}
}

// JSONHandler adapts a func returning (data, error) into a Handler
func JSONHandler(fn func(r *http.Request) (any, error)) Handler {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fn(r)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, data)
	}
}
