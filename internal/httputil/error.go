package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aardvark-games/college-cup/internal/bracket"
	"github.com/getsentry/sentry-go"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSONError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: msg, Kind: kind})
}

func InternalServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "error", err)
	if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
		hub.CaptureException(err)
	} else {
		sentry.CaptureException(err)
	}
	writeJSONError(w, http.StatusInternalServerError, "internal", "Internal Server Error")
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	writeJSONError(w, http.StatusBadRequest, "validation", msg)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	writeJSONError(w, http.StatusNotFound, "not_found", msg)
}

func Conflict(w http.ResponseWriter, msg string, err error) {
	slog.Warn("conflict", "message", msg, "error", err)
	writeJSONError(w, http.StatusConflict, "conflict", msg)
}

func TooManyRequests(w http.ResponseWriter) {
	writeJSONError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please slow down.")
}

func Unauthorized(w http.ResponseWriter) {
	writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Sign in as a moderator first.")
}

// WriteError writes err with the status matching its bracket error kind. Anything
// unrecognised, consistency errors included, is a 500.
func WriteError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, bracket.ErrValidation):
		BadRequest(w, err.Error(), err)
	case errors.Is(err, bracket.ErrNotFound):
		NotFound(w, err.Error(), err)
	case errors.Is(err, bracket.ErrConflict):
		Conflict(w, err.Error(), err)
	default:
		InternalServerError(w, r, msg, err)
	}
}
