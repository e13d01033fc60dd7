package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/internal/auth"
	"github.com/petermazzocco/go-messenger/internal/messenger"
	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps repository errors onto status codes. Storage failures are
// logged and answered with a generic body.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, messenger.ErrInvalidInput):
		writeMessage(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, messenger.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, messenger.ErrInUse):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, messenger.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
	default:
		log.Error("request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func urlID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

func sessionUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := auth.UserID(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not Authorized")
		return uuid.Nil, false
	}
	return id, true
}
