package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/internal/auth"
	"github.com/petermazzocco/go-messenger/internal/messenger"
	"github.com/petermazzocco/go-messenger/internal/metrics"
	"github.com/petermazzocco/go-messenger/models"
	"go.uber.org/zap"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func SignUpHandler(w http.ResponseWriter, r *http.Request, users messenger.UserRepository, log *zap.Logger) {
	var candidate models.User
	if !decode(w, r, &candidate) {
		return
	}

	user, err := users.Create(r.Context(), &candidate)
	if err != nil {
		writeError(w, log, err)
		return
	}
	metrics.EntityCreated("user")
	writeJSON(w, http.StatusCreated, user)
}

func SignInHandler(w http.ResponseWriter, r *http.Request, users messenger.UserRepository, sessions *auth.Sessions, log *zap.Logger) {
	var req signInRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, log, err)
		return
	}
	if err := sessions.SignIn(w, r, user.ID); err != nil {
		log.Error("failed to save session", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to save session")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func SignOutHandler(w http.ResponseWriter, r *http.Request, sessions *auth.Sessions, log *zap.Logger) {
	if err := sessions.SignOut(w, r); err != nil {
		log.Error("failed to clear session", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to clear session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func GetUserHandler(w http.ResponseWriter, r *http.Request, users messenger.UserRepository, log *zap.Logger) {
	id, ok := urlID(w, r, "userID")
	if !ok {
		return
	}

	user, err := users.Get(r.Context(), id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func GetUserByEmailHandler(w http.ResponseWriter, r *http.Request, users messenger.UserRepository, log *zap.Logger) {
	user, err := users.GetByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUserHandler replaces the signed in user's own profile.
func UpdateUserHandler(w http.ResponseWriter, r *http.Request, users messenger.UserRepository, log *zap.Logger) {
	id, ok := selfOnly(w, r)
	if !ok {
		return
	}
	var candidate models.User
	if !decode(w, r, &candidate) {
		return
	}
	candidate.ID = id

	user, err := users.Update(r.Context(), &candidate)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func DeleteUserHandler(w http.ResponseWriter, r *http.Request, users messenger.UserRepository, sessions *auth.Sessions, log *zap.Logger) {
	id, ok := selfOnly(w, r)
	if !ok {
		return
	}

	if err := users.Delete(r.Context(), id); err != nil {
		writeError(w, log, err)
		return
	}
	if err := sessions.SignOut(w, r); err != nil {
		log.Warn("failed to clear session of deleted user", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func GetUserChatsHandler(w http.ResponseWriter, r *http.Request, chats messenger.ChatRepository, log *zap.Logger) {
	id, ok := urlID(w, r, "userID")
	if !ok {
		return
	}

	list, err := chats.GetByUser(r.Context(), id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// selfOnly returns the user id in the path when it is the signed in user.
func selfOnly(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := urlID(w, r, "userID")
	if !ok {
		return uuid.Nil, false
	}
	current, ok := sessionUser(w, r)
	if !ok {
		return uuid.Nil, false
	}
	if current != id {
		writeMessage(w, http.StatusForbidden, "Users can only change their own account")
		return uuid.Nil, false
	}
	return id, true
}
