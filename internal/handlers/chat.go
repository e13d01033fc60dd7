package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/internal/messenger"
	"github.com/petermazzocco/go-messenger/internal/metrics"
	"github.com/petermazzocco/go-messenger/models"
	"go.uber.org/zap"
)

// createChatRequest lists members by id only. The admin defaults to the
// signed in user.
type createChatRequest struct {
	MemberIDs []uuid.UUID `json:"member_ids"`
	AdminID   *uuid.UUID  `json:"admin_id,omitempty"`
	Name      *string     `json:"name,omitempty"`
	AvatarID  *uuid.UUID  `json:"avatar_id,omitempty"`
}

func CreateChatHandler(w http.ResponseWriter, r *http.Request, chats messenger.ChatRepository, log *zap.Logger) {
	var req createChatRequest
	if !decode(w, r, &req) {
		return
	}
	candidate := &models.Chat{
		AdminID:  req.AdminID,
		Name:     req.Name,
		AvatarID: req.AvatarID,
	}
	if req.MemberIDs != nil {
		candidate.Members = make([]models.User, len(req.MemberIDs))
		for i, id := range req.MemberIDs {
			candidate.Members[i].ID = id
		}
	}
	if candidate.AdminID == nil {
		current, ok := sessionUser(w, r)
		if !ok {
			return
		}
		candidate.AdminID = &current
	}

	chat, err := chats.Create(r.Context(), candidate)
	if err != nil {
		writeError(w, log, err)
		return
	}
	metrics.EntityCreated("chat")
	writeJSON(w, http.StatusCreated, chat)
}

func GetChatHandler(w http.ResponseWriter, r *http.Request, chats messenger.ChatRepository, log *zap.Logger) {
	id, ok := urlID(w, r, "chatID")
	if !ok {
		return
	}

	chat, err := chats.Get(r.Context(), id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func DeleteChatHandler(w http.ResponseWriter, r *http.Request, chats messenger.ChatRepository, log *zap.Logger) {
	id, ok := urlID(w, r, "chatID")
	if !ok {
		return
	}

	if err := chats.Delete(r.Context(), id); err != nil {
		writeError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func GetChatMessagesHandler(w http.ResponseWriter, r *http.Request, messages messenger.MessageRepository, log *zap.Logger) {
	id, ok := urlID(w, r, "chatID")
	if !ok {
		return
	}

	list, err := messages.GetByChat(r.Context(), id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetNewMessagesHandler answers a poll: the client sends how many messages it
// already holds and gets back the ones after those.
func GetNewMessagesHandler(w http.ResponseWriter, r *http.Request, messages messenger.MessageRepository, log *zap.Logger) {
	id, ok := urlID(w, r, "chatID")
	if !ok {
		return
	}
	known, err := strconv.Atoi(r.URL.Query().Get("known"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid known count")
		return
	}

	list, err := messages.GetNew(r.Context(), id, known)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
