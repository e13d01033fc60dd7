package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/internal/messenger"
	"github.com/petermazzocco/go-messenger/internal/metrics"
	"github.com/petermazzocco/go-messenger/models"
	"go.uber.org/zap"
)

// SendMessageHandler stores a message. Without an explicit author the signed
// in user is the author.
func SendMessageHandler(w http.ResponseWriter, r *http.Request, messages messenger.MessageRepository, log *zap.Logger) {
	var candidate models.Message
	if !decode(w, r, &candidate) {
		return
	}
	if candidate.AuthorID == uuid.Nil {
		current, ok := sessionUser(w, r)
		if !ok {
			return
		}
		candidate.AuthorID = current
	}

	message, err := messages.Send(r.Context(), &candidate)
	if err != nil {
		writeError(w, log, err)
		return
	}
	metrics.EntityCreated("message")
	writeJSON(w, http.StatusCreated, message)
}

func GetMessageHandler(w http.ResponseWriter, r *http.Request, messages messenger.MessageRepository, log *zap.Logger) {
	id, ok := urlID(w, r, "messageID")
	if !ok {
		return
	}

	message, err := messages.Get(r.Context(), id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, message)
}

func DeleteMessageHandler(w http.ResponseWriter, r *http.Request, messages messenger.MessageRepository, log *zap.Logger) {
	id, ok := urlID(w, r, "messageID")
	if !ok {
		return
	}

	if err := messages.Delete(r.Context(), id); err != nil {
		writeError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
