package messenger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/models"
)

type MessageValidator struct {
	users       UserStore
	chats       ChatStore
	attachments AttachmentStore
	limits      Limits
}

func NewMessageValidator(users UserStore, chats ChatStore, attachments AttachmentStore, limits Limits) *MessageValidator {
	return &MessageValidator{users: users, chats: chats, attachments: attachments, limits: limits}
}

// Validate decides whether candidate may be sent. An empty text and a nil
// attachment id count as absent; at least one of the two must remain.
func (v *MessageValidator) Validate(ctx context.Context, candidate *models.Message) error {
	if candidate == nil {
		return invalid("message is missing")
	}
	normalizeText(&candidate.Text)
	normalizeRef(&candidate.AttachmentID)

	switch {
	case candidate.ChatID == uuid.Nil:
		return invalid("chat id is required")
	case candidate.AuthorID == uuid.Nil:
		return invalid("author id is required")
	case candidate.Text == nil && candidate.AttachmentID == nil:
		return invalid("message needs text or an attachment")
	}

	if _, err := v.chats.GetByID(ctx, candidate.ChatID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalid("chat %s does not exist", candidate.ChatID)
		}
		return storageErr("get chat", err)
	}
	if _, err := v.users.GetByID(ctx, candidate.AuthorID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalid("author %s does not exist", candidate.AuthorID)
		}
		return storageErr("get author", err)
	}

	ok, err := attachmentExists(ctx, v.attachments, candidate.AttachmentID)
	if err != nil {
		return err
	}
	if !ok {
		return invalid("attachment %s does not exist", candidate.AttachmentID)
	}

	if candidate.Text != nil && !v.limits.MessageText.Contains(runes(*candidate.Text)) {
		return invalid("text length must be within [%d, %d]", v.limits.MessageText.Min, v.limits.MessageText.Max)
	}
	return nil
}
