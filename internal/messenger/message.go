package messenger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/models"
	"go.uber.org/zap"
)

type MessageRepository interface {
	Send(ctx context.Context, message *models.Message) (*models.Message, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Message, error)
	GetByChat(ctx context.Context, chatID uuid.UUID) ([]models.Message, error)
	GetNew(ctx context.Context, chatID uuid.UUID, known int) ([]models.Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ MessageRepository = (*Messages)(nil)

type Messages struct {
	store     MessageStore
	chats     ChatStore
	validator *MessageValidator
	log       *zap.Logger
	now       func() time.Time
}

func NewMessages(messages MessageStore, chats ChatStore, users UserStore, attachments AttachmentStore, limits Limits, log *zap.Logger) *Messages {
	return &Messages{
		store:     messages,
		chats:     chats,
		validator: NewMessageValidator(users, chats, attachments, limits),
		log:       log.Named("messages"),
		now:       now,
	}
}

// now is truncated to the precision postgres keeps so a stored message reads
// back with the same date.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Send validates the candidate, then stamps it with a new id and the send
// date and stores it.
func (r *Messages) Send(ctx context.Context, candidate *models.Message) (*models.Message, error) {
	log := r.log.With(messageFields(candidate)...)
	log.Info("attempting to send message")

	if err := r.validator.Validate(ctx, candidate); err != nil {
		logRejected(log, "message not sent", err)
		return nil, err
	}

	message := &models.Message{
		ID:           uuid.New(),
		ChatID:       candidate.ChatID,
		AuthorID:     candidate.AuthorID,
		Date:         r.now(),
		Text:         candidate.Text,
		AttachmentID: candidate.AttachmentID,
		SelfDeletion: candidate.SelfDeletion,
	}
	if err := r.store.Create(ctx, message); err != nil {
		if errors.Is(err, ErrReference) {
			// The attachment went away after validation.
			err = invalid("attachment %s does not exist", message.AttachmentID)
			logRejected(log, "message not sent", err)
			return nil, err
		}
		log.Error("failed to send message", zap.Error(err))
		return nil, storageErr("create message", err)
	}

	log.Info("message sent", zap.Stringer("id", message.ID), zap.Time("date", message.Date))
	return message, nil
}

func (r *Messages) Get(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	message, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("get message", err)
	}
	return message, nil
}

// GetByChat returns every message of a live chat, oldest first.
func (r *Messages) GetByChat(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	if _, err := r.chats.GetByID(ctx, chatID); err != nil {
		return nil, lookupErr("get chat", err)
	}
	messages, err := r.store.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, storageErr("get chat messages", err)
	}
	return messages, nil
}

// GetNew serves polling clients: known is how many messages of the chat the
// caller already holds, and the result is whatever the chat has beyond that,
// oldest first.
func (r *Messages) GetNew(ctx context.Context, chatID uuid.UUID, known int) ([]models.Message, error) {
	if known < 0 {
		return nil, invalid("known message count must not be negative")
	}
	if _, err := r.chats.GetByID(ctx, chatID); err != nil {
		return nil, lookupErr("get chat", err)
	}
	messages, err := r.store.GetNewerThanCount(ctx, chatID, known)
	if err != nil {
		return nil, storageErr("get new chat messages", err)
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

func (r *Messages) Delete(ctx context.Context, id uuid.UUID) error {
	log := r.log.With(zap.Stringer("id", id))
	log.Info("attempting to delete message")

	if err := r.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Info("message not deleted: not found")
			return ErrNotFound
		}
		log.Error("failed to delete message", zap.Error(err))
		return storageErr("delete message", err)
	}

	log.Info("message deleted")
	return nil
}

func messageFields(message *models.Message) []zap.Field {
	if message == nil {
		return []zap.Field{zap.Bool("nil_message", true)}
	}
	fields := []zap.Field{
		zap.Stringer("chat_id", message.ChatID),
		zap.Stringer("author_id", message.AuthorID),
		zap.Bool("self_deletion", message.SelfDeletion),
	}
	if message.Text != nil {
		fields = append(fields, zap.Int("text_len", len(*message.Text)))
	}
	if message.AttachmentID != nil {
		fields = append(fields, zap.Stringer("attachment_id", message.AttachmentID))
	}
	return fields
}
