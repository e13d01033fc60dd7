package messenger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/models"
	"go.uber.org/zap"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *models.Chat) (*models.Chat, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Chat, error)
	GetByUser(ctx context.Context, userID uuid.UUID) ([]models.Chat, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ ChatRepository = (*Chats)(nil)

type Chats struct {
	store     ChatStore
	users     UserStore
	validator *ChatValidator
	log       *zap.Logger
}

func NewChats(chats ChatStore, users UserStore, attachments AttachmentStore, limits Limits, log *zap.Logger) *Chats {
	return &Chats{
		store:     chats,
		users:     users,
		validator: NewChatValidator(users, chats, attachments, limits),
		log:       log.Named("chats"),
	}
}

// Create validates the candidate and stores it with its membership links.
// Chats with one or two members are personal, larger ones are groups.
func (r *Chats) Create(ctx context.Context, candidate *models.Chat) (*models.Chat, error) {
	log := r.log.With(chatFields(candidate)...)
	log.Info("attempting to create chat")

	chat, err := r.validator.Validate(ctx, candidate)
	if err != nil {
		logRejected(log, "chat not created", err)
		return nil, err
	}

	chat.ID = uuid.New()
	if err := r.store.CreateWithMembers(ctx, chat); err != nil {
		if errors.Is(err, ErrDuplicate) {
			err = invalid("a personal chat with the same members already exists")
			logRejected(log, "chat not created", err)
			return nil, err
		}
		if errors.Is(err, ErrReference) {
			err = invalid("chat references an attachment or user that no longer exists")
			logRejected(log, "chat not created", err)
			return nil, err
		}
		log.Error("failed to create chat", zap.Error(err))
		return nil, storageErr("create chat", err)
	}

	log.Info("chat created", zap.Stringer("id", chat.ID), zap.String("type", string(chat.Type)))
	return chat, nil
}

func (r *Chats) Get(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	chat, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("get chat", err)
	}
	return chat, nil
}

// GetByUser lists the live chats userID belongs to. An unknown user is
// ErrNotFound rather than an empty list.
func (r *Chats) GetByUser(ctx context.Context, userID uuid.UUID) ([]models.Chat, error) {
	if _, err := r.users.GetByID(ctx, userID); err != nil {
		return nil, lookupErr("get user", err)
	}
	chats, err := r.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, storageErr("get user chats", err)
	}
	return chats, nil
}

// Delete soft-deletes the chat. Its messages stay stored but no longer
// accept new ones.
func (r *Chats) Delete(ctx context.Context, id uuid.UUID) error {
	log := r.log.With(zap.Stringer("id", id))
	log.Info("attempting to delete chat")

	if err := r.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Info("chat not deleted: not found")
			return ErrNotFound
		}
		log.Error("failed to delete chat", zap.Error(err))
		return storageErr("delete chat", err)
	}

	log.Info("chat deleted")
	return nil
}

func chatFields(chat *models.Chat) []zap.Field {
	if chat == nil {
		return []zap.Field{zap.Bool("nil_chat", true)}
	}
	fields := []zap.Field{zap.Stringers("members", memberIDs(chat.Members))}
	if chat.AdminID != nil {
		fields = append(fields, zap.Stringer("admin_id", chat.AdminID))
	}
	if chat.Name != nil {
		fields = append(fields, zap.String("name", *chat.Name))
	}
	if chat.AvatarID != nil {
		fields = append(fields, zap.Stringer("avatar_id", chat.AvatarID))
	}
	return fields
}
