package messenger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/models"
	"go.uber.org/zap"
)

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.Attachment) (*models.Attachment, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ AttachmentRepository = (*Attachments)(nil)

type Attachments struct {
	store     AttachmentStore
	users     UserStore
	chats     ChatStore
	messages  MessageStore
	validator *AttachmentValidator
	log       *zap.Logger
}

func NewAttachments(attachments AttachmentStore, users UserStore, chats ChatStore, messages MessageStore, limits Limits, log *zap.Logger) *Attachments {
	return &Attachments{
		store:     attachments,
		users:     users,
		chats:     chats,
		messages:  messages,
		validator: NewAttachmentValidator(limits),
		log:       log.Named("attachments"),
	}
}

func (r *Attachments) Create(ctx context.Context, candidate *models.Attachment) (*models.Attachment, error) {
	log := r.log
	if candidate != nil {
		log = log.With(zap.String("type", candidate.Type), zap.Int("size", len(candidate.File)))
	}
	log.Info("attempting to create attachment")

	if err := r.validator.Validate(candidate); err != nil {
		logRejected(log, "attachment not created", err)
		return nil, err
	}

	attachment := &models.Attachment{
		ID:   uuid.New(),
		Type: candidate.Type,
		File: candidate.File,
	}
	if err := r.store.Create(ctx, attachment); err != nil {
		log.Error("failed to create attachment", zap.Error(err))
		return nil, storageErr("create attachment", err)
	}

	log.Info("attachment created", zap.Stringer("id", attachment.ID))
	return attachment, nil
}

func (r *Attachments) Get(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	attachment, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("get attachment", err)
	}
	return attachment, nil
}

// Delete removes an attachment nobody points at any more. A live user or
// chat avatar, or any message, referencing it yields ErrInUse. The checks
// give a precise log line; the store's foreign keys catch a reference added
// in between.
func (r *Attachments) Delete(ctx context.Context, id uuid.UUID) error {
	log := r.log.With(zap.Stringer("id", id))
	log.Info("attempting to delete attachment")

	exists, err := r.store.Exists(ctx, id)
	if err != nil {
		return storageErr("check attachment", err)
	}
	if !exists {
		log.Info("attachment not deleted: not found")
		return ErrNotFound
	}

	refs := []struct {
		what  string
		check func(context.Context, uuid.UUID) (bool, error)
	}{
		{"user avatar", r.users.ReferencesAvatar},
		{"chat avatar", r.chats.ReferencesAvatar},
		{"message", r.messages.ReferencesAttachment},
	}
	for _, ref := range refs {
		used, err := ref.check(ctx, id)
		if err != nil {
			return storageErr("check attachment references", err)
		}
		if used {
			log.Info("attachment not deleted: still referenced", zap.String("by", ref.what))
			return ErrInUse
		}
	}

	if err := r.store.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return ErrNotFound
		case errors.Is(err, ErrReference):
			log.Info("attachment not deleted: referenced concurrently")
			return ErrInUse
		}
		log.Error("failed to delete attachment", zap.Error(err))
		return storageErr("delete attachment", err)
	}

	log.Info("attachment deleted")
	return nil
}
