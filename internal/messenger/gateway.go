package messenger

import (
	"context"

	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/models"
)

// Stores return ErrNotFound when a lookup or delete matches no live row,
// ErrDuplicate when a unique constraint rejects a write and ErrReference when
// a write would leave a reference to a missing attachment or user dangling.
// Any other error is a storage failure.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	ReferencesAvatar(ctx context.Context, attachmentID uuid.UUID) (bool, error)
}

type ChatStore interface {
	// CreateWithMembers writes the chat header and one membership link per
	// member in a single transaction.
	CreateWithMembers(ctx context.Context, chat *models.Chat) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Chat, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Chat, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ExistsPersonalChat reports whether a live personal chat has exactly
	// this member set.
	ExistsPersonalChat(ctx context.Context, memberIDs []uuid.UUID) (bool, error)
	ReferencesAvatar(ctx context.Context, attachmentID uuid.UUID) (bool, error)
}

type MessageStore interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	GetByChatID(ctx context.Context, chatID uuid.UUID) ([]models.Message, error)
	// GetNewerThanCount returns the newest count(chat)-known messages in
	// chronological order, or none when the caller is up to date.
	GetNewerThanCount(ctx context.Context, chatID uuid.UUID, known int) ([]models.Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ReferencesAttachment(ctx context.Context, attachmentID uuid.UUID) (bool, error)
}

type AttachmentStore interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
