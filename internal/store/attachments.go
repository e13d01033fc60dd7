package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/internal/messenger"
	"github.com/petermazzocco/go-messenger/models"
	"gorm.io/gorm"
)

var _ messenger.AttachmentStore = (*Attachments)(nil)

// Blobs keeps attachment payloads outside the database.
type Blobs interface {
	Put(ctx context.Context, key, fileType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

var errNoBlobs = errors.New("attachment payload is in object storage but none is configured")

// Attachments stores payloads inline in the file column unless blobs is
// set, in which case only the storage key is kept in the row.
type Attachments struct {
	db    *gorm.DB
	blobs Blobs
}

func NewAttachments(db *gorm.DB, blobs Blobs) *Attachments {
	return &Attachments{db: db, blobs: blobs}
}

func blobKey(id uuid.UUID) string {
	return "attachments/" + id.String()
}

func (s *Attachments) Create(ctx context.Context, attachment *models.Attachment) error {
	if s.blobs == nil {
		return translate(s.db.WithContext(ctx).Create(attachment).Error)
	}

	key := blobKey(attachment.ID)
	if err := s.blobs.Put(ctx, key, attachment.Type, attachment.File); err != nil {
		return fmt.Errorf("put attachment payload: %w", err)
	}
	row := *attachment
	row.File = nil
	row.StorageKey = key
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		// Best effort; an orphaned object is harmless.
		_ = s.blobs.Delete(ctx, key)
		return translate(err)
	}
	attachment.CreatedAt = row.CreatedAt
	attachment.StorageKey = key
	return nil
}

func (s *Attachments) GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := s.db.WithContext(ctx).First(&attachment, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	if attachment.StorageKey == "" {
		return &attachment, nil
	}
	if s.blobs == nil {
		return nil, errNoBlobs
	}
	data, err := s.blobs.Get(ctx, attachment.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("get attachment payload: %w", err)
	}
	attachment.File = data
	return &attachment, nil
}

// Exists never loads the payload.
func (s *Attachments) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return exists(s.db.WithContext(ctx).Model(&models.Attachment{}).Where("id = ?", id))
}

func (s *Attachments) Delete(ctx context.Context, id uuid.UUID) error {
	var attachment models.Attachment
	err := s.db.WithContext(ctx).Select("id", "storage_key").First(&attachment, "id = ?", id).Error
	if err != nil {
		return translate(err)
	}
	if err := affected(s.db.WithContext(ctx).Delete(&models.Attachment{}, "id = ?", id)); err != nil {
		return err
	}
	if attachment.StorageKey != "" && s.blobs != nil {
		// The row is gone already; a leftover object is only wasted space.
		_ = s.blobs.Delete(ctx, attachment.StorageKey)
	}
	return nil
}
