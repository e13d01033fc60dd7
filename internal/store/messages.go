package store

import (
	"context"
	"database/sql"
	"slices"

	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/internal/messenger"
	"github.com/petermazzocco/go-messenger/models"
	"gorm.io/gorm"
)

var _ messenger.MessageStore = (*Messages)(nil)

type Messages struct {
	db *gorm.DB
}

func NewMessages(db *gorm.DB) *Messages {
	return &Messages{db: db}
}

func (s *Messages) Create(ctx context.Context, message *models.Message) error {
	return translate(s.db.WithContext(ctx).Create(message).Error)
}

func (s *Messages) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	if err := s.db.WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &message, nil
}

func (s *Messages) GetByChatID(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("date, id").
		Find(&messages).Error
	if err != nil {
		return nil, translate(err)
	}
	return messages, nil
}

// GetNewerThanCount counts and reads inside one repeatable-read transaction
// so the count and the rows agree.
func (s *Messages) GetNewerThanCount(ctx context.Context, chatID uuid.UUID, known int) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var total int64
		if err := tx.Model(&models.Message{}).Where("chat_id = ?", chatID).Count(&total).Error; err != nil {
			return err
		}
		fresh := int(total) - known
		if fresh <= 0 {
			return nil
		}
		return tx.Where("chat_id = ?", chatID).
			Order("date DESC, id DESC").
			Limit(fresh).
			Find(&messages).Error
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, translate(err)
	}
	slices.Reverse(messages)
	return messages, nil
}

func (s *Messages) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", id))
}

func (s *Messages) ReferencesAttachment(ctx context.Context, attachmentID uuid.UUID) (bool, error) {
	return exists(s.db.WithContext(ctx).Model(&models.Message{}).Where("attachment_id = ?", attachmentID))
}
