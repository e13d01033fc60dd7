package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/internal/messenger"
	"github.com/petermazzocco/go-messenger/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ messenger.ChatStore = (*Chats)(nil)

type Chats struct {
	db *gorm.DB
}

func NewChats(db *gorm.DB) *Chats {
	return &Chats{db: db}
}

// CreateWithMembers inserts the chat header and its membership links in one
// transaction. Members are linked by id only; the user rows are not touched.
func (s *Chats) CreateWithMembers(ctx context.Context, chat *models.Chat) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(chat).Error; err != nil {
			return err
		}
		links := make([]models.ChatMember, 0, len(chat.Members))
		for _, member := range chat.Members {
			links = append(links, models.ChatMember{ChatID: chat.ID, UserID: member.ID})
		}
		return tx.Create(&links).Error
	})
	return translate(err)
}

func (s *Chats) GetByID(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	if err := s.db.WithContext(ctx).Preload("Members").First(&chat, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

func (s *Chats) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Chat, error) {
	var chats []models.Chat
	err := s.db.WithContext(ctx).
		Preload("Members").
		Joins("JOIN chat_members ON chat_members.chat_id = chats.id").
		Where("chat_members.user_id = ?", userID).
		Order("chats.created_at").
		Find(&chats).Error
	if err != nil {
		return nil, translate(err)
	}
	return chats, nil
}

// Delete is a soft delete; membership links stay. The avatar link is
// cleared so the attachment can be removed afterwards.
func (s *Chats) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Model(&models.Chat{}).
		Where("id = ?", id).
		Updates(map[string]any{"deleted_at": time.Now(), "avatar_id": nil})
	return affected(res)
}

// ExistsPersonalChat looks the member set up by its key, the same column
// the unique index guards.
func (s *Chats) ExistsPersonalChat(ctx context.Context, memberIDs []uuid.UUID) (bool, error) {
	if len(memberIDs) == 0 {
		return false, nil
	}
	return exists(s.db.WithContext(ctx).
		Model(&models.Chat{}).
		Where("type = ? AND member_key = ?", models.ChatTypePersonal, models.PersonalMemberKey(memberIDs)))
}

func (s *Chats) ReferencesAvatar(ctx context.Context, attachmentID uuid.UUID) (bool, error) {
	return exists(s.db.WithContext(ctx).Model(&models.Chat{}).Where("avatar_id = ?", attachmentID))
}
