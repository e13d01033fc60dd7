package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/internal/messenger"
	"github.com/petermazzocco/go-messenger/models"
	"gorm.io/gorm"
)

var _ messenger.UserStore = (*Users)(nil)

type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (s *Users) Create(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *Users) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Update writes every profile column, including a cleared avatar.
func (s *Users) Update(ctx context.Context, user *models.User) error {
	res := s.db.WithContext(ctx).
		Model(user).
		Select("name", "last_name", "email", "password_hash", "avatar_id", "updated_at").
		Updates(user)
	return affected(res)
}

// Delete is a soft delete. The avatar link is cleared in the same statement
// so a deleted user never keeps its attachment from being removed.
func (s *Users) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"deleted_at": time.Now(), "avatar_id": nil})
	return affected(res)
}

func (s *Users) ReferencesAvatar(ctx context.Context, attachmentID uuid.UUID) (bool, error) {
	return exists(s.db.WithContext(ctx).Model(&models.User{}).Where("avatar_id = ?", attachmentID))
}
