package models

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatType string

const (
	ChatTypePersonal ChatType = "personal"
	ChatTypeGroup    ChatType = "group"
)

// User is a registered account. Password is only ever read from requests;
// the stored form is PasswordHash.
type User struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primarykey"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
	Name         string         `json:"name" gorm:"size:255;not null"`
	LastName     string         `json:"last_name" gorm:"size:255;not null"`
	Email        string         `json:"email" gorm:"size:255;not null;uniqueIndex:idx_users_email_live,where:deleted_at IS NULL"`
	Password     string         `json:"password,omitempty" gorm:"-"`
	PasswordHash string         `json:"-" gorm:"not null"`
	AvatarID     *uuid.UUID     `json:"avatar_id,omitempty" gorm:"type:uuid;index"`
	Avatar       *Attachment    `json:"-" gorm:"foreignKey:AvatarID;constraint:OnDelete:RESTRICT"`
}

// Attachment is an immutable binary payload with a type tag. When object
// storage is configured File is kept there under StorageKey and the column
// stays empty.
type Attachment struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primarykey"`
	CreatedAt  time.Time `json:"created_at"`
	Type       string    `json:"type" gorm:"size:255;not null"`
	File       []byte    `json:"file,omitempty"`
	StorageKey string    `json:"-" gorm:"size:512"`
}

type Chat struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	Type      ChatType       `json:"type" gorm:"size:16;not null;index"`
	AdminID   *uuid.UUID     `json:"admin_id,omitempty" gorm:"type:uuid"`
	Name      *string        `json:"name,omitempty" gorm:"size:255"`
	AvatarID  *uuid.UUID     `json:"avatar_id,omitempty" gorm:"type:uuid;index"`
	Avatar    *Attachment    `json:"-" gorm:"foreignKey:AvatarID;constraint:OnDelete:RESTRICT"`
	// MemberKey identifies the member set of a personal chat. At most one
	// live personal chat holds a given key; group chats leave it empty.
	MemberKey *string `json:"-" gorm:"size:400;uniqueIndex:idx_chats_personal_members,where:type = 'personal' AND deleted_at IS NULL"`
	Members   []User  `json:"members" gorm:"many2many:chat_members;"`
}

// PersonalMemberKey is the order-independent key of a member set.
func PersonalMemberKey(ids []uuid.UUID) string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	slices.Sort(keys)
	return strings.Join(keys, ",")
}

// ChatMember links a user to a chat. Rows are written together with the chat
// header and never change afterwards.
type ChatMember struct {
	ChatID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

type Message struct {
	ID           uuid.UUID   `json:"id" gorm:"type:uuid;primarykey"`
	ChatID       uuid.UUID   `json:"chat_id" gorm:"type:uuid;not null;index:idx_messages_chat_date,priority:1"`
	AuthorID     uuid.UUID   `json:"author_id" gorm:"type:uuid;not null;index"`
	Date         time.Time   `json:"date" gorm:"not null;index:idx_messages_chat_date,priority:2"`
	Text         *string     `json:"text,omitempty" gorm:"type:text"`
	AttachmentID *uuid.UUID  `json:"attachment_id,omitempty" gorm:"type:uuid;index"`
	Attachment   *Attachment `json:"-" gorm:"foreignKey:AttachmentID;constraint:OnDelete:RESTRICT"`
	SelfDeletion bool        `json:"self_deletion" gorm:"not null"`
}
