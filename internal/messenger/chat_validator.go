package messenger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/models"
)

type ChatValidator struct {
	users       UserStore
	chats       ChatStore
	attachments AttachmentStore
	limits      Limits
}

func NewChatValidator(users UserStore, chats ChatStore, attachments AttachmentStore, limits Limits) *ChatValidator {
	return &ChatValidator{users: users, chats: chats, attachments: attachments, limits: limits}
}

// Validate resolves the candidate's members, derives the chat type and checks
// the rules for that type. On success it returns the chat to persist: resolved
// members, derived type, and for personal chats no admin, name or avatar. The
// returned chat has no id yet. The candidate itself is not modified.
//
// The uniqueness check for personal chats is advisory; the store's unique
// member key settles concurrent creates.
func (v *ChatValidator) Validate(ctx context.Context, candidate *models.Chat) (*models.Chat, error) {
	if candidate == nil || candidate.Members == nil {
		return nil, invalid("members are required")
	}
	if n := len(candidate.Members); !v.limits.ChatMembers.Contains(n) {
		return nil, invalid("chat must have between %d and %d members, got %d",
			v.limits.ChatMembers.Min, v.limits.ChatMembers.Max, n)
	}

	members, err := v.resolveMembers(ctx, candidate.Members)
	if err != nil {
		return nil, err
	}

	chat := &models.Chat{Members: members}
	if len(members) > 2 {
		chat.Type = models.ChatTypeGroup
	} else {
		chat.Type = models.ChatTypePersonal
	}

	if chat.Type == models.ChatTypePersonal {
		// Admin, name and avatar mean nothing for a personal chat and are
		// dropped without being checked.
		if err := v.checkPersonalUnique(ctx, members); err != nil {
			return nil, err
		}
		key := models.PersonalMemberKey(memberIDs(members))
		chat.MemberKey = &key
		return chat, nil
	}

	chat.AdminID = candidate.AdminID
	chat.Name = candidate.Name
	chat.AvatarID = candidate.AvatarID
	normalizeRef(&chat.AdminID)
	normalizeRef(&chat.AvatarID)

	if chat.Name == nil || !v.limits.ChatName.Contains(runes(*chat.Name)) {
		return nil, invalid("group chat name length must be within [%d, %d]",
			v.limits.ChatName.Min, v.limits.ChatName.Max)
	}
	if !isMember(members, chat.AdminID) {
		return nil, invalid("group chat admin must be one of its members")
	}
	ok, err := attachmentExists(ctx, v.attachments, chat.AvatarID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalid("avatar %s does not exist", chat.AvatarID)
	}
	return chat, nil
}

// resolveMembers looks up every referenced user. A single unknown or repeated
// member rejects the whole chat.
func (v *ChatValidator) resolveMembers(ctx context.Context, refs []models.User) ([]models.User, error) {
	seen := make(map[uuid.UUID]struct{}, len(refs))
	members := make([]models.User, 0, len(refs))
	for _, ref := range refs {
		if ref.ID == uuid.Nil {
			return nil, invalid("member id is required")
		}
		if _, dup := seen[ref.ID]; dup {
			return nil, invalid("member %s is listed more than once", ref.ID)
		}
		seen[ref.ID] = struct{}{}

		user, err := v.users.GetByID(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, invalid("member %s does not exist", ref.ID)
			}
			return nil, storageErr("get chat member", err)
		}
		members = append(members, *user)
	}
	return members, nil
}

func (v *ChatValidator) checkPersonalUnique(ctx context.Context, members []models.User) error {
	exists, err := v.chats.ExistsPersonalChat(ctx, memberIDs(members))
	if err != nil {
		return storageErr("check personal chat", err)
	}
	if exists {
		return invalid("a personal chat with the same members already exists")
	}
	return nil
}

func isMember(members []models.User, id *uuid.UUID) bool {
	if id == nil {
		return false
	}
	for _, m := range members {
		if m.ID == *id {
			return true
		}
	}
	return false
}

func memberIDs(members []models.User) []uuid.UUID {
	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}
