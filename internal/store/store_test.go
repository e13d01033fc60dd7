package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/internal/messenger"
	"github.com/petermazzocco/go-messenger/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB connects to TEST_DATABASE_URL and migrates it. Every test gets
// fresh tables.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	db, err := Open(dsn, logger.Discard)
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropTable(
		&models.Message{}, &models.ChatMember{}, &models.Chat{}, &models.User{}, &models.Attachment{},
	))
	require.NoError(t, Migrate(db))
	return db
}

func newUser(t *testing.T, users *Users, email string) *models.User {
	t.Helper()
	u := &models.User{ID: uuid.New(), Name: "Test", LastName: "User", Email: email, PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func personalChat(members ...*models.User) *models.Chat {
	chat := &models.Chat{ID: uuid.New(), Type: models.ChatTypePersonal}
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		chat.Members = append(chat.Members, *m)
		ids = append(ids, m.ID)
	}
	key := models.PersonalMemberKey(ids)
	chat.MemberKey = &key
	return chat
}

func TestUsers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUsers(db)

	ann := newUser(t, users, "ann@example.com")

	got, err := users.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, ann.ID, got.ID)

	dup := &models.User{ID: uuid.New(), Name: "A", LastName: "B", Email: "ann@example.com", PasswordHash: "x"}
	assert.ErrorIs(t, users.Create(ctx, dup), messenger.ErrDuplicate)

	got.Name = "Anna"
	got.AvatarID = nil
	require.NoError(t, users.Update(ctx, got))
	got, err = users.GetByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Name)

	require.NoError(t, users.Delete(ctx, ann.ID))
	_, err = users.GetByID(ctx, ann.ID)
	assert.ErrorIs(t, err, messenger.ErrNotFound)
	assert.ErrorIs(t, users.Delete(ctx, ann.ID), messenger.ErrNotFound)

	// The unique index only covers live rows.
	newUser(t, users, "ann@example.com")
}

func TestChats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUsers(db)
	chats := NewChats(db)

	a := newUser(t, users, "a@example.com")
	b := newUser(t, users, "b@example.com")
	c := newUser(t, users, "c@example.com")

	personal := personalChat(a, b)
	require.NoError(t, chats.CreateWithMembers(ctx, personal))

	got, err := chats.GetByID(ctx, personal.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, []uuid.UUID{got.Members[0].ID, got.Members[1].ID})

	exists, err := chats.ExistsPersonalChat(ctx, []uuid.UUID{b.ID, a.ID})
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = chats.ExistsPersonalChat(ctx, []uuid.UUID{a.ID})
	require.NoError(t, err)
	assert.False(t, exists, "a subset is a different member set")

	exists, err = chats.ExistsPersonalChat(ctx, []uuid.UUID{a.ID, c.ID})
	require.NoError(t, err)
	assert.False(t, exists)

	list, err := chats.GetByUserID(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Members, 2)

	require.NoError(t, chats.Delete(ctx, personal.ID))
	exists, err = chats.ExistsPersonalChat(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.False(t, exists)
	_, err = chats.GetByID(ctx, personal.ID)
	assert.ErrorIs(t, err, messenger.ErrNotFound)
}

func TestChatCreateRollsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUsers(db)
	chats := NewChats(db)
	a := newUser(t, users, "a@example.com")

	// The same member twice violates the membership primary key.
	chat := &models.Chat{ID: uuid.New(), Type: models.ChatTypePersonal, Members: []models.User{*a, *a}}
	require.Error(t, chats.CreateWithMembers(ctx, chat))

	_, err := chats.GetByID(ctx, chat.ID)
	assert.ErrorIs(t, err, messenger.ErrNotFound)
}

func TestMessagesGetNewerThanCount(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUsers(db)
	chats := NewChats(db)
	messages := NewMessages(db)

	a := newUser(t, users, "a@example.com")
	chat := &models.Chat{ID: uuid.New(), Type: models.ChatTypePersonal, Members: []models.User{*a}}
	require.NoError(t, chats.CreateWithMembers(ctx, chat))

	start := time.Now().UTC().Truncate(time.Microsecond)
	var ids []uuid.UUID
	for i := range 5 {
		text := "message"
		m := &models.Message{ID: uuid.New(), ChatID: chat.ID, AuthorID: a.ID, Date: start.Add(time.Duration(i) * time.Second), Text: &text}
		require.NoError(t, messages.Create(ctx, m))
		ids = append(ids, m.ID)
	}

	got, err := messages.GetNewerThanCount(ctx, chat.ID, 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[3], got[0].ID)
	assert.Equal(t, ids[4], got[1].ID)
	assert.True(t, got[1].Date.Equal(start.Add(4*time.Second)))

	got, err = messages.GetNewerThanCount(ctx, chat.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	all, err := messages.GetByChatID(ctx, chat.ID)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestAttachmentReferences(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUsers(db)
	attachments := NewAttachments(db, nil)

	att := &models.Attachment{ID: uuid.New(), Type: "png", File: []byte{1, 2, 3}}
	require.NoError(t, attachments.Create(ctx, att))

	got, err := attachments.GetByID(ctx, att.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got.File)

	u := &models.User{ID: uuid.New(), Name: "A", LastName: "B", Email: "a@example.com", PasswordHash: "x", AvatarID: &att.ID}
	require.NoError(t, users.Create(ctx, u))

	used, err := users.ReferencesAvatar(ctx, att.ID)
	require.NoError(t, err)
	assert.True(t, used)

	require.NoError(t, users.Delete(ctx, u.ID))
	used, err = users.ReferencesAvatar(ctx, att.ID)
	require.NoError(t, err)
	assert.False(t, used)

	require.NoError(t, attachments.Delete(ctx, att.ID))
	ok, err := attachments.Exists(ctx, att.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPersonalChatMemberKeyUnique(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUsers(db)
	chats := NewChats(db)

	a := newUser(t, users, "a@example.com")
	b := newUser(t, users, "b@example.com")
	c := newUser(t, users, "c@example.com")

	first := personalChat(a, b)
	require.NoError(t, chats.CreateWithMembers(ctx, first))

	// Member order does not matter.
	err := chats.CreateWithMembers(ctx, personalChat(b, a))
	assert.ErrorIs(t, err, messenger.ErrDuplicate)

	// Group chats carry no key and never collide.
	name := "group"
	for range 2 {
		group := &models.Chat{ID: uuid.New(), Type: models.ChatTypeGroup, AdminID: &a.ID, Name: &name, Members: []models.User{*a, *b, *c}}
		require.NoError(t, chats.CreateWithMembers(ctx, group))
	}

	// A deleted chat frees its member set.
	require.NoError(t, chats.Delete(ctx, first.ID))
	require.NoError(t, chats.CreateWithMembers(ctx, personalChat(a, b)))
}

func TestAttachmentDeleteRestricted(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUsers(db)
	chats := NewChats(db)
	messages := NewMessages(db)
	attachments := NewAttachments(db, nil)

	a := newUser(t, users, "a@example.com")
	chat := personalChat(a)
	require.NoError(t, chats.CreateWithMembers(ctx, chat))

	att := &models.Attachment{ID: uuid.New(), Type: "png", File: []byte{1}}
	require.NoError(t, attachments.Create(ctx, att))
	m := &models.Message{ID: uuid.New(), ChatID: chat.ID, AuthorID: a.ID, Date: time.Now().UTC(), AttachmentID: &att.ID}
	require.NoError(t, messages.Create(ctx, m))

	// The foreign key holds even when nobody checked the references first.
	assert.ErrorIs(t, attachments.Delete(ctx, att.ID), messenger.ErrReference)
	ok, err := attachments.Exists(ctx, att.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, messages.Delete(ctx, m.ID))
	require.NoError(t, attachments.Delete(ctx, att.ID))

	// Writing a reference to a missing attachment is refused too.
	gone := uuid.New()
	m = &models.Message{ID: uuid.New(), ChatID: chat.ID, AuthorID: a.ID, Date: time.Now().UTC(), AttachmentID: &gone}
	assert.ErrorIs(t, messages.Create(ctx, m), messenger.ErrReference)
}
