package messenger

import (
	"context"
	"slices"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/models"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsers struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]models.User
	deleted map[uuid.UUID]bool
	err     error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: map[uuid.UUID]models.User{}, deleted: map[uuid.UUID]bool{}}
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for id, u := range f.rows {
		if !f.deleted[id] && u.Email == user.Email {
			return ErrDuplicate
		}
	}
	f.rows[user.ID] = *user
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.rows[id]
	if !ok || f.deleted[id] {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for id, u := range f.rows {
		if !f.deleted[id] && u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeUsers) Update(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.rows[user.ID]; !ok || f.deleted[user.ID] {
		return ErrNotFound
	}
	f.rows[user.ID] = *user
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok || f.deleted[id] {
		return ErrNotFound
	}
	f.deleted[id] = true
	return nil
}

func (f *fakeUsers) ReferencesAvatar(_ context.Context, attachmentID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, u := range f.rows {
		if !f.deleted[id] && u.AvatarID != nil && *u.AvatarID == attachmentID {
			return true, nil
		}
	}
	return false, nil
}

type fakeChats struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]models.Chat
	order   []uuid.UUID
	deleted map[uuid.UUID]bool
	err     error
}

func newFakeChats() *fakeChats {
	return &fakeChats{rows: map[uuid.UUID]models.Chat{}, deleted: map[uuid.UUID]bool{}}
}

func (f *fakeChats) CreateWithMembers(_ context.Context, chat *models.Chat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if chat.MemberKey != nil {
		// Mirrors the partial unique index on live personal chats.
		for id, c := range f.rows {
			if !f.deleted[id] && c.MemberKey != nil && *c.MemberKey == *chat.MemberKey {
				return ErrDuplicate
			}
		}
	}
	c := *chat
	c.Members = slices.Clone(chat.Members)
	f.rows[c.ID] = c
	f.order = append(f.order, c.ID)
	return nil
}

func (f *fakeChats) GetByID(_ context.Context, id uuid.UUID) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.rows[id]
	if !ok || f.deleted[id] {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (f *fakeChats) GetByUserID(_ context.Context, userID uuid.UUID) ([]models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Chat
	for _, id := range f.order {
		if f.deleted[id] {
			continue
		}
		c := f.rows[id]
		if isMember(c.Members, &userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChats) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok || f.deleted[id] {
		return ErrNotFound
	}
	f.deleted[id] = true
	return nil
}

func (f *fakeChats) ExistsPersonalChat(_ context.Context, ids []uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	want := sortedIDs(ids)
	for id, c := range f.rows {
		if f.deleted[id] || c.Type != models.ChatTypePersonal {
			continue
		}
		if slices.Equal(sortedIDs(memberIDs(c.Members)), want) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeChats) ReferencesAvatar(_ context.Context, attachmentID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.rows {
		if !f.deleted[id] && c.AvatarID != nil && *c.AvatarID == attachmentID {
			return true, nil
		}
	}
	return false, nil
}

func sortedIDs(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	sort.Strings(out)
	return out
}

type fakeMessages struct {
	mu   sync.Mutex
	rows []models.Message
	err  error
}

func (f *fakeMessages) Create(_ context.Context, message *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, *message)
	return nil
}

func (f *fakeMessages) GetByID(_ context.Context, id uuid.UUID) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.rows {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeMessages) GetByChatID(_ context.Context, chatID uuid.UUID) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.rows {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessages) GetNewerThanCount(ctx context.Context, chatID uuid.UUID, known int) ([]models.Message, error) {
	all, _ := f.GetByChatID(ctx, chatID)
	fresh := len(all) - known
	if fresh <= 0 {
		return nil, nil
	}
	return all[len(all)-fresh:], nil
}

func (f *fakeMessages) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.rows {
		if m.ID == id {
			f.rows = slices.Delete(f.rows, i, i+1)
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeMessages) ReferencesAttachment(_ context.Context, attachmentID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.rows {
		if m.AttachmentID != nil && *m.AttachmentID == attachmentID {
			return true, nil
		}
	}
	return false, nil
}

type fakeAttachments struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]models.Attachment
	err       error
	deleteErr error
}

func newFakeAttachments() *fakeAttachments {
	return &fakeAttachments{rows: map[uuid.UUID]models.Attachment{}}
}

func (f *fakeAttachments) Create(_ context.Context, attachment *models.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows[attachment.ID] = *attachment
	return nil
}

func (f *fakeAttachments) GetByID(_ context.Context, id uuid.UUID) (*models.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (f *fakeAttachments) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.rows[id]
	return ok, nil
}

func (f *fakeAttachments) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.rows[id]; !ok {
		return ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

// env wires every repository over one set of in-memory stores.
type env struct {
	userStore       *fakeUsers
	chatStore       *fakeChats
	messageStore    *fakeMessages
	attachmentStore *fakeAttachments

	users       *Users
	chats       *Chats
	messages    *Messages
	attachments *Attachments
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		userStore:       newFakeUsers(),
		chatStore:       newFakeChats(),
		messageStore:    &fakeMessages{},
		attachmentStore: newFakeAttachments(),
	}
	log := zaptest.NewLogger(t)
	limits := DefaultLimits()

	e.users = NewUsers(e.userStore, e.attachmentStore, limits, log)
	e.users.hashCost = bcrypt.MinCost
	e.chats = NewChats(e.chatStore, e.userStore, e.attachmentStore, limits, log)
	e.messages = NewMessages(e.messageStore, e.chatStore, e.userStore, e.attachmentStore, limits, log)
	e.attachments = NewAttachments(e.attachmentStore, e.userStore, e.chatStore, e.messageStore, limits, log)
	return e
}

func (e *env) user(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := e.users.Create(context.Background(), &models.User{
		Name: "Test", LastName: "User", Email: email, Password: "secret",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func (e *env) attachment(t *testing.T) *models.Attachment {
	t.Helper()
	a, err := e.attachments.Create(context.Background(), &models.Attachment{Type: "png", File: []byte{1, 2, 3}})
	if err != nil {
		t.Fatalf("create attachment: %v", err)
	}
	return a
}

func refs(users ...*models.User) []models.User {
	out := make([]models.User, len(users))
	for i, u := range users {
		out[i] = models.User{ID: u.ID}
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
