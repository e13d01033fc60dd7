package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/petermazzocco/go-messenger/internal/messenger"
	"github.com/petermazzocco/go-messenger/models"
)

const (
	sessionName = "messenger_session"
	userIDKey   = "user_id"
)

type ctxKey struct{}

var ErrNoSession = errors.New("no signed in user")

// Users resolves the id kept in a session. messenger.UserRepository
// satisfies it.
type Users interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Sessions keeps the signed in user's id in a signed cookie.
type Sessions struct {
	store *sessions.CookieStore
	users Users
}

func NewSessions(secret string, maxAge int, secure bool, users Users) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(maxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	return &Sessions{store: store, users: users}
}

func (s *Sessions) SignIn(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	session, _ := s.store.Get(r, sessionName)
	session.Values[userIDKey] = userID.String()
	return session.Save(r, w)
}

func (s *Sessions) SignOut(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, sessionName)
	delete(session.Values, userIDKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// UserMiddleware rejects requests without a valid session or whose user is
// gone, and puts the signed in user's id on the request context.
func (s *Sessions) UserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.store.Get(r, sessionName)
		if err != nil {
			http.Error(w, "Not Authorized", http.StatusUnauthorized)
			return
		}

		raw, _ := session.Values[userIDKey].(string)
		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			http.Error(w, "Not Authorized", http.StatusUnauthorized)
			return
		}

		if _, err := s.users.Get(r.Context(), userID); err != nil {
			if errors.Is(err, messenger.ErrNotFound) {
				// Deleted users lose every session they still hold.
				_ = s.SignOut(w, r)
				http.Error(w, "Not Authorized", http.StatusUnauthorized)
				return
			}
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoSession
	}
	return id, nil
}
