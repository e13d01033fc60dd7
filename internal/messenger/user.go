package messenger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

var _ UserRepository = (*Users)(nil)

type Users struct {
	store     UserStore
	validator *UserValidator
	log       *zap.Logger
	hashCost  int
}

func NewUsers(users UserStore, attachments AttachmentStore, limits Limits, log *zap.Logger) *Users {
	return &Users{
		store:     users,
		validator: NewUserValidator(users, attachments, limits),
		log:       log.Named("users"),
		hashCost:  bcrypt.DefaultCost,
	}
}

// Create signs up a new user. The returned user carries its new id and no
// password.
func (r *Users) Create(ctx context.Context, user *models.User) (*models.User, error) {
	log := r.log.With(userFields(user)...)
	log.Info("attempting to create user")

	if err := r.validator.Validate(ctx, user, uuid.Nil); err != nil {
		logRejected(log, "user not created", err)
		return nil, err
	}

	hash, err := r.hash(user.Password)
	if err != nil {
		return nil, err
	}
	created := &models.User{
		ID:           uuid.New(),
		Name:         user.Name,
		LastName:     user.LastName,
		Email:        user.Email,
		PasswordHash: hash,
		AvatarID:     user.AvatarID,
	}
	if err := r.store.Create(ctx, created); err != nil {
		if errors.Is(err, ErrDuplicate) {
			err = invalid("email %q is already taken", user.Email)
			logRejected(log, "user not created", err)
			return nil, err
		}
		if errors.Is(err, ErrReference) {
			err = invalid("avatar %s does not exist", user.AvatarID)
			logRejected(log, "user not created", err)
			return nil, err
		}
		log.Error("failed to create user", zap.Error(err))
		return nil, storageErr("create user", err)
	}

	log.Info("user created", zap.Stringer("id", created.ID))
	return created, nil
}

func (r *Users) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("get user", err)
	}
	return user, nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := r.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, lookupErr("get user by email", err)
	}
	return user, nil
}

// Update replaces the profile of user.ID with the candidate's fields. Every
// field is required, same as on sign-up.
func (r *Users) Update(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, invalid("user is missing")
	}
	log := r.log.With(append(userFields(user), zap.Stringer("id", user.ID))...)
	log.Info("attempting to update user")

	existing, err := r.store.GetByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Info("user not updated: not found")
		}
		return nil, lookupErr("get user", err)
	}
	if err := r.validator.Validate(ctx, user, existing.ID); err != nil {
		logRejected(log, "user not updated", err)
		return nil, err
	}

	hash, err := r.hash(user.Password)
	if err != nil {
		return nil, err
	}
	existing.Name = user.Name
	existing.LastName = user.LastName
	existing.Email = user.Email
	existing.PasswordHash = hash
	existing.AvatarID = user.AvatarID

	if err := r.store.Update(ctx, existing); err != nil {
		switch {
		case errors.Is(err, ErrDuplicate):
			err = invalid("email %q is already taken", user.Email)
			logRejected(log, "user not updated", err)
			return nil, err
		case errors.Is(err, ErrReference):
			err = invalid("avatar %s does not exist", user.AvatarID)
			logRejected(log, "user not updated", err)
			return nil, err
		case errors.Is(err, ErrNotFound):
			return nil, ErrNotFound
		}
		log.Error("failed to update user", zap.Error(err))
		return nil, storageErr("update user", err)
	}

	log.Info("user updated")
	return existing, nil
}

// Delete soft-deletes the user. The email becomes available again and the
// user stops resolving as a chat member or message author.
func (r *Users) Delete(ctx context.Context, id uuid.UUID) error {
	log := r.log.With(zap.Stringer("id", id))
	log.Info("attempting to delete user")

	if err := r.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Info("user not deleted: not found")
			return ErrNotFound
		}
		log.Error("failed to delete user", zap.Error(err))
		return storageErr("delete user", err)
	}

	log.Info("user deleted")
	return nil
}

// Authenticate checks an email and password pair. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (r *Users) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := r.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storageErr("get user by email", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		r.log.Info("sign-in refused", zap.Stringer("id", user.ID))
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (r *Users) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func userFields(user *models.User) []zap.Field {
	if user == nil {
		return []zap.Field{zap.Bool("nil_user", true)}
	}
	fields := []zap.Field{
		zap.String("name", user.Name),
		zap.String("last_name", user.LastName),
		zap.String("email", user.Email),
	}
	if user.AvatarID != nil {
		fields = append(fields, zap.Stringer("avatar_id", user.AvatarID))
	}
	return fields
}

// logRejected logs validation rejections at info and anything else at error.
func logRejected(log *zap.Logger, msg string, err error) {
	if errors.Is(err, ErrInvalidInput) {
		log.Info(msg, zap.Error(err))
		return
	}
	log.Error(msg, zap.Error(err))
}
