package messenger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/petermazzocco/go-messenger/models"
)

// bcrypt refuses passwords longer than this many bytes.
const maxPasswordBytes = 72

type UserValidator struct {
	users       UserStore
	attachments AttachmentStore
	limits      Limits
}

func NewUserValidator(users UserStore, attachments AttachmentStore, limits Limits) *UserValidator {
	return &UserValidator{users: users, attachments: attachments, limits: limits}
}

// Validate decides whether candidate may be stored. existingID is the id of
// the user being updated, or uuid.Nil on sign-up; a user keeping their own
// email is not a uniqueness violation.
func (v *UserValidator) Validate(ctx context.Context, candidate *models.User, existingID uuid.UUID) error {
	if candidate == nil {
		return invalid("user is missing")
	}
	normalizeRef(&candidate.AvatarID)

	switch {
	case candidate.Name == "":
		return invalid("name is required")
	case candidate.LastName == "":
		return invalid("last name is required")
	case candidate.Email == "":
		return invalid("email is required")
	case candidate.Password == "":
		return invalid("password is required")
	}

	l := v.limits
	switch {
	case !l.UserName.Contains(runes(candidate.Name)):
		return invalid("name length must be within [%d, %d]", l.UserName.Min, l.UserName.Max)
	case !l.UserLastName.Contains(runes(candidate.LastName)):
		return invalid("last name length must be within [%d, %d]", l.UserLastName.Min, l.UserLastName.Max)
	case !l.UserEmail.Contains(runes(candidate.Email)):
		return invalid("email length must be within [%d, %d]", l.UserEmail.Min, l.UserEmail.Max)
	case !l.UserPassword.Contains(runes(candidate.Password)):
		return invalid("password length must be within [%d, %d]", l.UserPassword.Min, l.UserPassword.Max)
	case len(candidate.Password) > maxPasswordBytes:
		return invalid("password must not exceed %d bytes", maxPasswordBytes)
	}

	if err := v.checkEmail(ctx, candidate.Email, existingID); err != nil {
		return err
	}

	ok, err := attachmentExists(ctx, v.attachments, candidate.AvatarID)
	if err != nil {
		return err
	}
	if !ok {
		return invalid("avatar %s does not exist", candidate.AvatarID)
	}
	return nil
}

func (v *UserValidator) checkEmail(ctx context.Context, email string, existingID uuid.UUID) error {
	if existingID != uuid.Nil {
		current, err := v.users.GetByID(ctx, existingID)
		switch {
		case err == nil && current.Email == email:
			return nil
		case err != nil && !errors.Is(err, ErrNotFound):
			return storageErr("get user", err)
		}
	}

	owner, err := v.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return storageErr("get user by email", err)
	case owner.ID == existingID:
		return nil
	default:
		return invalid("email %q is already taken", email)
	}
}
