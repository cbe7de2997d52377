// Package accounts registers users, logs them in and edits their profiles.
package accounts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/aurora/backend/internal/apperr"
	"github.com/emilythestrangee/aurora/backend/internal/auth"
	"github.com/emilythestrangee/aurora/backend/internal/blob"
	"github.com/emilythestrangee/aurora/backend/internal/content"
	"github.com/emilythestrangee/aurora/backend/internal/database"
	"github.com/emilythestrangee/aurora/backend/internal/models"
	"github.com/emilythestrangee/aurora/backend/internal/validation"
)

const (
	UsernameTakenMessage      = "Username already taken"
	InvalidCredentialsMessage = "Invalid username and/or password"
	UnauthorizedMessage       = "Unauthorized"
	UnsupportedFormatMessage  = "Unsupported file format"

	updateFailedMessage = "Error while updating the user. Please try again"
	getFailedMessage    = "Error while retrieving a user. Please try again"
	notOwnerMessage     = "You can only update your own profile"
)

type usernameInput struct {
	Username string `validate:"min=3,max=16,nodigitfirst,excludes=?"`
}

var usernameMessages = validation.Messages{
	"Username":              "Username must contain between 3 and 16 characters",
	"Username.nodigitfirst": "Username cannot start with a number",
	"Username.excludes":     "Username cannot contain a question mark",
}

type passwordInput struct {
	Password        string `validate:"min=3,max=16"`
	ConfirmPassword string `validate:"min=3,max=16,eqfield=Password"`
}

var passwordMessages = validation.Messages{
	"Password":                "Password must contain between 3 and 16 characters",
	"ConfirmPassword":         "Password confirmation must contain between 3 and 16 characters",
	"ConfirmPassword.eqfield": "Passwords do not match",
}

type loginInput struct {
	Username string `validate:"min=3,max=16"`
	Password string `validate:"min=3,max=16"`
}

var loginMessages = validation.Messages{
	"Username": "Username must contain between 3 and 16 characters",
	"Password": "Password must contain between 3 and 16 characters",
}

type profileInput struct {
	Bio    string `validate:"max=320"`
	Avatar string `validate:"omitempty,url"`
}

var profileMessages = validation.Messages{
	"Bio":    "Bio cannot exceed 320 characters",
	"Avatar": "Avatar must be an URL",
}

// RegisterInput is the body of a sign-up request.
type RegisterInput struct {
	Username        string
	Password        string
	ConfirmPassword string
}

// ProfileInput is a profile update. Nil fields keep their current value; an
// upload replaces the avatar URL.
type ProfileInput struct {
	Bio    *string
	Avatar *string
	Upload *content.Upload
}

type Service struct {
	store    database.Store
	tokens   *auth.Tokens
	blobs    blob.Store
	defaults content.Defaults
}

func NewService(store database.Store, tokens *auth.Tokens, blobs blob.Store, defaults content.Defaults) *Service {
	return &Service{store: store, tokens: tokens, blobs: blobs, defaults: defaults}
}

// Register creates a user with a random default avatar.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	username := strings.TrimSpace(in.Username)
	if err := validation.Check(usernameInput{Username: username}, usernameMessages); err != nil {
		return err
	}

	_, err := s.store.UserByUsername(ctx, username)
	switch {
	case err == nil:
		return apperr.Invalid(UsernameTakenMessage)
	case !errors.Is(err, database.ErrNotFound):
		return apperr.Wrap(err)
	}

	passwords := passwordInput{
		Password:        strings.TrimSpace(in.Password),
		ConfirmPassword: strings.TrimSpace(in.ConfirmPassword),
	}
	if err := validation.Check(passwords, passwordMessages); err != nil {
		return err
	}

	hashed, err := auth.HashPassword(passwords.Password)
	if err != nil {
		return apperr.Wrap(err)
	}

	user := &models.User{
		ID:                 uuid.NewString(),
		Username:           username,
		Password:           hashed,
		RegisteredAt:       time.Now().UTC(),
		Avatar:             s.defaults.RandomAvatar(),
		FollowedUsers:      []string{},
		FollowedCategories: []string{},
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return apperr.Invalid(UsernameTakenMessage)
		}
		return apperr.Wrap(err)
	}

	slog.InfoContext(ctx, "user registered", "user", user.ID, "username", user.Username)
	return nil
}

// Login checks credentials and returns a bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	in := loginInput{Username: strings.TrimSpace(username), Password: strings.TrimSpace(password)}
	if err := validation.Check(in, loginMessages); err != nil {
		return "", err
	}

	user, err := s.store.UserByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", apperr.New(apperr.Unauthorized, InvalidCredentialsMessage, nil)
		}
		return "", apperr.Wrap(err)
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		return "", apperr.New(apperr.Unauthorized, InvalidCredentialsMessage, nil)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", apperr.Wrap(err)
	}
	return token, nil
}

// Authenticate resolves a bearer token to its user, without the password hash.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperr.New(apperr.Unauthorized, UnauthorizedMessage, err)
	}
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.New(apperr.Unauthorized, UnauthorizedMessage, err)
		}
		return nil, apperr.Wrap(err)
	}
	user.Password = ""
	return user, nil
}

// UpdateProfile sets the bio and avatar of the user named username, who
// must be the caller.
func (s *Service) UpdateProfile(ctx context.Context, caller *models.User, username string, in ProfileInput) (*models.User, error) {
	next := profileInput{Bio: caller.Bio, Avatar: caller.Avatar}
	if in.Bio != nil {
		next.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.Avatar != nil {
		next.Avatar = strings.TrimSpace(*in.Avatar)
	}
	if err := validation.Check(next, profileMessages); err != nil {
		return nil, err
	}

	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.Failed(updateFailedMessage)
		}
		return nil, apperr.Wrap(err)
	}
	if user.ID != caller.ID {
		return nil, apperr.New(apperr.Forbidden, notOwnerMessage, nil)
	}

	if in.Upload != nil {
		mime := blob.DetectType(in.Upload.Data)
		if !content.IsAllowedImageType(mime) {
			return nil, apperr.Broken(UnsupportedFormatMessage)
		}
		url, err := s.blobs.Put(ctx, blob.FolderAvatars, in.Upload.Data, mime)
		if err != nil {
			return nil, apperr.Wrap(err)
		}
		next.Avatar = url
	}

	updated, err := s.store.UpdateProfile(ctx, user.ID, next.Bio, next.Avatar)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.Failed(updateFailedMessage)
		}
		return nil, apperr.Wrap(err)
	}
	return updated, nil
}

// List returns every user ordered by username.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return users, nil
}

// Get returns the user named username. A missing user is a 400, not a 404.
func (s *Service) Get(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.Failed(getFailedMessage)
		}
		return nil, apperr.Wrap(err)
	}
	return user, nil
}
