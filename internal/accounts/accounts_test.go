package accounts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/aurora/backend/internal/apperr"
	"github.com/emilythestrangee/aurora/backend/internal/auth"
	"github.com/emilythestrangee/aurora/backend/internal/blob"
	"github.com/emilythestrangee/aurora/backend/internal/content"
	"github.com/emilythestrangee/aurora/backend/internal/database"
	"github.com/emilythestrangee/aurora/backend/internal/models"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newService(t *testing.T) (*Service, *database.MemoryStore, *blob.MemoryStore) {
	t.Helper()
	store := database.NewMemoryStore()
	blobs := blob.NewMemoryStore("http://blobs.test")
	svc := NewService(store, auth.NewTokens("test-secret", time.Hour), blobs, content.Defaults{BaseURL: "http://assets.test"})
	return svc, store, blobs
}

func register(t *testing.T, svc *Service, username string) {
	t.Helper()
	require.NoError(t, svc.Register(context.Background(), RegisterInput{
		Username: username, Password: "secret", ConfirmPassword: "secret",
	}))
}

func messageOf(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperr.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Message
}

func TestRegister(t *testing.T) {
	svc, store, _ := newService(t)
	register(t, svc, "Alice")

	u, err := store.UserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Username)
	assert.NotEqual(t, "secret", u.Password)
	assert.True(t, strings.HasPrefix(u.Avatar, "http://assets.test/avatars/default/"), u.Avatar)
	assert.Empty(t, u.FollowedUsers)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newService(t)
	register(t, svc, "alice")

	tests := []struct {
		name string
		in   RegisterInput
		want string
	}{
		{"short username", RegisterInput{"al", "secret", "secret"}, "Username must contain between 3 and 16 characters"},
		{"digit first", RegisterInput{"1alice", "secret", "secret"}, "Username cannot start with a number"},
		{"question mark", RegisterInput{"who?", "secret", "secret"}, "Username cannot contain a question mark"},
		{"taken any case", RegisterInput{"ALICE", "secret", "secret"}, UsernameTakenMessage},
		{"taken beats bad password", RegisterInput{"alice", "x", "x"}, UsernameTakenMessage},
		{"short password", RegisterInput{"bob", "pw", "pw"}, "Password must contain between 3 and 16 characters"},
		{"short confirmation", RegisterInput{"bob", "secret", "s"}, "Password confirmation must contain between 3 and 16 characters"},
		{"mismatch", RegisterInput{"bob", "secret", "secre7"}, "Passwords do not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Register(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.want, messageOf(t, err))
			assert.Equal(t, 400, apperr.HTTPStatus(apperr.CodeOf(err)))
		})
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	register(t, svc, "alice")

	token, err := svc.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Empty(t, u.Password)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
	assert.Equal(t, InvalidCredentialsMessage, messageOf(t, err))

	_, err = svc.Login(ctx, "nobody", "secret")
	assert.Equal(t, InvalidCredentialsMessage, messageOf(t, err))

	_, err = svc.Authenticate(ctx, "garbage")
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestUpdateProfile(t *testing.T) {
	svc, store, blobs := newService(t)
	ctx := context.Background()
	register(t, svc, "alice")
	register(t, svc, "bob")
	alice, err := store.UserByUsername(ctx, "alice")
	require.NoError(t, err)

	bio := "  I like cats  "
	u, err := svc.UpdateProfile(ctx, alice, "alice", ProfileInput{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "I like cats", u.Bio)
	assert.Equal(t, alice.Avatar, u.Avatar)

	u, err = svc.UpdateProfile(ctx, u, "alice", ProfileInput{Upload: &content.Upload{Filename: "me.png", Data: pngHeader}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u.Avatar, "http://blobs.test/avatars/"), u.Avatar)
	assert.Equal(t, "I like cats", u.Bio)
	assert.Equal(t, 1, blobs.Len())
}

func TestUpdateProfile_Failures(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	register(t, svc, "alice")
	register(t, svc, "bob")
	alice, err := store.UserByUsername(ctx, "alice")
	require.NoError(t, err)

	long := strings.Repeat("a", 321)
	_, err = svc.UpdateProfile(ctx, alice, "alice", ProfileInput{Bio: &long})
	assert.Equal(t, "Bio cannot exceed 320 characters", messageOf(t, err))

	bad := "not a url"
	_, err = svc.UpdateProfile(ctx, alice, "alice", ProfileInput{Avatar: &bad})
	assert.Equal(t, "Avatar must be an URL", messageOf(t, err))

	_, err = svc.UpdateProfile(ctx, alice, "ghost", ProfileInput{})
	assert.Equal(t, "Error while updating the user. Please try again", messageOf(t, err))

	_, err = svc.UpdateProfile(ctx, alice, "bob", ProfileInput{})
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	_, err = svc.UpdateProfile(ctx, alice, "alice", ProfileInput{Upload: &content.Upload{Data: []byte("%PDF-1.4 not an image")}})
	assert.Equal(t, UnsupportedFormatMessage, messageOf(t, err))
}

func TestListAndGet(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	register(t, svc, "carol")
	register(t, svc, "Alice")
	register(t, svc, "bob")

	users, err := svc.List(ctx)
	require.NoError(t, err)
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	assert.Equal(t, []string{"Alice", "bob", "carol"}, names)

	u, err := svc.Get(ctx, "bob")
	require.NoError(t, err)
	assert.IsType(t, &models.User{}, u)

	_, err = svc.Get(ctx, "dave")
	assert.True(t, apperr.Is(err, apperr.Reference))
	assert.Equal(t, "Error while retrieving a user. Please try again", messageOf(t, err))
}
