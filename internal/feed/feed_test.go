package feed

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/aurora/backend/internal/apperr"
	"github.com/emilythestrangee/aurora/backend/internal/database"
	"github.com/emilythestrangee/aurora/backend/internal/models"
)

type world struct {
	store      *database.MemoryStore
	alice, bob *models.User
	cats, dogs *models.Category
	catPost    *models.Post // by alice, older
	dogPost    *models.Post // by bob, newer
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	s := database.NewMemoryStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	w := &world{store: s}
	w.alice = &models.User{ID: uuid.NewString(), Username: "alice", Avatar: "https://a.test/alice.png", RegisteredAt: base}
	w.bob = &models.User{ID: uuid.NewString(), Username: "bob", RegisteredAt: base}
	require.NoError(t, s.CreateUser(ctx, w.alice))
	require.NoError(t, s.CreateUser(ctx, w.bob))

	w.cats = &models.Category{ID: uuid.NewString(), Name: "Cats", Slug: "cats", CreatedAt: base}
	w.dogs = &models.Category{ID: uuid.NewString(), Name: "Dogs", Slug: "dogs", CreatedAt: base}
	require.NoError(t, s.CreateCategory(ctx, w.cats))
	require.NoError(t, s.CreateCategory(ctx, w.dogs))

	w.catPost = &models.Post{ID: uuid.NewString(), AuthorID: w.alice.ID, Title: "Cat", Content: "meow meow",
		Type: models.PostText, CategoryID: w.cats.ID, CreatedAt: base.Add(time.Minute), Slug: "cat-abcd1234", Likes: []string{w.alice.ID}}
	w.dogPost = &models.Post{ID: uuid.NewString(), AuthorID: w.bob.ID, Title: "Dog", Content: "woof woof",
		Type: models.PostText, CategoryID: w.dogs.ID, CreatedAt: base.Add(2 * time.Minute), Slug: "dog-abcd1234", Likes: []string{w.bob.ID}}
	require.NoError(t, s.CreatePost(ctx, w.catPost))
	require.NoError(t, s.CreatePost(ctx, w.dogPost))
	return w
}

func ids(posts []PostView) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestList_NewestFirstWithProjection(t *testing.T) {
	w := newWorld(t)

	posts, err := NewReader(w.store).List(context.Background(), w.alice, ListParams{})
	require.NoError(t, err)
	require.Equal(t, []string{w.dogPost.ID, w.catPost.ID}, ids(posts))

	cat := posts[1]
	assert.Equal(t, models.Author{ID: w.alice.ID, Username: "alice", Avatar: "https://a.test/alice.png"}, cat.Author)
	assert.Equal(t, models.CategoryRef{ID: w.cats.ID, Name: "Cats", Slug: "cats"}, cat.Category)
	assert.Equal(t, []string{}, cat.Comments)
}

func TestList_Filters(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	r := NewReader(w.store)

	_, err := w.store.ToggleFollow(ctx, w.alice.ID, models.Target{Kind: models.TargetCategory, ID: w.dogs.ID})
	require.NoError(t, err)
	_, err = w.store.ToggleFollow(ctx, w.alice.ID, models.Target{Kind: models.TargetUser, ID: w.bob.ID})
	require.NoError(t, err)
	alice, err := w.store.UserByID(ctx, w.alice.ID)
	require.NoError(t, err)

	tests := []struct {
		filter string
		want   []string
	}{
		{FilterCategories, []string{w.dogPost.ID}},
		{FilterFollowing, []string{w.dogPost.ID}},
		{FilterLiked, []string{w.catPost.ID}},
		{FilterYours, []string{w.catPost.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			posts, err := r.List(ctx, alice, ListParams{Filter: tt.filter})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(posts))
		})
	}
}

func TestList_Precedence(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	r := NewReader(w.store)

	// category overrides filter
	posts, err := r.List(ctx, w.alice, ListParams{Filter: FilterYours, Category: "dogs"})
	require.NoError(t, err)
	assert.Equal(t, []string{w.dogPost.ID}, ids(posts))

	// user overrides category
	posts, err = r.List(ctx, w.alice, ListParams{Category: "dogs", User: "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{w.catPost.ID}, ids(posts))
}

func TestList_Pagination(t *testing.T) {
	w := newWorld(t)
	r := NewReader(w.store)

	posts, err := r.List(context.Background(), w.alice, ListParams{Limit: "1", Skip: "1"})
	require.NoError(t, err)
	assert.Equal(t, []string{w.catPost.ID}, ids(posts))
}

func TestList_InvalidParams(t *testing.T) {
	w := newWorld(t)
	r := NewReader(w.store)

	tests := []struct {
		params ListParams
		want   string
	}{
		{ListParams{Limit: "ten"}, "Limit query parameter must be an integer"},
		{ListParams{Limit: "-1"}, "Limit query parameter must be an integer"},
		{ListParams{Skip: "1.5"}, "Skip query parameter must be an integer"},
		{ListParams{Filter: "popular"}, "Invalid filter query parameter"},
		{ListParams{Category: "birds"}, "Invalid category query parameter"},
		{ListParams{User: "carol"}, "Invalid user query parameter"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			_, err := r.List(context.Background(), w.alice, tt.params)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.Validation))
			assert.Equal(t, tt.want, err.(*apperr.AppError).Message)
		})
	}
}

func TestGet(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	base := w.catPost.CreatedAt

	older := &models.Comment{ID: uuid.NewString(), PostID: w.catPost.ID, AuthorID: w.bob.ID, Content: "first!", CreatedAt: base.Add(time.Hour), Likes: []string{w.bob.ID}}
	newer := &models.Comment{ID: uuid.NewString(), PostID: w.catPost.ID, AuthorID: w.alice.ID, Content: "thanks", CreatedAt: base.Add(2 * time.Hour), Likes: []string{w.alice.ID}}
	require.NoError(t, w.store.AddComment(ctx, older))
	require.NoError(t, w.store.AddComment(ctx, newer))

	got, err := NewReader(w.store).Get(ctx, w.catPost.Slug)
	require.NoError(t, err)

	assert.Equal(t, "alice", got.Author.Username)
	assert.Equal(t, "cats", got.Category.Slug)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, newer.ID, got.Comments[0].ID)
	assert.Equal(t, "bob", got.Comments[1].Author.Username)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	comments, ok := m["comments"].([]any)
	require.True(t, ok)
	assert.IsType(t, map[string]any{}, comments[0])
}

func TestGet_NotFound(t *testing.T) {
	w := newWorld(t)

	_, err := NewReader(w.store).Get(context.Background(), "nope")
	assert.True(t, apperr.Is(err, apperr.NotFound))
	assert.Equal(t, PostNotFoundMessage, err.(*apperr.AppError).Message)
}
