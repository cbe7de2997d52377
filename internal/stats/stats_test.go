package stats

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/aurora/backend/internal/database"
	"github.com/emilythestrangee/aurora/backend/internal/models"
)

func TestEnrichUser(t *testing.T) {
	ctx := context.Background()
	s := database.NewMemoryStore()
	now := time.Now().UTC()

	alice := &models.User{ID: uuid.NewString(), Username: "alice", RegisteredAt: now}
	bob := &models.User{ID: uuid.NewString(), Username: "bob", RegisteredAt: now}
	require.NoError(t, s.CreateUser(ctx, alice))
	require.NoError(t, s.CreateUser(ctx, bob))
	cats := &models.Category{ID: uuid.NewString(), Name: "Cats", Slug: "cats", CreatedAt: now}
	require.NoError(t, s.CreateCategory(ctx, cats))

	post := &models.Post{ID: uuid.NewString(), AuthorID: alice.ID, CategoryID: cats.ID, Slug: "p-1", CreatedAt: now, Likes: []string{alice.ID}}
	require.NoError(t, s.CreatePost(ctx, post))
	require.NoError(t, s.AddComment(ctx, &models.Comment{ID: uuid.NewString(), PostID: post.ID, AuthorID: alice.ID, CreatedAt: now, Likes: []string{alice.ID}}))
	_, err := s.ApplyReaction(ctx, models.Target{Kind: models.TargetPost, ID: post.ID}, bob.ID, models.Dislike)
	require.NoError(t, err)
	_, err = s.ToggleFollow(ctx, bob.ID, models.Target{Kind: models.TargetUser, ID: alice.ID})
	require.NoError(t, err)
	_, err = s.ToggleFollow(ctx, bob.ID, models.Target{Kind: models.TargetCategory, ID: cats.ID})
	require.NoError(t, err)

	agg := NewAggregator(s)

	got, err := agg.EnrichUser(ctx, *alice)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.PostsCount)
	assert.EqualValues(t, 1, got.PostLikesCount)
	assert.EqualValues(t, 0, got.PostDislikesCount)
	assert.EqualValues(t, 1, got.CommentsCount)
	assert.EqualValues(t, 1, got.CommentLikesCount)
	assert.EqualValues(t, 0, got.CommentDislikesCount)
	assert.EqualValues(t, 1, got.FollowersCount)

	bobStats, err := agg.EnrichUser(ctx, *bob)
	require.NoError(t, err)
	assert.EqualValues(t, 1, bobStats.PostDislikesCount)
	assert.Zero(t, bobStats.PostsCount)

	cat, err := agg.EnrichCategory(ctx, *cats)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cat.PostsCount)
	assert.EqualValues(t, 1, cat.FollowersCount)
}

func TestEnrichUser_JSONShape(t *testing.T) {
	u := &UserWithStats{User: models.User{ID: "u1", Username: "alice", Password: "hash"}, PostsCount: 3}

	raw, err := json.Marshal(u)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "alice", m["username"])
	assert.EqualValues(t, 3, m["postsCount"])
	assert.Contains(t, m, "followersCount")
	assert.NotContains(t, m, "password")
}

type countingStore struct {
	database.Store
	calls atomic.Int32
	fail  database.CountKind
}

func (c *countingStore) Count(ctx context.Context, kind database.CountKind, id string) (int64, error) {
	c.calls.Add(1)
	if kind == c.fail {
		return 0, errors.New("boom")
	}
	return 7, nil
}

func TestEnrichUser_PropagatesErrors(t *testing.T) {
	store := &countingStore{Store: database.NewMemoryStore(), fail: database.CommentsLikedBy}

	_, err := NewAggregator(store).EnrichUser(context.Background(), models.User{ID: "u1"})
	assert.EqualError(t, err, "boom")
}

func TestEnrichCategory_IssuesEveryCount(t *testing.T) {
	store := &countingStore{Store: database.NewMemoryStore(), fail: -1}

	got, err := NewAggregator(store).EnrichCategory(context.Background(), models.Category{ID: "c1"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, store.calls.Load())
	assert.EqualValues(t, 7, got.PostsCount)
	assert.EqualValues(t, 7, got.FollowersCount)
}
