package engagement

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/aurora/backend/internal/apperr"
	"github.com/emilythestrangee/aurora/backend/internal/database"
	"github.com/emilythestrangee/aurora/backend/internal/models"
)

type fixture struct {
	store   *database.MemoryStore
	alice   *models.User
	bob     *models.User
	cats    *models.Category
	post    *models.Post
	comment *models.Comment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := database.NewMemoryStore()
	now := time.Now().UTC()

	f := &fixture{store: s}
	f.alice = &models.User{ID: uuid.NewString(), Username: "alice", RegisteredAt: now}
	f.bob = &models.User{ID: uuid.NewString(), Username: "bob", RegisteredAt: now}
	require.NoError(t, s.CreateUser(ctx, f.alice))
	require.NoError(t, s.CreateUser(ctx, f.bob))

	f.cats = &models.Category{ID: uuid.NewString(), Name: "Cats", Slug: "cats", CreatedAt: now}
	require.NoError(t, s.CreateCategory(ctx, f.cats))

	f.post = &models.Post{
		ID: uuid.NewString(), AuthorID: f.alice.ID, Title: "Hello World", Content: "body text",
		Type: models.PostText, CategoryID: f.cats.ID, CreatedAt: now, Slug: "hello-world-abcd1234",
		Likes: []string{f.alice.ID},
	}
	require.NoError(t, s.CreatePost(ctx, f.post))

	f.comment = &models.Comment{
		ID: uuid.NewString(), PostID: f.post.ID, AuthorID: f.bob.ID, Content: "nice post",
		CreatedAt: now, Likes: []string{f.bob.ID},
	}
	require.NoError(t, s.AddComment(ctx, f.comment))
	return f
}

func (f *fixture) reloadPost(t *testing.T) *models.Post {
	t.Helper()
	p, err := f.store.PostBySlug(context.Background(), f.post.Slug)
	require.NoError(t, err)
	return p
}

func messageOf(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperr.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Message
}

func TestReactToPost_LikeTwiceTogglesOff(t *testing.T) {
	f := newFixture(t)
	r := NewReactions(f.store)
	ctx := context.Background()

	out, err := r.ReactToPost(ctx, f.post.Slug, f.bob.ID, models.Like)
	require.NoError(t, err)
	assert.Equal(t, models.Reacted, out)
	assert.Equal(t, "Post liked successfully!", Message(models.TargetPost, models.Like, out))

	out, err = r.ReactToPost(ctx, f.post.Slug, f.bob.ID, models.Like)
	require.NoError(t, err)
	assert.Equal(t, models.Unreacted, out)
	assert.Equal(t, "Post unliked successfully!", Message(models.TargetPost, models.Like, out))

	p := f.reloadPost(t)
	assert.Equal(t, []string{f.alice.ID}, p.Likes)
	assert.Empty(t, p.Dislikes)
}

func TestReactToPost_DislikeClearsLike(t *testing.T) {
	f := newFixture(t)
	r := NewReactions(f.store)

	out, err := r.ReactToPost(context.Background(), f.post.Slug, f.alice.ID, models.Dislike)
	require.NoError(t, err)
	assert.Equal(t, models.Reacted, out)

	p := f.reloadPost(t)
	assert.NotContains(t, p.Likes, f.alice.ID)
	assert.Equal(t, []string{f.alice.ID}, p.Dislikes)
}

func TestReactToPost_SetsStayDisjoint(t *testing.T) {
	f := newFixture(t)
	r := NewReactions(f.store)
	ctx := context.Background()

	steps := []models.Direction{models.Like, models.Dislike, models.Dislike, models.Like, models.Dislike, models.Like, models.Like}
	for _, dir := range steps {
		for _, u := range []*models.User{f.alice, f.bob} {
			_, err := r.ReactToPost(ctx, f.post.Slug, u.ID, dir)
			require.NoError(t, err)

			p := f.reloadPost(t)
			for _, id := range p.Likes {
				assert.NotContains(t, p.Dislikes, id)
			}
		}
	}
}

func TestReactToPost_Failures(t *testing.T) {
	f := newFixture(t)
	r := NewReactions(f.store)
	ctx := context.Background()

	_, err := r.ReactToPost(ctx, f.post.Slug, "not-an-id", models.Like)
	assert.True(t, apperr.Is(err, apperr.Validation))
	assert.Equal(t, "User field must be a valid ID", messageOf(t, err))

	_, err = r.ReactToPost(ctx, f.post.Slug, uuid.NewString(), models.Like)
	assert.True(t, apperr.Is(err, apperr.Reference))
	assert.Equal(t, "Error while liking a post. Please try again", messageOf(t, err))

	_, err = r.ReactToPost(ctx, "missing-slug", f.bob.ID, models.Dislike)
	assert.True(t, apperr.Is(err, apperr.Reference))
	assert.Equal(t, "Error while disliking a post. Please try again", messageOf(t, err))
}

func TestReactToComment(t *testing.T) {
	f := newFixture(t)
	r := NewReactions(f.store)
	ctx := context.Background()

	out, err := r.ReactToComment(ctx, f.post.Slug, f.comment.ID, f.alice.ID, models.Dislike)
	require.NoError(t, err)
	assert.Equal(t, "Comment disliked successfully!", Message(models.TargetComment, models.Dislike, out))

	out, err = r.ReactToComment(ctx, f.post.Slug, f.comment.ID, f.alice.ID, models.Dislike)
	require.NoError(t, err)
	assert.Equal(t, "Comment undisliked successfully!", Message(models.TargetComment, models.Dislike, out))

	c, err := f.store.CommentByID(ctx, f.comment.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.bob.ID}, c.Likes)
	assert.Empty(t, c.Dislikes)
}

func TestReactToComment_MustBelongToPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := &models.Post{
		ID: uuid.NewString(), AuthorID: f.bob.ID, Title: "Other", Content: "other body",
		Type: models.PostText, CategoryID: f.cats.ID, CreatedAt: time.Now().UTC(), Slug: "other-abcd1234",
	}
	require.NoError(t, f.store.CreatePost(ctx, other))

	_, err := NewReactions(f.store).ReactToComment(ctx, other.Slug, f.comment.ID, f.alice.ID, models.Like)
	assert.True(t, apperr.Is(err, apperr.Reference))
	assert.Equal(t, "Error while liking a post comment. Please try again", messageOf(t, err))
}

func TestReact_ConcurrentUsersAreAllRecorded(t *testing.T) {
	f := newFixture(t)
	r := NewReactions(f.store)
	ctx := context.Background()

	const n = 50
	ids := make([]string, n)
	for i := range ids {
		u := &models.User{ID: uuid.NewString(), Username: "user" + uuid.NewString()[:8], RegisteredAt: time.Now().UTC()}
		require.NoError(t, f.store.CreateUser(ctx, u))
		ids[i] = u.ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := r.ReactToPost(ctx, f.post.Slug, id, models.Like)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Len(t, f.reloadPost(t).Likes, n+1)
}

func TestFollowToggle(t *testing.T) {
	f := newFixture(t)
	follows := NewFollows(f.store)
	ctx := context.Background()

	u, err := follows.Toggle(ctx, f.alice, "alice", models.Target{Kind: models.TargetUser, ID: f.bob.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{f.bob.ID}, u.FollowedUsers)
	assert.Empty(t, u.Password)

	u, err = follows.Toggle(ctx, f.alice, "alice", models.Target{Kind: models.TargetCategory, ID: f.cats.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{f.cats.ID}, u.FollowedCategories)

	u, err = follows.Toggle(ctx, f.alice, "alice", models.Target{Kind: models.TargetUser, ID: f.bob.ID})
	require.NoError(t, err)
	assert.Empty(t, u.FollowedUsers)
}

func TestFollowToggle_SelfFollowRejected(t *testing.T) {
	f := newFixture(t)
	follows := NewFollows(f.store)
	ctx := context.Background()

	_, err := follows.Toggle(ctx, f.alice, "alice", models.Target{Kind: models.TargetUser, ID: f.alice.ID})
	assert.True(t, apperr.Is(err, apperr.Rule))
	assert.Equal(t, SelfFollowMessage, messageOf(t, err))

	// Rejected before the username is even looked up.
	_, err = follows.Toggle(ctx, f.alice, "nobody", models.Target{Kind: models.TargetUser, ID: f.alice.ID})
	assert.Equal(t, SelfFollowMessage, messageOf(t, err))

	u, err := f.store.UserByID(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Empty(t, u.FollowedUsers)
}

func TestFollowToggle_Failures(t *testing.T) {
	f := newFixture(t)
	follows := NewFollows(f.store)
	ctx := context.Background()

	_, err := follows.Toggle(ctx, f.alice, "alice", models.Target{Kind: models.TargetUser, ID: uuid.NewString()})
	assert.Equal(t, "Error while following/unfollowing a user. Please try again", messageOf(t, err))

	_, err = follows.Toggle(ctx, f.alice, "alice", models.Target{Kind: models.TargetCategory, ID: uuid.NewString()})
	assert.Equal(t, "Error while following/unfollowing a category. Please try again", messageOf(t, err))

	_, err = follows.Toggle(ctx, f.alice, "ghost", models.Target{Kind: models.TargetUser, ID: f.bob.ID})
	assert.True(t, apperr.Is(err, apperr.Reference))

	_, err = follows.Toggle(ctx, f.alice, "alice", models.Target{Kind: models.TargetCategory, ID: "cats"})
	assert.Equal(t, "Category must be a valid ID", messageOf(t, err))

	_, err = follows.Toggle(ctx, f.alice, "bob", models.Target{Kind: models.TargetCategory, ID: f.cats.ID})
	assert.True(t, apperr.Is(err, apperr.Forbidden))
}
