// Package stats joins derived counts onto users and categories at read time.
package stats

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/emilythestrangee/aurora/backend/internal/database"
	"github.com/emilythestrangee/aurora/backend/internal/models"
)

// UserWithStats is a user profile with its activity counts.
type UserWithStats struct {
	models.User
	PostsCount           int64 `json:"postsCount"`
	PostLikesCount       int64 `json:"postLikesCount"`
	PostDislikesCount    int64 `json:"postDislikesCount"`
	CommentsCount        int64 `json:"commentsCount"`
	CommentLikesCount    int64 `json:"commentLikesCount"`
	CommentDislikesCount int64 `json:"commentDislikesCount"`
	FollowersCount       int64 `json:"followersCount"`
}

// CategoryWithStats is a category with its post and follower counts.
type CategoryWithStats struct {
	models.Category
	PostsCount     int64 `json:"postsCount"`
	FollowersCount int64 `json:"followersCount"`
}

type Aggregator struct {
	store database.Store
}

func NewAggregator(store database.Store) *Aggregator {
	return &Aggregator{store: store}
}

func (a *Aggregator) EnrichUser(ctx context.Context, user models.User) (*UserWithStats, error) {
	out := &UserWithStats{User: user}
	err := a.count(ctx, user.ID, map[database.CountKind]*int64{
		database.PostsByAuthor:      &out.PostsCount,
		database.PostsLikedBy:       &out.PostLikesCount,
		database.PostsDislikedBy:    &out.PostDislikesCount,
		database.CommentsByAuthor:   &out.CommentsCount,
		database.CommentsLikedBy:    &out.CommentLikesCount,
		database.CommentsDislikedBy: &out.CommentDislikesCount,
		database.FollowersOfUser:    &out.FollowersCount,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Aggregator) EnrichCategory(ctx context.Context, category models.Category) (*CategoryWithStats, error) {
	out := &CategoryWithStats{Category: category}
	err := a.count(ctx, category.ID, map[database.CountKind]*int64{
		database.PostsInCategory:     &out.PostsCount,
		database.FollowersOfCategory: &out.FollowersCount,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// count runs one query per kind concurrently; each goroutine writes only
// its own destination.
func (a *Aggregator) count(ctx context.Context, id string, into map[database.CountKind]*int64) error {
	g, ctx := errgroup.WithContext(ctx)
	for kind, dst := range into {
		g.Go(func() error {
			n, err := a.store.Count(ctx, kind, id)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}
	return g.Wait()
}
