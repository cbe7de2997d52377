// Package feed reads posts for display: filtered listings and single posts
// with their authors, category and comments joined in.
package feed

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/emilythestrangee/aurora/backend/internal/apperr"
	"github.com/emilythestrangee/aurora/backend/internal/database"
	"github.com/emilythestrangee/aurora/backend/internal/models"
)

// Filter values accepted by List.
const (
	FilterCategories = "categories"
	FilterFollowing  = "following"
	FilterLiked      = "liked"
	FilterYours      = "yours"
)

const PostNotFoundMessage = "Post not found"

// ListParams are the raw query parameters of a post listing.
type ListParams struct {
	Limit    string
	Skip     string
	Filter   string
	Category string
	User     string
}

type Reader struct {
	store database.Store
}

func NewReader(store database.Store) *Reader {
	return &Reader{store: store}
}

// List returns posts newest first. A user parameter takes precedence over a
// category parameter, which takes precedence over filter.
func (r *Reader) List(ctx context.Context, caller *models.User, params ListParams) ([]PostView, error) {
	q, err := r.query(ctx, caller, params)
	if err != nil {
		return nil, err
	}

	posts, err := r.store.ListPosts(ctx, q)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return r.project(ctx, posts)
}

func (r *Reader) query(ctx context.Context, caller *models.User, params ListParams) (database.PostQuery, error) {
	var q database.PostQuery

	limit, err := parseCount(params.Limit)
	if err != nil {
		return q, apperr.Invalid("Limit query parameter must be an integer")
	}
	skip, err := parseCount(params.Skip)
	if err != nil {
		return q, apperr.Invalid("Skip query parameter must be an integer")
	}
	q.Limit, q.Skip = limit, skip

	filter := strings.TrimSpace(params.Filter)
	switch filter {
	case "":
	case FilterCategories:
		q.InFollowedCategoriesOf = caller.ID
	case FilterFollowing:
		q.ByFollowedUsersOf = caller.ID
	case FilterLiked:
		q.LikedBy = caller.ID
	case FilterYours:
		q.AuthorID = caller.ID
	default:
		return q, apperr.Invalid("Invalid filter query parameter")
	}

	if slug := strings.TrimSpace(params.Category); slug != "" {
		c, err := r.store.CategoryBySlug(ctx, slug)
		if err != nil {
			return q, invalidParam(err, "Invalid category query parameter")
		}
		q = database.PostQuery{CategoryID: c.ID, Limit: limit, Skip: skip}
	}

	if username := strings.TrimSpace(params.User); username != "" {
		u, err := r.store.UserByUsername(ctx, username)
		if err != nil {
			return q, invalidParam(err, "Invalid user query parameter")
		}
		q = database.PostQuery{AuthorID: u.ID, Limit: limit, Skip: skip}
	}

	return q, nil
}

// parseCount accepts an empty string (zero) or a non-negative integer.
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

func invalidParam(err error, message string) error {
	if errors.Is(err, database.ErrNotFound) {
		return apperr.Invalid(message)
	}
	return apperr.Wrap(err)
}

// Get returns the post with slug and its comments resolved.
func (r *Reader) Get(ctx context.Context, slug string) (*PostDetail, error) {
	post, err := r.store.PostBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.Missing(PostNotFoundMessage)
		}
		return nil, apperr.Wrap(err)
	}
	return r.Detail(ctx, post)
}

// Detail projects a post together with its comments.
func (r *Reader) Detail(ctx context.Context, post *models.Post) (*PostDetail, error) {
	comments, err := r.store.CommentsByPost(ctx, post.ID)
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	userIDs := []string{post.AuthorID}
	for _, c := range comments {
		userIDs = append(userIDs, c.AuthorID)
	}
	users, err := r.store.UsersByIDs(ctx, dedupe(userIDs))
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	categories, err := r.store.CategoriesByIDs(ctx, []string{post.CategoryID})
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	detail := &PostDetail{
		PostView: viewOf(*post, users, categories),
		Comments: make([]CommentView, 0, len(comments)),
	}
	for _, c := range comments {
		detail.Comments = append(detail.Comments, commentViewOf(c, users))
	}
	return detail, nil
}

// View projects a single post without resolving its comments.
func (r *Reader) View(ctx context.Context, post *models.Post) (*PostView, error) {
	views, err := r.project(ctx, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// project resolves authors and categories for posts with one batch query each.
func (r *Reader) project(ctx context.Context, posts []models.Post) ([]PostView, error) {
	out := make([]PostView, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	userIDs := make([]string, 0, len(posts))
	categoryIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		userIDs = append(userIDs, p.AuthorID)
		categoryIDs = append(categoryIDs, p.CategoryID)
	}

	users, err := r.store.UsersByIDs(ctx, dedupe(userIDs))
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	categories, err := r.store.CategoriesByIDs(ctx, dedupe(categoryIDs))
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	for _, p := range posts {
		out = append(out, viewOf(p, users, categories))
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
