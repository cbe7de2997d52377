package database

import (
	"context"
	"errors"

	"github.com/emilythestrangee/aurora/backend/internal/models"
)

var (
	// ErrNotFound is returned when a looked-up or referenced entity does not exist.
	ErrNotFound = errors.New("database: not found")
	// ErrDuplicate is returned when a unique key (username, slug) is already taken.
	ErrDuplicate = errors.New("database: duplicate key")
)

// PostQuery selects posts for a listing. At most one of the scope fields is
// expected to be set; results are newest first.
type PostQuery struct {
	AuthorID               string
	CategoryID             string
	InFollowedCategoriesOf string
	ByFollowedUsersOf      string
	LikedBy                string

	Limit int // 0 means no limit
	Skip  int
}

// CountKind names one of the derived counts the stats aggregator asks for.
type CountKind int

const (
	PostsByAuthor CountKind = iota
	PostsLikedBy
	PostsDislikedBy
	CommentsByAuthor
	CommentsLikedBy
	CommentsDislikedBy
	FollowersOfUser
	PostsInCategory
	FollowersOfCategory
)

func (k CountKind) String() string {
	switch k {
	case PostsByAuthor:
		return "posts_by_author"
	case PostsLikedBy:
		return "posts_liked_by"
	case PostsDislikedBy:
		return "posts_disliked_by"
	case CommentsByAuthor:
		return "comments_by_author"
	case CommentsLikedBy:
		return "comments_liked_by"
	case CommentsDislikedBy:
		return "comments_disliked_by"
	case FollowersOfUser:
		return "followers_of_user"
	case PostsInCategory:
		return "posts_in_category"
	case FollowersOfCategory:
		return "followers_of_category"
	}
	return "unknown"
}

// Store is the system of record. Implementations must make ApplyReaction and
// ToggleFollow atomic per entity: two users reacting to the same post at the
// same time must both be recorded.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	// UserByUsername matches case-insensitively.
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id, bio, avatar string) (*models.User, error)
	// ToggleFollow flips the follow edge from followerID to target and
	// reports whether the edge exists afterwards.
	ToggleFollow(ctx context.Context, followerID string, target models.Target) (bool, error)

	CreateCategory(ctx context.Context, category *models.Category) error
	CategoryByID(ctx context.Context, id string) (*models.Category, error)
	CategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	CategoriesByIDs(ctx context.Context, ids []string) (map[string]models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)

	// CreatePost stores post together with its initial Likes.
	CreatePost(ctx context.Context, post *models.Post) error
	PostBySlug(ctx context.Context, slug string) (*models.Post, error)
	ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error)

	// AddComment stores comment and appends it to the post named by comment.PostID.
	AddComment(ctx context.Context, comment *models.Comment) error
	CommentByID(ctx context.Context, id string) (*models.Comment, error)
	// CommentsByPost returns a post's comments newest first.
	CommentsByPost(ctx context.Context, postID string) ([]models.Comment, error)

	// ApplyReaction runs one step of the reaction state machine for
	// (target, userID) as a single atomic update.
	ApplyReaction(ctx context.Context, target models.Target, userID string, dir models.Direction) (models.Outcome, error)

	Count(ctx context.Context, kind CountKind, id string) (int64, error)

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// nonNil keeps empty sets serialising as [] instead of null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
