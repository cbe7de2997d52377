// Package authoring creates posts, categories and comments.
package authoring

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/emilythestrangee/aurora/backend/internal/apperr"
	"github.com/emilythestrangee/aurora/backend/internal/blob"
	"github.com/emilythestrangee/aurora/backend/internal/content"
	"github.com/emilythestrangee/aurora/backend/internal/database"
	"github.com/emilythestrangee/aurora/backend/internal/feed"
	"github.com/emilythestrangee/aurora/backend/internal/models"
	"github.com/emilythestrangee/aurora/backend/internal/observability"
	"github.com/emilythestrangee/aurora/backend/internal/slug"
	"github.com/emilythestrangee/aurora/backend/internal/validation"
)

const (
	InvalidPostTypeMessage   = "Invalid post type"
	UnsupportedFormatMessage = "Unsupported file format"
	CategoryExistsMessage    = "Category already exists"
	ProhibitedNameMessage    = "Prohibited category name"
	EmptySlugMessage         = "Category name must contain at least one letter or number"

	postFailedMessage    = "Error while creating a post. Please try again"
	commentFailedMessage = "Error while creating a post comment. Please try again"
)

type postFields struct {
	Author   string `validate:"uuid"`
	Title    string `validate:"min=3,max=64"`
	Content  string `validate:"min=8"`
	Category string `validate:"uuid"`
}

// uploadedPostFields is used when an image file replaces the content field.
type uploadedPostFields struct {
	Author   string `validate:"uuid"`
	Title    string `validate:"min=3,max=64"`
	Category string `validate:"uuid"`
}

var postMessages = validation.Messages{
	"Author":   "Author field must be a valid ID",
	"Title":    "Post title must contain between 3 and 64 characters",
	"Content":  "Post content must contain at least 8 characters",
	"Category": "Category field must be a valid ID",
}

type categoryName struct {
	Name string `validate:"min=3,max=32,nodigitfirst"`
}

type categoryDescription struct {
	Description string `validate:"min=3,max=320"`
}

var categoryMessages = validation.Messages{
	"Name":              "Category name must contain between 3 and 32 characters",
	"Name.nodigitfirst": "Category name cannot start with a number",
	"Description":       "Category description must contain between 3 and 320 characters",
}

type commentFields struct {
	Author  string `validate:"uuid"`
	Content string `validate:"min=3,max=320"`
}

var commentMessages = validation.Messages{
	"Author":  "Author field must be a valid ID",
	"Content": "Comment content must contain between 3 and 320 characters",
}

// PostInput is a new post as received from the client. Type is the raw
// query parameter; Upload is set for multipart image posts.
type PostInput struct {
	Type     string
	Author   string
	Title    string
	Content  string
	Category string
	Upload   *content.Upload
}

// CategoryInput is a new category; Upload is an optional icon file.
type CategoryInput struct {
	Name        string
	Description string
	Upload      *content.Upload
}

// CommentInput is a new comment on a post.
type CommentInput struct {
	Author  string
	Content string
}

type Service struct {
	store    database.Store
	blobs    blob.Store
	fetcher  *blob.Fetcher
	defaults content.Defaults
	reader   *feed.Reader
}

func NewService(store database.Store, blobs blob.Store, fetcher *blob.Fetcher, defaults content.Defaults) *Service {
	return &Service{
		store:    store,
		blobs:    blobs,
		fetcher:  fetcher,
		defaults: defaults,
		reader:   feed.NewReader(store),
	}
}

// CreatePost validates, resolves the body and stores a post liked by its author.
func (s *Service) CreatePost(ctx context.Context, in PostInput) (*feed.PostView, error) {
	postType, ok := models.ParsePostType(strings.TrimSpace(in.Type))
	if !ok {
		return nil, apperr.Invalid(InvalidPostTypeMessage)
	}

	author := strings.TrimSpace(in.Author)
	title := strings.TrimSpace(in.Title)
	raw := strings.TrimSpace(in.Content)
	category := strings.TrimSpace(in.Category)

	upload := in.Upload
	if postType != models.PostImage {
		upload = nil
	}
	var err error
	if upload != nil {
		err = validation.Check(uploadedPostFields{author, title, category}, postMessages)
	} else {
		err = validation.Check(postFields{author, title, raw, category}, postMessages)
	}
	if err != nil {
		return nil, err
	}

	body, err := content.NewBody(postType, raw, upload)
	if err != nil {
		return nil, apperr.Invalid(InvalidPostTypeMessage)
	}

	if err := s.checkRefs(ctx, author, category); err != nil {
		return nil, err
	}

	html, err := s.render(ctx, body, title)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:         uuid.NewString(),
		AuthorID:   author,
		Title:      title,
		Content:    html,
		Type:       postType,
		CategoryID: category,
		CreatedAt:  time.Now().UTC(),
		Slug:       slug.Post(title),
		Likes:      []string{author},
		Dislikes:   []string{},
		CommentIDs: []string{},
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, apperr.Wrap(err)
	}

	observability.ContentCreated.WithLabelValues("post").Inc()
	slog.InfoContext(ctx, "post created", "post", post.ID, "slug", post.Slug, "type", post.Type)
	return s.reader.View(ctx, post)
}

// checkRefs looks up the author and category concurrently.
func (s *Service) checkRefs(ctx context.Context, authorID, categoryID string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.store.UserByID(gctx, authorID)
		return err
	})
	g.Go(func() error {
		_, err := s.store.CategoryByID(gctx, categoryID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperr.Failed(postFailedMessage)
		}
		return apperr.Wrap(err)
	}
	return nil
}

// render turns a post body into the HTML stored as the post's content.
func (s *Service) render(ctx context.Context, body content.Body, title string) (string, error) {
	switch b := body.(type) {
	case content.Text:
		return content.Sanitize(b.HTML), nil

	case content.Image:
		var data []byte
		var mime string
		if b.Upload != nil {
			data, mime = b.Upload.Data, blob.DetectType(b.Upload.Data)
		} else {
			fetched, err := s.fetcher.Fetch(ctx, b.URL)
			if err != nil {
				slog.WarnContext(ctx, "image fetch failed", "url", b.URL, "error", err)
				return "", apperr.New(apperr.Reference, postFailedMessage, err)
			}
			data, mime = fetched.Data, fetched.ContentType
		}
		if !content.IsAllowedImageType(mime) {
			return "", apperr.Broken(UnsupportedFormatMessage)
		}
		url, err := s.blobs.Put(ctx, blob.FolderImages, data, mime)
		if err != nil {
			return "", apperr.Wrap(err)
		}
		return content.ImageTag(url, title), nil

	case content.Video:
		if !content.IsEmbeddableVideo(b.EmbedURL) {
			return "", apperr.Failed(postFailedMessage)
		}
		return content.VideoTag(b.EmbedURL, title), nil
	}
	return "", apperr.Invalid(InvalidPostTypeMessage)
}

// CreateCategory validates and stores a category. The name is unique by
// slug, so names differing only in case or punctuation collide.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)

	if err := validation.Check(categoryName{name}, categoryMessages); err != nil {
		return nil, err
	}

	_, err := s.store.CategoryBySlug(ctx, slug.Make(name))
	switch {
	case err == nil:
		return nil, apperr.Invalid(CategoryExistsMessage)
	case !errors.Is(err, database.ErrNotFound):
		return nil, apperr.Wrap(err)
	}

	categorySlug, err := slug.Category(name)
	switch {
	case errors.Is(err, slug.ErrReserved):
		return nil, apperr.Broken(ProhibitedNameMessage)
	case errors.Is(err, slug.ErrEmpty):
		return nil, apperr.Invalid(EmptySlugMessage)
	case err != nil:
		return nil, apperr.Wrap(err)
	}

	if err := validation.Check(categoryDescription{description}, categoryMessages); err != nil {
		return nil, err
	}

	icon := s.defaults.CategoryIcon()
	if in.Upload != nil {
		mime := blob.DetectType(in.Upload.Data)
		if !content.IsAllowedImageType(mime) {
			return nil, apperr.Broken(UnsupportedFormatMessage)
		}
		icon, err = s.blobs.Put(ctx, blob.FolderCategoryIcons, in.Upload.Data, mime)
		if err != nil {
			return nil, apperr.Wrap(err)
		}
	}

	category := &models.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        categorySlug,
		Icon:        icon,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperr.Invalid(CategoryExistsMessage)
		}
		return nil, apperr.Wrap(err)
	}

	observability.ContentCreated.WithLabelValues("category").Inc()
	slog.InfoContext(ctx, "category created", "category", category.ID, "slug", category.Slug)
	return category, nil
}

// CreateComment adds a comment, liked by its author, to the post with
// postSlug and returns the updated post.
func (s *Service) CreateComment(ctx context.Context, postSlug string, in CommentInput) (*feed.PostDetail, error) {
	fields := commentFields{
		Author:  strings.TrimSpace(in.Author),
		Content: strings.TrimSpace(in.Content),
	}
	if err := validation.Check(fields, commentMessages); err != nil {
		return nil, err
	}

	failed := apperr.Failed(commentFailedMessage)
	if _, err := s.store.UserByID(ctx, fields.Author); err != nil {
		return nil, orFailed(err, failed)
	}
	post, err := s.store.PostBySlug(ctx, postSlug)
	if err != nil {
		return nil, orFailed(err, failed)
	}

	comment := &models.Comment{
		ID:        uuid.NewString(),
		PostID:    post.ID,
		AuthorID:  fields.Author,
		Content:   fields.Content,
		CreatedAt: time.Now().UTC(),
		Likes:     []string{fields.Author},
		Dislikes:  []string{},
	}
	if err := s.store.AddComment(ctx, comment); err != nil {
		return nil, orFailed(err, failed)
	}
	observability.ContentCreated.WithLabelValues("comment").Inc()

	updated, err := s.store.PostBySlug(ctx, postSlug)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return s.reader.Detail(ctx, updated)
}

func orFailed(err error, failed *apperr.AppError) error {
	if errors.Is(err, database.ErrNotFound) {
		return failed
	}
	return apperr.Wrap(err)
}
