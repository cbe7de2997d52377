package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/aurora/backend/internal/accounts"
	"github.com/emilythestrangee/aurora/backend/internal/apperr"
	"github.com/emilythestrangee/aurora/backend/internal/authoring"
	"github.com/emilythestrangee/aurora/backend/internal/content"
	"github.com/emilythestrangee/aurora/backend/internal/database"
	"github.com/emilythestrangee/aurora/backend/internal/engagement"
	"github.com/emilythestrangee/aurora/backend/internal/feed"
	"github.com/emilythestrangee/aurora/backend/internal/middleware"
	"github.com/emilythestrangee/aurora/backend/internal/models"
	"github.com/emilythestrangee/aurora/backend/internal/stats"
)

const invalidBodyMessage = "Invalid request body"

// Services are the domain services the handlers call into.
type Services struct {
	Store     database.Store
	Accounts  *accounts.Service
	Authoring *authoring.Service
	Reactions *engagement.Reactions
	Follows   *engagement.Follows
	Feed      *feed.Reader
	Stats     *stats.Aggregator
}

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	User     *UserHandler
	Category *CategoryHandler
	Post     *PostHandler
	Comment  *CommentHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(s Services) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(s.Accounts),
		User:     NewUserHandler(s.Accounts, s.Follows, s.Stats),
		Category: NewCategoryHandler(s.Store, s.Authoring, s.Stats),
		Post:     NewPostHandler(s.Feed, s.Authoring, s.Reactions),
		Comment:  NewCommentHandler(s.Authoring, s.Reactions),
	}
}

// respondError writes err as {"error": message}. Internal causes are logged
// and replaced by a generic message.
func respondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	message := apperr.InternalMessage

	var appErr *apperr.AppError
	if errors.As(err, &appErr) && code != apperr.Internal {
		message = appErr.Message
	}
	if code == apperr.Internal {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	}

	c.JSON(apperr.HTTPStatus(code), gin.H{"error": message})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// bindBody decodes a JSON or form body into dst. An empty body leaves dst
// zeroed so the field validators report what is missing.
func bindBody(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 && c.Request.Body == http.NoBody {
		return true
	}
	if err := c.ShouldBind(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidBodyMessage})
		return false
	}
	return true
}

// formUpload reads an optional file field from a multipart body.
func formUpload(c *gin.Context, field string) (*content.Upload, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil
	}
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, apperr.Invalid(invalidBodyMessage)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", field, err)
	}
	return &content.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// currentUser returns the authenticated user; routes using it sit behind
// AuthMiddleware.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": accounts.UnauthorizedMessage})
		return nil, false
	}
	return user, true
}

// orCaller returns id, or the caller's ID when id is blank.
func orCaller(id string, caller *models.User) string {
	if strings.TrimSpace(id) == "" {
		return caller.ID
	}
	return id
}
