package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/aurora/backend/internal/authoring"
	"github.com/emilythestrangee/aurora/backend/internal/engagement"
	"github.com/emilythestrangee/aurora/backend/internal/feed"
	"github.com/emilythestrangee/aurora/backend/internal/models"
)

type PostHandler struct {
	feed      *feed.Reader
	authoring *authoring.Service
	reactions *engagement.Reactions
}

func NewPostHandler(feed *feed.Reader, authoring *authoring.Service, reactions *engagement.Reactions) *PostHandler {
	return &PostHandler{feed: feed, authoring: authoring, reactions: reactions}
}

// GetPosts returns posts newest first, narrowed by the user, category or
// filter query parameters and paginated by limit and skip
func (h *PostHandler) GetPosts(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}

	posts, err := h.feed.List(c.Request.Context(), caller, feed.ListParams{
		Limit:    c.Query("limit"),
		Skip:     c.Query("skip"),
		Filter:   c.Query("filter"),
		Category: c.Query("category"),
		User:     c.Query("user"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetPost returns a single post by slug with its comments
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.feed.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreatePost creates a text, image or video post. Image posts take either
// a URL in content or an uploaded_image file.
func (h *PostHandler) CreatePost(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}

	var input struct {
		Author   string `json:"author" form:"author"`
		Title    string `json:"title" form:"title"`
		Content  string `json:"content" form:"content"`
		Category string `json:"category" form:"category"`
	}
	if !bindBody(c, &input) {
		return
	}
	upload, err := formUpload(c, "uploaded_image")
	if err != nil {
		respondError(c, err)
		return
	}

	post, err := h.authoring.CreatePost(c.Request.Context(), authoring.PostInput{
		Type:     c.Query("type"),
		Author:   orCaller(input.Author, caller),
		Title:    input.Title,
		Content:  input.Content,
		Category: input.Category,
		Upload:   upload,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// LikePost toggles the caller's like on a post
func (h *PostHandler) LikePost(c *gin.Context) {
	h.react(c, models.Like)
}

// DislikePost toggles the caller's dislike on a post
func (h *PostHandler) DislikePost(c *gin.Context) {
	h.react(c, models.Dislike)
}

func (h *PostHandler) react(c *gin.Context, dir models.Direction) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}

	var input struct {
		User string `json:"user" form:"user"`
	}
	if !bindBody(c, &input) {
		return
	}

	outcome, err := h.reactions.ReactToPost(c.Request.Context(), c.Param("slug"), orCaller(input.User, caller), dir)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, engagement.Message(models.TargetPost, dir, outcome))
}
