package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/aurora/backend/internal/authoring"
	"github.com/emilythestrangee/aurora/backend/internal/engagement"
	"github.com/emilythestrangee/aurora/backend/internal/models"
)

type CommentHandler struct {
	authoring *authoring.Service
	reactions *engagement.Reactions
}

func NewCommentHandler(authoring *authoring.Service, reactions *engagement.Reactions) *CommentHandler {
	return &CommentHandler{authoring: authoring, reactions: reactions}
}

// CreateComment creates a new comment on a post and returns the updated post
func (h *CommentHandler) CreateComment(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}

	var input struct {
		Author  string `json:"author" form:"author"`
		Content string `json:"content" form:"content"`
	}
	if !bindBody(c, &input) {
		return
	}

	post, err := h.authoring.CreateComment(c.Request.Context(), c.Param("slug"), authoring.CommentInput{
		Author:  orCaller(input.Author, caller),
		Content: input.Content,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// LikeComment toggles the caller's like on a comment
func (h *CommentHandler) LikeComment(c *gin.Context) {
	h.react(c, models.Like)
}

// DislikeComment toggles the caller's dislike on a comment
func (h *CommentHandler) DislikeComment(c *gin.Context) {
	h.react(c, models.Dislike)
}

func (h *CommentHandler) react(c *gin.Context, dir models.Direction) {
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

	outcome, err := h.reactions.ReactToComment(c.Request.Context(), c.Param("slug"), c.Param("commentID"),
		orCaller(input.User, caller), dir)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, engagement.Message(models.TargetComment, dir, outcome))
}
