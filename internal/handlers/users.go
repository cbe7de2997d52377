package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/aurora/backend/internal/accounts"
	"github.com/emilythestrangee/aurora/backend/internal/engagement"
	"github.com/emilythestrangee/aurora/backend/internal/models"
	"github.com/emilythestrangee/aurora/backend/internal/stats"
)

type UserHandler struct {
	accounts *accounts.Service
	follows  *engagement.Follows
	stats    *stats.Aggregator
}

func NewUserHandler(accounts *accounts.Service, follows *engagement.Follows, stats *stats.Aggregator) *UserHandler {
	return &UserHandler{accounts: accounts, follows: follows, stats: stats}
}

// GetUsers returns every user ordered by username
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.accounts.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUserProfile returns a user together with their post, comment,
// reaction and follower counts
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	user, err := h.accounts.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	enriched, err := h.stats.EnrichUser(c.Request.Context(), *user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enriched)
}

// UpdateUserProfile sets the caller's bio and avatar. The avatar may be a
// URL or an uploaded_avatar file.
func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}

	var input struct {
		Bio    *string `json:"bio" form:"bio"`
		Avatar *string `json:"avatar" form:"avatar"`
	}
	if !bindBody(c, &input) {
		return
	}
	upload, err := formUpload(c, "uploaded_avatar")
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.accounts.UpdateProfile(c.Request.Context(), caller, c.Param("username"), accounts.ProfileInput{
		Bio:    input.Bio,
		Avatar: input.Avatar,
		Upload: upload,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// FollowUser toggles the follow edge from :username to the user in user_id
func (h *UserHandler) FollowUser(c *gin.Context) {
	var input struct {
		UserID string `json:"user_id" form:"user_id"`
	}
	if !bindBody(c, &input) {
		return
	}
	h.toggle(c, models.Target{Kind: models.TargetUser, ID: input.UserID})
}

// FollowCategory toggles the follow edge from :username to the category in category_id
func (h *UserHandler) FollowCategory(c *gin.Context) {
	var input struct {
		CategoryID string `json:"category_id" form:"category_id"`
	}
	if !bindBody(c, &input) {
		return
	}
	h.toggle(c, models.Target{Kind: models.TargetCategory, ID: input.CategoryID})
}

func (h *UserHandler) toggle(c *gin.Context, target models.Target) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.follows.Toggle(c.Request.Context(), caller, c.Param("username"), target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
