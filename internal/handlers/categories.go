package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/aurora/backend/internal/apperr"
	"github.com/emilythestrangee/aurora/backend/internal/authoring"
	"github.com/emilythestrangee/aurora/backend/internal/database"
	"github.com/emilythestrangee/aurora/backend/internal/stats"
)

const categoryNotFoundMessage = "Category not found"

type CategoryHandler struct {
	store     database.Store
	authoring *authoring.Service
	stats     *stats.Aggregator
}

func NewCategoryHandler(store database.Store, authoring *authoring.Service, stats *stats.Aggregator) *CategoryHandler {
	return &CategoryHandler{store: store, authoring: authoring, stats: stats}
}

// GetCategories returns every category ordered by name
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// CreateCategory creates a category, with an optional uploaded_icon file
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var input struct {
		Name        string `json:"name" form:"name"`
		Description string `json:"description" form:"description"`
	}
	if !bindBody(c, &input) {
		return
	}
	upload, err := formUpload(c, "uploaded_icon")
	if err != nil {
		respondError(c, err)
		return
	}

	_, err = h.authoring.CreateCategory(c.Request.Context(), authoring.CategoryInput{
		Name:        input.Name,
		Description: input.Description,
		Upload:      upload,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "Category created successfully!")
}

// GetCategory returns a category with its post and follower counts
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.store.CategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(c, apperr.Missing(categoryNotFoundMessage))
			return
		}
		respondError(c, err)
		return
	}

	enriched, err := h.stats.EnrichCategory(c.Request.Context(), *category)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enriched)
}
