package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fintrack/internal/models"
	"fintrack/internal/services"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name        string              `json:"name" binding:"required,max=100"`
	Type        models.CategoryType `json:"type" binding:"required,category_type"`
	Description *string             `json:"description" binding:"omitempty,max=500"`
}

// UpdateCategoryRequest represents the request payload for updating a category.
// The name in the path identifies the category and cannot be changed.
type UpdateCategoryRequest struct {
	Type        *models.CategoryType `json:"type" binding:"omitempty,category_type"`
	Description *string              `json:"description" binding:"omitempty,max=500"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a new category. The name is stored trimmed and lowercased.
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} Response{data=models.Category} "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Category already exists"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), services.CategoryInput{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Created", category)
}

// ListCategories handles the retrieval of all categories
// @Summary     List categories
// @Description List every category in creation order
// @Tags        categories
// @Produce     json
// @Success     200 {object} Response{data=[]models.Category} "List of categories"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categoryService.ListCategories(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Fetched", categories)
}

// GetCategory handles the retrieval of a specific category
// @Summary     Get category by name
// @Tags        categories
// @Produce     json
// @Param       name path string true "Category name"
// @Success     200 {object} Response{data=models.Category} "Category details"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{name} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.categoryService.GetCategory(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Fetched", category)
}

// UpdateCategory handles updating a category
// @Summary     Update a category
// @Description Change the type and/or description of a category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       name    path string                true "Category name"
// @Param       request body UpdateCategoryRequest true "Fields to change"
// @Success     200 {object} Response{data=models.Category} "Category updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{name} [patch]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), c.Param("name"), services.CategoryUpdate{
		Type:        req.Type,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Updated", category)
}

// DeleteCategory handles deleting a category
// @Summary     Delete a category
// @Description Delete a category and move its transactions to "uncategorized"
// @Tags        categories
// @Produce     json
// @Param       name path string true "Category name"
// @Success     200 {object} Response{data=object} "Category deleted"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{name} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	reassigned, err := h.categoryService.DeleteCategory(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Deleted transactionally", gin.H{"reassigned_transactions": reassigned})
}
