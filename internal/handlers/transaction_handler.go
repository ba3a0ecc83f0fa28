package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	Title       string                 `json:"title" binding:"required"`
	Description *string                `json:"description" binding:"omitempty,max=500"`
	Amount      float64                `json:"amount" binding:"required,gt=0"`
	Type        models.TransactionType `json:"type" binding:"required,transaction_type"`
	Category    string                 `json:"category" binding:"required"`
	Date        string                 `json:"date" binding:"required" example:"2024-03-05T08:30:00Z"`
	Tags        []string               `json:"tags" binding:"omitempty,max=10,dive,max=30"`
}

// UpdateTransactionRequest represents the request payload for updating a
// transaction. Omitted fields are left unchanged.
type UpdateTransactionRequest struct {
	Title       *string                 `json:"title"`
	Description *string                 `json:"description"`
	Amount      *float64                `json:"amount"`
	Type        *models.TransactionType `json:"type"`
	Category    *string                 `json:"category"`
	Date        *string                 `json:"date" example:"2024-03-05"`
	Tags        *[]string               `json:"tags"`
}

// listQuery holds the list filters parsed from the query string.
type listQuery struct {
	Category string `form:"category"`
	Type     string `form:"type" binding:"omitempty,transaction_type"`
	From     string `form:"from"`
	To       string `form:"to"`
	SortBy   string `form:"sort_by"`
	Order    string `form:"order" binding:"omitempty,oneof=asc desc"`
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Create a new income or expense. The category is stored lowercased.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} Response{data=models.Transaction} "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	date, err := parseFlexibleTime(req.Date)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transaction, err := h.transactionService.CreateTransaction(c.Request.Context(), services.TransactionInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		Type:        req.Type,
		Category:    req.Category,
		Date:        date,
		Tags:        req.Tags,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Created", transaction)
}

// ListTransactions handles listing transactions
// @Summary     List transactions
// @Description Filter, sort, and page through transactions. The date range applies only when both from and to are given.
// @Tags        transactions
// @Produce     json
// @Param       category  query string   false "Filter by category"
// @Param       type      query string   false "Filter by type (income, expense)"
// @Param       from      query string   false "Range start (RFC3339 or YYYY-MM-DD)"
// @Param       to        query string   false "Range end (RFC3339 or YYYY-MM-DD)"
// @Param       tags      query []string false "Transactions must carry every tag" collectionFormat(multi)
// @Param       sort_by   query string   false "Sort field (date, amount, title, type, category, created_at, updated_at)"
// @Param       order     query string   false "Sort order (asc, desc)" default(desc)
// @Param       page      query int      false "Page number" default(1)
// @Param       page_size query int      false "Items per page" default(20)
// @Success     200 {object} Response{data=[]models.Transaction} "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var pq pagination.PageQuery
	if err := c.ShouldBindQuery(&pq); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	page := pq.Request()

	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter, err := parseTransactionFilter(c, q)
	if err != nil {
		respondWithError(c, err)
		return
	}

	sort := services.TransactionSort{Field: q.SortBy, Ascending: q.Order == "asc"}
	transactions, err := h.transactionService.ListTransactions(c.Request.Context(), filter, sort, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Fetched", transactions)
}

func parseTransactionFilter(c *gin.Context, q listQuery) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if q.Category != "" {
		filter.Category = &q.Category
	}
	if q.Type != "" {
		txType := models.TransactionType(q.Type)
		filter.Type = &txType
	}

	if q.From != "" {
		t, err := parseFlexibleTime(q.From)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from date, use RFC3339 or YYYY-MM-DD")
		}
		filter.From = &t
	}
	if q.To != "" {
		t, err := parseFlexibleTime(q.To)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to date, use RFC3339 or YYYY-MM-DD")
		}
		filter.To = &t
	}

	// Both tags[]=a&tags[]=b and tags=a&tags=b are accepted.
	for _, key := range []string{"tags", "tags[]"} {
		for _, tag := range c.QueryArray(key) {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}

	return filter, nil
}

// SearchTransactions handles full-text search
// @Summary     Search transactions
// @Description Match words in title and description; best matches first
// @Tags        transactions
// @Produce     json
// @Param       q query string true "Search text"
// @Success     200 {object} Response{data=[]models.Transaction} "Search results"
// @Failure     400 {object} ErrorResponse "Missing or empty query"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/search [get]
func (h *TransactionHandler) SearchTransactions(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "q is required"))
		return
	}

	transactions, err := h.transactionService.SearchTransactions(c.Request.Context(), q)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Search results", transactions)
}

// GetTransaction handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} Response{data=models.Transaction} "Transaction details"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	transaction, err := h.transactionService.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Fetched", transaction)
}

// UpdateTransaction handles updating a transaction
// @Summary     Update a transaction
// @Description Change the provided fields of a transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} Response{data=models.Transaction} "Transaction updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [patch]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	update := services.TransactionUpdate{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		Type:        req.Type,
		Category:    req.Category,
		Tags:        req.Tags,
	}
	if req.Date != nil {
		date, err := parseFlexibleTime(*req.Date)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
		update.Date = &date
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Updated", transaction)
}

// DeleteTransaction handles deleting a transaction
// @Summary     Delete a transaction
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} Response "Transaction deleted"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	if err := h.transactionService.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Deleted", nil)
}

// BulkDeleteTransactions handles deleting many transactions at once
// @Summary     Bulk delete transactions
// @Description Delete every transaction in a category, or every transaction when no category is given
// @Tags        transactions
// @Produce     json
// @Param       category query string false "Only delete transactions in this category"
// @Success     200 {object} Response{data=object} "Number of deleted transactions"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/bulk [delete]
func (h *TransactionHandler) BulkDeleteTransactions(c *gin.Context) {
	var category *string
	if v, ok := c.GetQuery("category"); ok && strings.TrimSpace(v) != "" {
		category = &v
	}

	count, err := h.transactionService.BulkDeleteTransactions(c.Request.Context(), category)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Bulk deleted", gin.H{"count": count})
}
