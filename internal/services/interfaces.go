package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// CategoryInput carries the fields of a new category.
type CategoryInput struct {
	Name        string              `validate:"required,max=100"`
	Type        models.CategoryType `validate:"required,category_type"`
	Description *string             `validate:"omitempty,max=500"`
}

// CategoryUpdate carries the fields to change on a category. Nil fields are
// left untouched; the name is the lookup key and cannot be changed.
type CategoryUpdate struct {
	Type        *models.CategoryType `validate:"omitempty,category_type"`
	Description *string              `validate:"omitempty,max=500"`
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, name string) (*models.Category, error)
	UpdateCategory(ctx context.Context, name string, update CategoryUpdate) (*models.Category, error)
	DeleteCategory(ctx context.Context, name string) (int64, error)
}

// TransactionInput carries the fields of a new transaction.
type TransactionInput struct {
	Title       string                 `validate:"min=3,max=100"`
	Description *string                `validate:"omitempty,max=500"`
	Amount      float64                `validate:"gt=0"`
	Type        models.TransactionType `validate:"transaction_type"`
	Category    string                 `validate:"required,max=100"`
	Date        time.Time              `validate:"required,notfuture"`
	Tags        []string               `validate:"max=10,dive,max=30"`
}

// TransactionUpdate carries the fields to change on a transaction. A nil
// field was not provided and is left untouched.
type TransactionUpdate struct {
	Title       *string
	Description *string
	Amount      *float64
	Type        *models.TransactionType
	Category    *string
	Date        *time.Time
	Tags        *[]string
}

// TransactionFilter holds optional filter parameters for listing transactions.
// The date range applies only when both From and To are set.
type TransactionFilter struct {
	Category *string
	Type     *models.TransactionType
	From     *time.Time
	To       *time.Time
	Tags     []string
}

// TransactionSort selects the ordering of a transaction listing. The zero
// value sorts by date, newest first.
type TransactionSort struct {
	Field     string
	Ascending bool
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, input TransactionInput) (*models.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter, sort TransactionSort, page pagination.PageRequest) ([]models.Transaction, error)
	SearchTransactions(ctx context.Context, query string) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, update TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	BulkDeleteTransactions(ctx context.Context, category *string) (int64, error)
}

// TypeTotal is the summed amount of one transaction type.
type TypeTotal struct {
	Type  models.TransactionType `json:"type"`
	Total float64                `json:"total"`
}

// CategoryTotal is the summed expense amount of one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// MonthlySummary contains the aggregated figures of one calendar month.
type MonthlySummary struct {
	Month             string              `json:"month"`
	TransactionCount  int                 `json:"transaction_count"`
	Totals            []TypeTotal         `json:"totals"`
	HighestExpense    *models.Transaction `json:"highest_expense"`
	CategoryBreakdown []CategoryTotal     `json:"category_breakdown"`
}

// Empty reports whether no transaction fell into the month.
func (s *MonthlySummary) Empty() bool {
	return s.TransactionCount == 0
}

// ReportServicer defines the contract for reporting.
type ReportServicer interface {
	MonthlySummary(ctx context.Context, month string) (*MonthlySummary, error)
}

// AuditEntry describes a mutation to be recorded.
type AuditEntry struct {
	Action     models.AuditAction
	EntityType string
	EntityKey  string
	Payload    map[string]interface{}
}

// AuditRecorder defines the contract for audit logging. Record must be called
// with the mutation's own database transaction so both commit or neither does;
// Announce is called after commit.
type AuditRecorder interface {
	Record(tx *gorm.DB, entry AuditEntry) (*models.AuditLog, error)
	Announce(ctx context.Context, logs ...*models.AuditLog)
}
