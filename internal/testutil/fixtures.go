package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/models"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestCategory inserts a category of the given type with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return CreateTestCategoryNamed(t, db, fmt.Sprintf("category %d", nextID()), categoryType)
}

// CreateTestCategoryNamed inserts a category with the given (already normalized) name.
func CreateTestCategoryNamed(t *testing.T, db *gorm.DB, name string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	now := time.Now().UTC()
	category := &models.Category{
		Name:      name,
		Type:      categoryType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// TransactionOption customizes a fixture transaction.
type TransactionOption func(*models.Transaction)

// WithCategory sets the transaction's category reference.
func WithCategory(name string) TransactionOption {
	return func(tx *models.Transaction) { tx.Category = name }
}

// WithDate sets the transaction date.
func WithDate(date time.Time) TransactionOption {
	return func(tx *models.Transaction) { tx.Date = date }
}

// WithTitle sets the transaction title.
func WithTitle(title string) TransactionOption {
	return func(tx *models.Transaction) { tx.Title = title }
}

// WithTags sets the transaction tags.
func WithTags(tags ...string) TransactionOption {
	return func(tx *models.Transaction) { tx.Tags = tags }
}

// CreateTestTransaction inserts a transaction directly, bypassing the
// service layer (no audit entry, no search terms). Tags are stored as rows.
func CreateTestTransaction(t *testing.T, db *gorm.DB, txType models.TransactionType, amount float64, opts ...TransactionOption) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		Title:    fmt.Sprintf("Test Transaction %d", nextID()),
		Amount:   amount,
		Type:     txType,
		Category: "general",
		Date:     time.Now().Add(-time.Hour),
		Tags:     []string{},
	}
	for _, opt := range opts {
		opt(tx)
	}

	if err := db.Omit("TagLinks").Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	for i, tag := range tx.Tags {
		link := &models.TransactionTag{TransactionID: tx.ID, Position: i, Tag: tag}
		if err := db.Create(link).Error; err != nil {
			t.Fatalf("failed to create test transaction tag: %v", err)
		}
	}
	return tx
}
