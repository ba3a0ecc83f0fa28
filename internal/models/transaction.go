package models

import (
	"time"

	"gorm.io/gorm"
)

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Valid reports whether t is income or expense.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction represents a single income or expense entry.
//
// Category holds a category name by convention only; it is not a foreign key.
// Dates are stored normalized to UTC.
type Transaction struct {
	Base
	Title       string          `gorm:"type:varchar(100);not null" json:"title"`
	Description *string         `gorm:"type:varchar(500)" json:"description"`
	Amount      float64         `gorm:"not null" json:"amount"`
	Type        TransactionType `gorm:"type:varchar(16);not null;index:idx_transactions_type_date,priority:1" json:"type"`
	Category    string          `gorm:"type:varchar(100);not null;index:idx_transactions_category_date,priority:1" json:"category"`
	Date        time.Time       `gorm:"not null;index:idx_transactions_date,sort:desc;index:idx_transactions_category_date,priority:2,sort:desc;index:idx_transactions_type_date,priority:2,sort:desc" json:"date"`
	Tags        []string        `gorm:"-" json:"tags"`

	// Relationships
	TagLinks []TransactionTag `gorm:"foreignKey:TransactionID" json:"-"`
}

// BeforeSave keeps stored dates in UTC so range comparisons agree across drivers.
func (t *Transaction) BeforeSave(tx *gorm.DB) error {
	t.Date = t.Date.UTC()
	return nil
}

// AfterFind flattens preloaded tag rows back into the ordered tag list.
func (t *Transaction) AfterFind(tx *gorm.DB) error {
	if len(t.TagLinks) == 0 {
		if t.Tags == nil {
			t.Tags = []string{}
		}
		return nil
	}
	t.Tags = make([]string, len(t.TagLinks))
	for i, link := range t.TagLinks {
		t.Tags[i] = link.Tag
	}
	return nil
}

// TransactionTag stores one tag of a transaction at its position in the list.
type TransactionTag struct {
	TransactionID string `gorm:"type:varchar(36);primaryKey"`
	Position      int    `gorm:"primaryKey;autoIncrement:false"`
	Tag           string `gorm:"type:varchar(30);not null;index"`
}

// SearchTerm is one posting of the inverted index over title and description.
type SearchTerm struct {
	Term          string `gorm:"type:varchar(64);primaryKey"`
	TransactionID string `gorm:"type:varchar(36);primaryKey;index"`
}

// TableName overrides the default "search_terms".
func (SearchTerm) TableName() string {
	return "transaction_terms"
}
