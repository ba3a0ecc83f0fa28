package models

import "time"

// CategoryType represents the kind of transactions a category is meant for
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeBoth    CategoryType = "both"
)

// UncategorizedCategory is assigned to transactions whose category was deleted.
const UncategorizedCategory = "uncategorized"

// Valid reports whether t is one of the known category types.
func (t CategoryType) Valid() bool {
	switch t {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeBoth:
		return true
	}
	return false
}

// Category is identified by its normalized (trimmed, lowercased) name.
type Category struct {
	Name        string       `gorm:"type:varchar(100);primaryKey" json:"name"`
	Type        CategoryType `gorm:"type:varchar(16);not null" json:"type"`
	Description *string      `gorm:"type:varchar(500)" json:"description"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
