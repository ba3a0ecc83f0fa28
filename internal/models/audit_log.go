package models

import (
	"time"

	"fintrack/internal/uuid"

	"gorm.io/gorm"
)

// AuditAction names the mutation an audit entry describes.
type AuditAction string

const (
	AuditCreateCategory         AuditAction = "create_category"
	AuditUpdateCategory         AuditAction = "update_category"
	AuditDeleteCategory         AuditAction = "delete_category"
	AuditCreateTransaction      AuditAction = "create_transaction"
	AuditUpdateTransaction      AuditAction = "update_transaction"
	AuditDeleteTransaction      AuditAction = "delete_transaction"
	AuditBulkDeleteTransactions AuditAction = "bulk_delete_transactions"
)

// AuditLog is an append-only record of a single mutation. Payload holds the
// action-specific details as a JSON object.
type AuditLog struct {
	ID         string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	Action     AuditAction `gorm:"type:varchar(40);not null;index" json:"action"`
	EntityType string      `gorm:"type:varchar(20);not null" json:"entity_type"`
	EntityKey  string      `gorm:"type:varchar(100);index" json:"entity_key,omitempty"`
	Payload    string      `gorm:"type:text" json:"payload,omitempty"`
	Timestamp  time.Time   `gorm:"not null;index" json:"timestamp"`
}

// BeforeCreate assigns the identifier and the write time.
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	return nil
}
