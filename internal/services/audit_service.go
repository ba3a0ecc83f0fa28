package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/events"
	"fintrack/internal/logger"
	"fintrack/internal/models"
)

// auditRecorder appends audit log rows and announces them once committed.
type auditRecorder struct {
	publisher events.Publisher
}

// NewAuditRecorder creates a new AuditRecorder. A nil publisher disables announcements.
func NewAuditRecorder(publisher events.Publisher) AuditRecorder {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &auditRecorder{publisher: publisher}
}

// Record writes the entry with tx. Any failure is returned so the caller's
// transaction rolls back together with the mutation it describes.
func (r *auditRecorder) Record(tx *gorm.DB, entry AuditEntry) (*models.AuditLog, error) {
	var payload string
	if entry.Payload != nil {
		data, err := json.Marshal(entry.Payload)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		payload = string(data)
	}

	log := &models.AuditLog{
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityKey:  entry.EntityKey,
		Payload:    payload,
	}
	if err := tx.Create(log).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return log, nil
}

// Announce publishes committed entries. Errors are logged but never propagate
// because the mutation has already been committed.
func (r *auditRecorder) Announce(ctx context.Context, logs ...*models.AuditLog) {
	for _, log := range logs {
		if log == nil {
			continue
		}
		event := events.Event{
			ID:         log.ID,
			Action:     string(log.Action),
			EntityType: log.EntityType,
			EntityKey:  log.EntityKey,
			Timestamp:  log.Timestamp,
		}
		if log.Payload != "" {
			event.Payload = json.RawMessage(log.Payload)
		}
		if err := r.publisher.Publish(ctx, event); err != nil {
			logger.Get().Errorw("failed to publish audit event",
				"error", err,
				"action", log.Action,
				"entity_key", log.EntityKey,
			)
		}
	}
}
