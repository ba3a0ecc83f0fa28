package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"fintrack/internal/events"
	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestAuditRecorder_Record(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rec := NewAuditRecorder(nil)

	log, err := rec.Record(db, AuditEntry{
		Action:     models.AuditBulkDeleteTransactions,
		EntityType: "transaction",
		Payload:    map[string]interface{}{"filter": map[string]interface{}{"category": "food"}, "count": 3},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, log.ID)
	assert.False(t, log.Timestamp.IsZero())

	var stored models.AuditLog
	require.NoError(t, db.Where("id = ?", log.ID).First(&stored).Error)
	assert.Equal(t, models.AuditBulkDeleteTransactions, stored.Action)
	assert.JSONEq(t, `{"filter":{"category":"food"},"count":3}`, stored.Payload)
}

func TestAuditRecorder_RecordRollsBackWithTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rec := NewAuditRecorder(nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := rec.Record(tx, AuditEntry{Action: models.AuditCreateCategory, EntityType: "category", EntityKey: "food"}); err != nil {
			return err
		}
		return errors.New("mutation failed")
	})
	require.Error(t, err)
	assert.Equal(t, int64(0), testutil.CountRows(t, db, &models.AuditLog{}))
}

func TestAuditRecorder_Announce(t *testing.T) {
	pub := &recordingPublisher{}
	rec := NewAuditRecorder(pub)

	log := &models.AuditLog{
		ID:         "0190a1b2-0000-7000-8000-000000000001",
		Action:     models.AuditDeleteTransaction,
		EntityType: "transaction",
		EntityKey:  "abc",
		Payload:    `{"transaction_id":"abc"}`,
	}
	rec.Announce(context.Background(), log, nil)

	require.Len(t, pub.events, 1)
	e := pub.events[0]
	assert.Equal(t, log.ID, e.ID)
	assert.Equal(t, "delete_transaction", e.Action)
	assert.Equal(t, "abc", e.EntityKey)
	assert.Equal(t, json.RawMessage(`{"transaction_id":"abc"}`), e.Payload)
}

func TestAuditRecorder_AnnounceSwallowsPublishErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	rec := NewAuditRecorder(pub)

	assert.NotPanics(t, func() {
		rec.Announce(context.Background(), &models.AuditLog{ID: "x", Action: models.AuditCreateCategory})
	})
	assert.Empty(t, pub.events)
}
