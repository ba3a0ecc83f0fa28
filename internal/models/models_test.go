package models

import (
	"testing"
	"time"
)

func TestTypesValid(t *testing.T) {
	for _, ct := range []CategoryType{CategoryTypeIncome, CategoryTypeExpense, CategoryTypeBoth} {
		if !ct.Valid() {
			t.Errorf("%s should be valid", ct)
		}
	}
	if CategoryType("savings").Valid() {
		t.Error("savings should not be a valid category type")
	}

	if !TransactionTypeIncome.Valid() || !TransactionTypeExpense.Valid() {
		t.Error("income and expense should be valid")
	}
	if TransactionType("both").Valid() {
		t.Error("both is not a transaction type")
	}
}

func TestTransactionHooks(t *testing.T) {
	tx := &Transaction{Date: time.Date(2024, 3, 1, 1, 0, 0, 0, time.FixedZone("CET", 3600))}
	if err := tx.BeforeSave(nil); err != nil {
		t.Fatal(err)
	}
	if tx.Date.Location() != time.UTC || tx.Date.Day() != 1 || tx.Date.Hour() != 0 {
		t.Errorf("expected 2024-03-01 00:00 UTC, got %v", tx.Date)
	}

	tx.TagLinks = []TransactionTag{{Position: 0, Tag: "a"}, {Position: 1, Tag: "b"}}
	if err := tx.AfterFind(nil); err != nil {
		t.Fatal(err)
	}
	if len(tx.Tags) != 2 || tx.Tags[0] != "a" || tx.Tags[1] != "b" {
		t.Errorf("unexpected tags %v", tx.Tags)
	}

	empty := &Transaction{}
	if err := empty.AfterFind(nil); err != nil {
		t.Fatal(err)
	}
	if empty.Tags == nil {
		t.Error("tags should be an empty list, not null")
	}
}

func TestAuditLogBeforeCreate(t *testing.T) {
	log := &AuditLog{Action: AuditCreateCategory}
	if err := log.BeforeCreate(nil); err != nil {
		t.Fatal(err)
	}
	if log.ID == "" || log.Timestamp.IsZero() {
		t.Errorf("expected ID and timestamp, got %+v", log)
	}
	if log.Timestamp.Location() != time.UTC {
		t.Error("timestamp should be UTC")
	}
}
