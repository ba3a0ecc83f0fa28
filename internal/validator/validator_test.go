package validator

import (
	"testing"
	"time"
)

type sample struct {
	Kind     string    `validate:"omitempty,transaction_type"`
	Category string    `validate:"omitempty,category_type"`
	When     time.Time `validate:"notfuture"`
	Month    string    `validate:"omitempty,month"`
}

func TestCustomValidations(t *testing.T) {
	v := New()
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name    string
		in      sample
		wantErr bool
	}{
		{"valid", sample{Kind: "expense", Category: "both", When: past, Month: "2024-03"}, false},
		{"single digit month", sample{When: past, Month: "2024-3"}, false},
		{"bad transaction type", sample{Kind: "transfer", When: past}, true},
		{"bad category type", sample{Category: "savings", When: past}, true},
		{"future date", sample{When: time.Now().Add(time.Hour)}, true},
		{"month 13", sample{When: past, Month: "2024-13"}, true},
		{"month without dash", sample{When: past, Month: "202403"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNotFutureUsesClock(t *testing.T) {
	clock := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	v := New(WithClock(func() time.Time { return clock }))

	if err := v.Var(clock, "notfuture"); err != nil {
		t.Errorf("the current instant should pass: %v", err)
	}
	if err := v.Var(clock.Add(time.Minute), "notfuture"); err == nil {
		t.Error("a date after the injected clock should fail even though it is in the wall-clock past")
	}
}

func TestIsMonth(t *testing.T) {
	for _, s := range []string{"2024-03", "2024-3", "1999-12"} {
		if !IsMonth(s) {
			t.Errorf("%q should be a month", s)
		}
	}
	for _, s := range []string{"", "2024", "2024-00", "2024-13", "2024-003", "24-03", "2024/03"} {
		if IsMonth(s) {
			t.Errorf("%q should not be a month", s)
		}
	}
}
