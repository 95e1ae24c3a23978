package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validInput() TransactionInput {
	return TransactionInput{
		Kind:     KindExpense,
		Amount:   decimal.RequireFromString("50"),
		Category: "Food",
		Date:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestTransactionInputValidate(t *testing.T) {
	if err := validInput().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []func(*TransactionInput){
		func(in *TransactionInput) { in.Kind = "transfer" },
		func(in *TransactionInput) { in.Amount = decimal.Zero },
		func(in *TransactionInput) { in.Amount = decimal.RequireFromString("-1") },
		func(in *TransactionInput) { in.Category = "  " },
		func(in *TransactionInput) { in.Category = strings.Repeat("c", 51) },
		func(in *TransactionInput) { in.Description = strings.Repeat("d", 201) },
		func(in *TransactionInput) { in.Date = time.Time{} },
	}
	for i, mutate := range bads {
		in := validInput()
		mutate(&in)
		if err := in.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" Income "); err != nil || k != KindIncome {
		t.Fatalf("expected income, got %q (err=%v)", k, err)
	}
	if _, err := ParseKind("refund"); err != ErrInvalidKind {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	in := TransactionInput{
		Kind:        KindIncome,
		Amount:      decimal.RequireFromString("10.005"),
		Category:    "  Salary ",
		Description: " march ",
		Date:        time.Date(2025, 3, 1, 0, 30, 0, 0, loc),
	}.Normalize()

	if in.Category != "Salary" || in.Description != "march" {
		t.Fatalf("text not trimmed: %+v", in)
	}
	if !in.Amount.Equal(decimal.RequireFromString("10.01")) {
		t.Fatalf("amount not rounded: %s", in.Amount)
	}
	if in.Date.Location() != time.UTC || in.Date.Day() != 28 {
		t.Fatalf("date not moved to UTC: %v", in.Date)
	}
}

func TestTransactionJSONAmountIsNumber(t *testing.T) {
	tx := Transaction{ID: "1", Kind: KindExpense, Amount: decimal.RequireFromString("50.5"), Category: "Food"}
	b, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"amount":50.5`) {
		t.Fatalf("amount should be a JSON number: %s", b)
	}

	var back Transaction
	if err := json.Unmarshal([]byte(`{"id":"2","type":"income","amount":"12.30","category":"Pay","date":"2025-01-02T00:00:00Z"}`), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Amount.Equal(decimal.RequireFromString("12.3")) || back.Kind != KindIncome {
		t.Fatalf("unexpected decode: %+v", back)
	}
}

func TestValidateSignup(t *testing.T) {
	cases := []struct {
		name, email, password string
		want                  error
	}{
		{"Ada", "ada@example.com", "secret1", nil},
		{"", "ada@example.com", "secret1", ErrEmptyName},
		{"Ada", "not-an-email", "secret1", ErrInvalidEmail},
		{"Ada", "Ada <ada@example.com>", "secret1", ErrInvalidEmail},
		{"Ada", "ada@example.com", "123", ErrWeakPassword},
	}
	for _, tc := range cases {
		if got := ValidateSignup(tc.name, tc.email, tc.password); got != tc.want {
			t.Errorf("ValidateSignup(%q,%q) = %v, want %v", tc.name, tc.email, got, tc.want)
		}
	}
}

func TestYearMonthOf(t *testing.T) {
	ts := time.Date(2025, 1, 31, 23, 30, 0, 0, time.UTC)
	if got := YearMonthOf(ts, time.UTC).String(); got != "2025-01" {
		t.Fatalf("got %s", got)
	}
	if got := YearMonthOf(ts, time.FixedZone("EET", 2*3600)).String(); got != "2025-02" {
		t.Fatalf("zone not applied: %s", got)
	}
}
