package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"financeai/internal/auth"
	"financeai/internal/core"
	"financeai/internal/services"
	"financeai/internal/storage"

	"github.com/shopspring/decimal"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    core.Filter
		wantErr bool
	}{
		{name: "empty", query: "", want: core.Filter{}},
		{
			name:  "all fields",
			query: "type=EXPENSE&category=+Food+&q=lunch&page=2&limit=50",
			want:  core.Filter{Kind: core.KindExpense, Category: "Food", Query: "lunch", Page: 2, Limit: 50},
		},
		{
			name:  "date-only end covers the whole day",
			query: "startDate=2024-03-01&endDate=2024-03-31",
			want: core.Filter{
				StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2024, 3, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC),
			},
		},
		{
			name:  "rfc3339 end is exact",
			query: "endDate=" + url.QueryEscape("2024-03-31T10:00:00+02:00"),
			want:  core.Filter{EndDate: time.Date(2024, 3, 31, 8, 0, 0, 0, time.UTC)},
		},
		{name: "bad type", query: "type=transfer", wantErr: true},
		{name: "bad page", query: "page=zero", wantErr: true},
		{name: "page below one", query: "page=0", wantErr: true},
		{name: "negative limit", query: "limit=-5", wantErr: true},
		{name: "bad date", query: "startDate=03/01/2024", wantErr: true},
		{name: "inverted range", query: "startDate=2024-04-01&endDate=2024-03-01", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			got, err := parseFilter(q)
			if tt.wantErr {
				var rerr *requestError
				if !errors.As(err, &rerr) {
					t.Fatalf("expected requestError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFilter: %v", err)
			}
			if got.Kind != tt.want.Kind || got.Category != tt.want.Category || got.Query != tt.want.Query ||
				got.Page != tt.want.Page || got.Limit != tt.want.Limit ||
				!got.StartDate.Equal(tt.want.StartDate) || !got.EndDate.Equal(tt.want.EndDate) {
				t.Fatalf("parseFilter = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTransactionBodyInput(t *testing.T) {
	body := transactionBody{Type: " Expense ", Amount: decimal.RequireFromString("12.5"), Category: "Food", Date: "2024-03-05"}
	in, err := body.input()
	if err != nil {
		t.Fatalf("input: %v", err)
	}
	if in.Kind != core.KindExpense || !in.Date.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected input %+v", in)
	}

	body.Date = "yesterday"
	if _, err := body.input(); err == nil {
		t.Fatal("expected an error for an unparseable date")
	}

	body.Date = ""
	in, err = body.input()
	if err != nil || !in.Date.IsZero() {
		t.Fatalf("missing date should be left for validation, got %+v %v", in, err)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{badRequest("bad"), http.StatusBadRequest},
		{&services.ValidationError{Err: core.ErrInvalidAmount}, http.StatusBadRequest},
		{fmt.Errorf("load transaction: %w", storage.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("create user: %w", storage.ErrDuplicateEmail), http.StatusConflict},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{auth.ErrMissingToken, http.StatusUnauthorized},
		{fmt.Errorf("%w: expired", auth.ErrInvalidToken), http.StatusUnauthorized},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, msg := statusFor(tt.err)
		if status != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, status, tt.want)
		}
		if status == http.StatusInternalServerError && msg != "internal server error" {
			t.Errorf("5xx must not leak details, got %q", msg)
		}
	}
}
