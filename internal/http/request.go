package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"financeai/internal/core"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// requestError is a malformed request: bad JSON, bad query parameter.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads one JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return badRequest("request body too large")
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		default:
			return badRequest("invalid JSON body")
		}
	}
	return nil
}

// parseTime accepts YYYY-MM-DD (UTC midnight) or RFC 3339.
func parseTime(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	t, err = time.Parse(time.RFC3339Nano, s)
	return t, false, err
}

// parseFilter reads the list query. A date-only endDate covers the whole day.
func parseFilter(q url.Values) (core.Filter, error) {
	var f core.Filter

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		k, err := core.ParseKind(v)
		if err != nil {
			return f, badRequest("invalid type %q", v)
		}
		f.Kind = k
	}
	f.Category = strings.TrimSpace(q.Get("category"))
	f.Query = strings.TrimSpace(q.Get("q"))

	if v := q.Get("startDate"); v != "" {
		t, _, err := parseTime(v)
		if err != nil {
			return f, badRequest("invalid startDate %q", v)
		}
		f.StartDate = t.UTC()
	}
	if v := q.Get("endDate"); v != "" {
		t, dateOnly, err := parseTime(v)
		if err != nil {
			return f, badRequest("invalid endDate %q", v)
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Millisecond)
		}
		f.EndDate = t.UTC()
	}
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.EndDate.Before(f.StartDate) {
		return f, badRequest("endDate is before startDate")
	}

	var err error
	if f.Page, err = positiveInt(q, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = positiveInt(q, "limit"); err != nil {
		return f, err
	}
	return f, nil
}

func positiveInt(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, badRequest("invalid %s %q", key, v)
	}
	return n, nil
}

// transactionBody is the create/update payload. Date accepts the same forms
// as the list filter.
type transactionBody struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

func (b transactionBody) input() (core.TransactionInput, error) {
	in := core.TransactionInput{
		Kind:        core.Kind(strings.ToLower(strings.TrimSpace(b.Type))),
		Amount:      b.Amount,
		Category:    b.Category,
		Description: b.Description,
	}
	if strings.TrimSpace(b.Date) != "" {
		t, _, err := parseTime(b.Date)
		if err != nil {
			return in, badRequest("invalid date %q", b.Date)
		}
		in.Date = t
	}
	return in, nil
}

func decodeTransaction(w http.ResponseWriter, r *http.Request) (core.TransactionInput, error) {
	var body transactionBody
	if err := decodeJSON(w, r, &body); err != nil {
		return core.TransactionInput{}, err
	}
	return body.input()
}
