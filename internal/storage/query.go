package storage

import (
	"strconv"
	"strings"
	"time"

	"financeai/internal/core"
)

// Dialect selects placeholder syntax and value encoding for the SQL backends.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// TimeLayout is how SQLite stores timestamps. It is fixed width so string
// comparison orders chronologically.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime encodes t for the dialect.
func (d Dialect) FormatTime(t time.Time) any {
	if d == SQLite {
		return t.UTC().Format(TimeLayout)
	}
	return t.UTC()
}

// Lower wraps expr in the dialect's Unicode-aware lower-casing.
func (d Dialect) Lower(expr string) string {
	if d == SQLite {
		return "fold(" + expr + ")"
	}
	return "lower(" + expr + ")"
}

// Where builds the WHERE clause and arguments for a user's filtered listing.
type Where struct {
	dialect Dialect
	clauses []string
	args    []any
}

func NewWhere(d Dialect) *Where {
	return &Where{dialect: d}
}

func (w *Where) next() string {
	if w.dialect == Postgres {
		return "$" + strconv.Itoa(len(w.args))
	}
	return "?"
}

// Add appends a condition; each "?" in cond consumes one of args.
func (w *Where) Add(cond string, args ...any) *Where {
	var b strings.Builder
	i := 0
	for _, r := range cond {
		if r == '?' && i < len(args) {
			w.args = append(w.args, args[i])
			i++
			b.WriteString(w.next())
			continue
		}
		b.WriteRune(r)
	}
	w.clauses = append(w.clauses, b.String())
	return w
}

func (w *Where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *Where) Args() []any { return w.args }

// Placeholder returns the marker for the next argument after the clause args.
func (w *Where) Placeholder(offset int) string {
	if w.dialect == Postgres {
		return "$" + strconv.Itoa(len(w.args)+offset)
	}
	return "?"
}

// TransactionFilter translates f into conditions on the transactions table.
func TransactionFilter(d Dialect, userID string, f core.Filter) *Where {
	w := NewWhere(d).Add("user_id = ?", userID)
	if f.Kind != "" {
		w.Add("type = ?", string(f.Kind))
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		w.Add(d.Lower("category")+" = ?", strings.ToLower(c))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		w.Add("("+d.Lower("coalesce(description, '')")+` LIKE ? ESCAPE '\' OR `+d.Lower("category")+` LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if !f.StartDate.IsZero() {
		w.Add("date >= ?", d.FormatTime(f.StartDate))
	}
	if !f.EndDate.IsZero() {
		w.Add("date <= ?", d.FormatTime(f.EndDate))
	}
	return w
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Matches reports whether tx satisfies f. Used by backends that filter in
// memory; it follows the same rules as TransactionFilter.
func Matches(tx core.Transaction, f core.Filter) bool {
	if f.Kind != "" && tx.Kind != f.Kind {
		return false
	}
	if c := strings.TrimSpace(f.Category); c != "" && strings.ToLower(tx.Category) != strings.ToLower(c) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(tx.Description), q) && !strings.Contains(strings.ToLower(tx.Category), q) {
			return false
		}
	}
	if !f.StartDate.IsZero() && tx.Date.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && tx.Date.After(f.EndDate) {
		return false
	}
	return true
}
