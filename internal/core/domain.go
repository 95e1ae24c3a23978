package core

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

const (
	maxDescriptionLen = 200
	maxCategoryLen    = 50
	minPasswordLen    = 6
)

type (
	// Kind decides the sign a transaction contributes to totals.
	Kind string

	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"userId,omitempty"`
		Kind        Kind            `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description,omitempty"`
		Date        time.Time       `json:"date"`
		CreatedAt   time.Time       `json:"createdAt,omitempty"`
		UpdatedAt   time.Time       `json:"updatedAt,omitempty"`
	}

	// TransactionInput is the create/update payload.
	TransactionInput struct {
		Kind        Kind            `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description,omitempty"`
		Date        time.Time       `json:"date"`
	}

	// Filter narrows a transaction listing. Zero values mean "no constraint".
	Filter struct {
		Kind      Kind
		Category  string
		Query     string
		StartDate time.Time
		EndDate   time.Time
		Page      int
		Limit     int
	}
)

var (
	ErrInvalidKind     = errors.New("invalid transaction type")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrEmptyName       = errors.New("empty name")
	ErrWeakPassword    = errors.New("password must be at least 6 characters")
	ErrEmptyCredential = errors.New("email and password are required")
)

func init() {
	// Amounts travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// ParseKind accepts "income" or "expense" in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

func (in TransactionInput) Validate() error {
	if !in.Kind.Valid() {
		return ErrInvalidKind
	}
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return ErrEmptyCategory
	}
	if len(category) > maxCategoryLen {
		return errors.New("category too long (max 50 characters)")
	}
	if len(in.Description) > maxDescriptionLen {
		return errors.New("description too long (max 200 characters)")
	}
	if in.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Normalize trims free text, rounds the amount to cents and moves the date to
// UTC at millisecond precision.
func (in TransactionInput) Normalize() TransactionInput {
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	in.Amount = in.Amount.Round(2)
	in.Date = in.Date.UTC().Truncate(time.Millisecond)
	return in
}

// Input returns the editable part of a stored transaction.
func (t Transaction) Input() TransactionInput {
	return TransactionInput{
		Kind:        t.Kind,
		Amount:      t.Amount,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date,
	}
}

// Apply overwrites the editable fields of t with in.
func (t Transaction) Apply(in TransactionInput) Transaction {
	t.Kind = in.Kind
	t.Amount = in.Amount
	t.Category = in.Category
	t.Description = in.Description
	t.Date = in.Date
	return t
}

// ValidateSignup checks the fields a new account needs.
func ValidateSignup(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if len(password) < minPasswordLen {
		return ErrWeakPassword
	}
	return nil
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// NormalizeEmail lower-cases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
