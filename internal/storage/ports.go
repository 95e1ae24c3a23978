// Package storage defines the persistence ports of the API server and the
// SQLite implementation.
package storage

import (
	"context"
	"errors"
	"time"

	"financeai/internal/core"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Listing limits.
const (
	DefaultLimit = 20
	MaxLimit     = 1000
)

// UserRecord is a user plus the fields only the server sees.
type UserRecord struct {
	core.User
	PasswordHash string
	CreatedAt    time.Time
}

// Ports implemented by every backend.
type (
	UserRepository interface {
		CreateUser(ctx context.Context, u UserRecord) error
		// UserByEmail looks up a normalized (lower-case) address.
		UserByEmail(ctx context.Context, email string) (UserRecord, error)
		UserByID(ctx context.Context, id string) (UserRecord, error)
	}

	// TransactionRepository scopes every call to one user; another user's
	// transaction is reported as ErrNotFound.
	TransactionRepository interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) error
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, userID, id string) error
		ListTransactions(ctx context.Context, userID string, f core.Filter) (core.Page, error)
	}

	Repository interface {
		UserRepository
		TransactionRepository
		Ping(ctx context.Context) error
		Close() error
	}
)

// Paginate applies the default page and limit and returns limit and offset.
func Paginate(f core.Filter) (limit, offset int) {
	limit = f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}
