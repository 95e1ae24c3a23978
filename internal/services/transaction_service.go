package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"financeai/internal/amqp"
	"financeai/internal/cache"
	"financeai/internal/core"
	"financeai/internal/log"
	"financeai/internal/storage"

	"github.com/google/uuid"
)

// EventPublisher announces transaction mutations.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, t amqp.EventType, userID, transactionID string) error
}

// TransactionService orchestrates transaction operations across storage,
// the list cache and AMQP.
type TransactionService struct {
	repo      storage.TransactionRepository
	lists     *cache.UserCache[core.Page]
	publisher EventPublisher
	now       func() time.Time
}

type TransactionOption func(*TransactionService)

// WithListCache caches listings per user. Every mutation invalidates the user.
func WithListCache(c cache.Cache[core.Page]) TransactionOption {
	return func(s *TransactionService) { s.lists = cache.NewUserCache(c) }
}

func WithPublisher(p EventPublisher) TransactionOption {
	return func(s *TransactionService) { s.publisher = p }
}

func WithClock(now func() time.Time) TransactionOption {
	return func(s *TransactionService) { s.now = now }
}

func NewTransactionService(repo storage.TransactionRepository, opts ...TransactionOption) *TransactionService {
	s := &TransactionService{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new transaction for userID and publishes an event.
func (s *TransactionService) Create(ctx context.Context, userID string, in core.TransactionInput) (core.Transaction, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Transaction{}, invalid(err)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	tx := core.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}.Apply(in)

	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.changed(ctx, amqp.EventCreated, tx)
	return tx, nil
}

// Update replaces the editable fields of one of userID's transactions.
func (s *TransactionService) Update(ctx context.Context, userID, id string, in core.TransactionInput) (core.Transaction, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Transaction{}, invalid(err)
	}

	current, err := s.repo.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}
	tx := current.Apply(in)
	tx.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)

	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.changed(ctx, amqp.EventUpdated, tx)
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.changed(ctx, amqp.EventDeleted, core.Transaction{ID: id, UserID: userID})
	return nil
}

// List returns one page of userID's transactions, from cache when possible.
func (s *TransactionService) List(ctx context.Context, userID string, f core.Filter) (core.Page, error) {
	if s.lists == nil {
		return s.repo.ListTransactions(ctx, userID, f)
	}
	page, hit, err := s.lists.Load(userID, filterKey(f), func() (core.Page, error) {
		return s.repo.ListTransactions(ctx, userID, f)
	})
	if err != nil {
		return core.Page{}, err
	}
	if hit {
		log.FromContext(ctx).DebugContext(ctx, "Transaction list served from cache", log.FieldUserID, userID)
	}
	return page, nil
}

func (s *TransactionService) changed(ctx context.Context, event amqp.EventType, tx core.Transaction) {
	if s.lists != nil {
		s.lists.Invalidate(tx.UserID)
	}

	logger := log.FromContext(ctx).WithComponent(log.ComponentStorage)
	logger.InfoContext(ctx, "Transaction changed", log.NewFields().
		WithOperation(string(event)).
		WithUser(tx.UserID).
		WithTransaction(tx.ID, string(tx.Kind), tx.Amount.StringFixed(2), tx.Category).
		ToSlice()...)

	if s.publisher == nil {
		return
	}
	// Don't fail the request, the change is already stored
	if err := s.publisher.PublishTransactionEvent(ctx, event, tx.UserID, tx.ID); err != nil {
		slog.WarnContext(ctx, "Failed to publish transaction event",
			"type", event, "transaction_id", tx.ID, "error", err)
	}
}

func filterKey(f core.Filter) string {
	return fmt.Sprintf("%s|%q|%q|%s|%s|%d|%d",
		f.Kind, f.Category, f.Query,
		timeKey(f.StartDate), timeKey(f.EndDate),
		f.Page, f.Limit)
}

func timeKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(storage.TimeLayout)
}
