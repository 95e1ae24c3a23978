// Package worker runs background consumers of transaction events.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"financeai/internal/amqp"
	"financeai/internal/core"
	"financeai/internal/insights"
	"financeai/internal/log"
	"financeai/internal/storage"
)

// Window is how many of a user's most recent transactions are checked.
const Window = 1000

// AlertHandler receives every new alert. The default only logs it.
type AlertHandler func(ctx context.Context, userID string, alert insights.Alert)

// AnomalyWorker re-runs the spending check for a user whenever one of
// their transactions changes. Each user gets one detector for the lifetime
// of the worker, so a category alerts at most once per user.
type AnomalyWorker struct {
	repo        storage.TransactionRepository
	logger      *log.Logger
	newDetector func() *insights.Detector
	onAlert     AlertHandler

	mu        sync.Mutex
	detectors map[string]*insights.Detector
	handled   int64
}

type Option func(*AnomalyWorker)

// WithDetectorFactory overrides how per-user detectors are built.
func WithDetectorFactory(f func() *insights.Detector) Option {
	return func(w *AnomalyWorker) { w.newDetector = f }
}

func WithAlertHandler(h AlertHandler) Option {
	return func(w *AnomalyWorker) { w.onAlert = h }
}

func NewAnomalyWorker(repo storage.TransactionRepository, logger *log.Logger, opts ...Option) *AnomalyWorker {
	if logger == nil {
		logger = log.Discard()
	}
	w := &AnomalyWorker{
		repo:      repo,
		logger:    logger.WithComponent(log.ComponentWorker),
		detectors: make(map[string]*insights.Detector),
		newDetector: func() *insights.Detector {
			return insights.NewDetector(insights.WithLocation(time.UTC))
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.onAlert == nil {
		w.onAlert = w.logAlert
	}
	return w
}

// HandleEvent processes one transaction event. A returned error makes the
// consumer requeue the delivery.
func (w *AnomalyWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	w.logger.DebugContext(ctx, "Processing transaction event",
		"type", event.Type,
		log.FieldUserID, event.UserID,
		log.FieldTransactionID, event.TransactionID)

	alerts, err := w.Check(ctx, event.UserID)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.handled++
	w.mu.Unlock()

	for _, a := range alerts {
		w.onAlert(ctx, event.UserID, a)
	}
	return nil
}

// Check evaluates userID's most recent transactions and returns new alerts.
func (w *AnomalyWorker) Check(ctx context.Context, userID string) ([]insights.Alert, error) {
	page, err := w.repo.ListTransactions(ctx, userID, core.Filter{Limit: Window})
	if err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", userID, err)
	}
	return w.detector(userID).Evaluate(page.Data), nil
}

func (w *AnomalyWorker) detector(userID string) *insights.Detector {
	w.mu.Lock()
	defer w.mu.Unlock()
	d, ok := w.detectors[userID]
	if !ok {
		d = w.newDetector()
		w.detectors[userID] = d
	}
	return d
}

// Stats returns how many events were handled and how many users are tracked.
func (w *AnomalyWorker) Stats() (handled int64, users int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handled, len(w.detectors)
}

func (w *AnomalyWorker) logAlert(ctx context.Context, userID string, a insights.Alert) {
	w.logger.WarnContext(ctx, "Spending alert",
		log.FieldUserID, userID,
		log.FieldOperation, log.OpDetect,
		log.FieldCategory, a.Category,
		"month", a.Month.String(),
		"current", a.Current.StringFixed(2),
		"average", a.Average.StringFixed(2),
		"message", a.Message())
}
