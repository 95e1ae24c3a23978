package ui

import (
	"context"
	"strings"
	"sync"

	"financeai/internal/apiclient"
	"financeai/internal/core"
	"financeai/internal/insights"
	"financeai/internal/log"
	"financeai/internal/session"
)

const (
	// ListPageSize is how many transactions the dashboard shows.
	ListPageSize = 100
	// AnomalyWindow caps the history fed to the spending detector.
	AnomalyWindow = 1000
)

const deletePrompt = "Delete this item?"

// Filter is the dashboard's server-side list filter.
type Filter struct {
	Type     core.Kind
	Category string
	Query    string
}

// Dashboard owns the transaction list, the create/edit form and the
// session's spending detector.
type Dashboard struct {
	api      TransactionAPI
	session  *session.Store
	confirm  Confirmer
	detector *insights.Detector
	alerts   *AlertBoard
	logger   *log.Logger

	list   action
	submit action
	remove action

	mu         sync.Mutex
	filter     Filter
	items      []core.Transaction
	total      int
	editing    *core.Transaction
	generation uint64
}

type DashboardOption func(*Dashboard)

func WithDetector(d *insights.Detector) DashboardOption {
	return func(db *Dashboard) { db.detector = d }
}

func WithAlertBoard(b *AlertBoard) DashboardOption {
	return func(db *Dashboard) { db.alerts = b }
}

func WithDashboardLogger(l *log.Logger) DashboardOption {
	return func(db *Dashboard) { db.logger = l.WithComponent(log.ComponentDashboard) }
}

func NewDashboard(api TransactionAPI, s *session.Store, confirm Confirmer, opts ...DashboardOption) *Dashboard {
	d := &Dashboard{
		api:      api,
		session:  s,
		confirm:  confirm,
		detector: insights.NewDetector(),
		logger:   log.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.alerts == nil {
		d.alerts = NewAlertBoard()
	}
	return d
}

// SetFilter changes the filter. It does not fetch; call Refresh to apply.
func (d *Dashboard) SetFilter(kind core.Kind, category, query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filter = Filter{Type: kind, Category: strings.TrimSpace(category), Query: strings.TrimSpace(query)}
}

func (d *Dashboard) Filter() Filter {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filter
}

// Refresh reloads the list with the current filter, then runs the spending
// detector. When an older refresh completes after a newer one started, its
// result is discarded.
func (d *Dashboard) Refresh(ctx context.Context) error {
	token := d.session.Token()
	if token == "" {
		return ErrNotAuthenticated
	}

	d.mu.Lock()
	d.generation++
	gen := d.generation
	params := apiclient.ListParams{
		Type:     d.filter.Type,
		Category: d.filter.Category,
		Q:        d.filter.Query,
		Limit:    ListPageSize,
	}
	d.mu.Unlock()

	d.list.start()

	page, err := d.api.ListTransactions(ctx, params, token)

	d.mu.Lock()
	if gen != d.generation {
		d.mu.Unlock()
		d.logger.Debug("Dropping stale transaction list", "generation", gen)
		return nil
	}
	d.list.finish(err)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.items = page.Data
	d.total = page.Total
	d.mu.Unlock()

	d.detectAnomalies(ctx, token)
	return nil
}

// detectAnomalies runs the spending detector over the most recent
// transactions, ignoring the list filter. Failures only get logged.
func (d *Dashboard) detectAnomalies(ctx context.Context, token string) {
	page, err := d.api.ListTransactions(ctx, apiclient.ListParams{Limit: AnomalyWindow}, token)
	if err != nil {
		d.logger.Warn("Spending check failed", log.FieldOperation, log.OpDetect, log.FieldError, err)
		return
	}
	for _, alert := range d.detector.Evaluate(page.Data) {
		d.logger.Info("Spending alert", log.FieldCategory, alert.Category, "month", alert.Month.String())
		d.alerts.Push(alert)
	}
}

// Edit binds the form to tx; the next Submit updates it.
func (d *Dashboard) Edit(tx core.Transaction) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editing = &tx
}

func (d *Dashboard) CancelEdit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editing = nil
}

// Editing returns the transaction bound to the form, or nil.
func (d *Dashboard) Editing() *core.Transaction {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.editing == nil {
		return nil
	}
	tx := *d.editing
	return &tx
}

// Submit updates the transaction being edited, or creates a new one, then
// refreshes the list.
func (d *Dashboard) Submit(ctx context.Context, in core.TransactionInput) error {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return d.submit.reject(err)
	}
	token := d.session.Token()
	if token == "" {
		return ErrNotAuthenticated
	}
	if err := d.submit.begin(); err != nil {
		return err
	}

	editing := d.Editing()
	var err error
	if editing != nil {
		_, err = d.api.UpdateTransaction(ctx, editing.ID, in, token)
	} else {
		_, err = d.api.CreateTransaction(ctx, in, token)
	}
	d.submit.finish(err)
	if err != nil {
		return err
	}

	if editing != nil {
		d.mu.Lock()
		if d.editing != nil && d.editing.ID == editing.ID {
			d.editing = nil
		}
		d.mu.Unlock()
	}
	return d.Refresh(ctx)
}

// Delete asks for confirmation, deletes id and refreshes. It reports false
// without error when the user declines. Without a Confirmer nothing is
// deleted.
func (d *Dashboard) Delete(ctx context.Context, id string) (bool, error) {
	token := d.session.Token()
	if token == "" {
		return false, ErrNotAuthenticated
	}
	if d.confirm == nil || !d.confirm.Confirm(deletePrompt) {
		return false, nil
	}
	if err := d.remove.begin(); err != nil {
		return false, err
	}

	err := d.api.DeleteTransaction(ctx, id, token)
	d.remove.finish(err)
	if err != nil {
		return false, err
	}

	d.mu.Lock()
	if d.editing != nil && d.editing.ID == id {
		d.editing = nil
	}
	d.mu.Unlock()
	return true, d.Refresh(ctx)
}

// Items returns the loaded list.
func (d *Dashboard) Items() []core.Transaction {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]core.Transaction, len(d.items))
	copy(out, d.items)
	return out
}

// Total is the server-side match count for the current filter.
func (d *Dashboard) Total() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.total
}

func (d *Dashboard) Totals() insights.Totals {
	return insights.ComputeTotals(d.Items())
}

func (d *Dashboard) Breakdown() []insights.CategorySpend {
	return insights.CategoryBreakdown(d.Items())
}

func (d *Dashboard) Alerts() *AlertBoard { return d.alerts }

// ListStatus, SubmitStatus and DeleteStatus expose each action's state.
func (d *Dashboard) ListStatus() (Status, error) { return d.list.snapshot() }

func (d *Dashboard) SubmitStatus() (Status, error) { return d.submit.snapshot() }

func (d *Dashboard) DeleteStatus() (Status, error) { return d.remove.snapshot() }
