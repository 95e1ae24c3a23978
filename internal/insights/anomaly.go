package insights

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"financeai/internal/core"
)

// AlertRatio is how far above the historical monthly average the current
// month's spend must be before a category alerts.
var AlertRatio = decimal.RequireFromString("1.25")

// Alert reports a category whose spend this month is unusually high.
type Alert struct {
	Category string
	Month    core.YearMonth
	Current  decimal.Decimal
	// Average is unrounded; Message rounds it for display.
	Average decimal.Decimal
	// Months is how many prior months contributed to Average.
	Months int
}

// Message is the human-readable alert text.
func (a Alert) Message() string {
	if !a.Average.IsPositive() {
		return fmt.Sprintf("Spending on %s this month is %s, well above your usual monthly spend.",
			a.Category, core.FormatAmount(a.Current))
	}
	pct := a.Current.Sub(a.Average).Div(a.Average).Mul(decimal.NewFromInt(100)).Round(0)
	return fmt.Sprintf("Spending on %s this month is %s, %s%% above your monthly average of %s.",
		a.Category, core.FormatAmount(a.Current), pct.String(), core.FormatAmount(a.Average))
}

// Detector flags categories whose current-month spend exceeds AlertRatio
// times their average over other months. Each category alerts at most once
// for the lifetime of the Detector.
type Detector struct {
	mu      sync.Mutex
	alerted map[string]struct{}
	now     func() time.Time
	loc     *time.Location
}

type DetectorOption func(*Detector)

// WithClock overrides the time source used to pick the current month.
func WithClock(now func() time.Time) DetectorOption {
	return func(d *Detector) { d.now = now }
}

// WithLocation sets the zone used to bucket transactions into months.
func WithLocation(loc *time.Location) DetectorOption {
	return func(d *Detector) { d.loc = loc }
}

func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{
		alerted: make(map[string]struct{}),
		now:     time.Now,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Evaluate returns alerts for categories that newly cross the threshold.
// Categories are visited in name order so results are deterministic.
func (d *Detector) Evaluate(txs []core.Transaction) []Alert {
	d.mu.Lock()
	defer d.mu.Unlock()

	current := core.YearMonthOf(d.now(), d.loc)
	monthly := monthlyExpenses(txs, d.loc)

	categories := make([]string, 0, len(monthly))
	for c := range monthly {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var alerts []Alert
	for _, category := range categories {
		if _, done := d.alerted[category]; done {
			continue
		}
		months := monthly[category]

		spent := months[current]
		history := decimal.Zero
		n := 0
		for ym, sum := range months {
			if ym == current {
				continue
			}
			history = history.Add(sum)
			n++
		}
		if n == 0 {
			continue
		}
		avg := history.Div(decimal.NewFromInt(int64(n)))
		if !avg.IsPositive() {
			continue
		}
		if spent.GreaterThan(avg.Mul(AlertRatio)) {
			d.alerted[category] = struct{}{}
			alerts = append(alerts, Alert{
				Category: category,
				Month:    current,
				Current:  spent,
				Average:  avg,
				Months:   n,
			})
		}
	}
	return alerts
}

func monthlyExpenses(txs []core.Transaction, loc *time.Location) map[string]map[core.YearMonth]decimal.Decimal {
	out := make(map[string]map[core.YearMonth]decimal.Decimal)
	for _, t := range txs {
		if t.Kind != core.KindExpense {
			continue
		}
		months, ok := out[t.Category]
		if !ok {
			months = make(map[core.YearMonth]decimal.Decimal)
			out[t.Category] = months
		}
		ym := core.YearMonthOf(t.Date, loc)
		months[ym] = months[ym].Add(t.Amount)
	}
	return out
}
