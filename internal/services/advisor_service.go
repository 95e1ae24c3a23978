package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"financeai/internal/ai"
	"financeai/internal/core"
	"financeai/internal/log"
	"financeai/internal/storage"

	"github.com/shopspring/decimal"
)

// HistoryMonths is how many calendar months, the current one included,
// feed the income and expense averages.
const HistoryMonths = 3

var ErrEmptyProduct = errors.New("product name is required")

type (
	AffordabilityRequest struct {
		ProductName  string           `json:"productName"`
		ProductPrice *decimal.Decimal `json:"productPrice,omitempty"`
		UserIncome   *decimal.Decimal `json:"userIncome,omitempty"`
		UserExpenses *decimal.Decimal `json:"userExpenses,omitempty"`
	}

	ProductDetails struct {
		AIOutput string `json:"aiOutput"`
	}

	// Affordability is the playground answer. MonthsToAfford is -1 when the
	// user saves nothing each month.
	Affordability struct {
		ProductName    string          `json:"productName"`
		ProductPrice   decimal.Decimal `json:"productPrice"`
		MonthlySavings decimal.Decimal `json:"monthlySavings"`
		MonthsToAfford int             `json:"monthsToAfford"`
		Explanation    string          `json:"explanation"`
		ProductDetails ProductDetails  `json:"productDetails"`
	}
)

type AdvisorService struct {
	repo    storage.TransactionRepository
	advisor ai.Advisor
	now     func() time.Time
}

func NewAdvisorService(repo storage.TransactionRepository, advisor ai.Advisor) *AdvisorService {
	return &AdvisorService{repo: repo, advisor: advisor, now: time.Now}
}

// Check answers whether userID can afford a product. Income and expenses
// default to the user's monthly averages over HistoryMonths.
func (s *AdvisorService) Check(ctx context.Context, userID string, req AffordabilityRequest) (Affordability, error) {
	name := strings.TrimSpace(req.ProductName)
	if name == "" {
		return Affordability{}, invalid(ErrEmptyProduct)
	}
	for _, v := range []*decimal.Decimal{req.ProductPrice, req.UserIncome, req.UserExpenses} {
		if v != nil && v.IsNegative() {
			return Affordability{}, invalid(errors.New("amounts must not be negative"))
		}
	}

	income, expenses, err := s.monthlyAverages(ctx, userID)
	if err != nil {
		return Affordability{}, err
	}
	if req.UserIncome != nil {
		income = *req.UserIncome
	}
	if req.UserExpenses != nil {
		expenses = *req.UserExpenses
	}

	q := ai.Question{
		ProductName:  name,
		ProductPrice: req.ProductPrice,
		Income:       income.Round(2),
		Expenses:     expenses.Round(2),
	}
	answer, err := s.advisor.Advise(ctx, q)
	if errors.Is(err, ai.ErrPriceUnknown) {
		return Affordability{}, invalid(err)
	}
	if err != nil {
		return Affordability{}, fmt.Errorf("%s advisor: %w", s.advisor.Name(), err)
	}

	savings := q.Savings()
	log.FromContext(ctx).WithComponent(log.ComponentAI).InfoContext(ctx, "Affordability checked",
		log.FieldUserID, userID,
		log.FieldOperation, log.OpAdvise,
		log.FieldProvider, s.advisor.Name())

	return Affordability{
		ProductName:    name,
		ProductPrice:   answer.Price,
		MonthlySavings: savings,
		MonthsToAfford: MonthsToAfford(answer.Price, savings),
		Explanation:    answer.Explanation,
		ProductDetails: ProductDetails{AIOutput: answer.Output},
	}, nil
}

// MonthsToAfford is ceil(price / savings), 0 for a free product and -1 when
// nothing is saved.
func MonthsToAfford(price, savings decimal.Decimal) int {
	if !price.IsPositive() {
		return 0
	}
	if !savings.IsPositive() {
		return -1
	}
	return int(price.Div(savings).Ceil().IntPart())
}

func (s *AdvisorService) monthlyAverages(ctx context.Context, userID string) (income, expenses decimal.Decimal, err error) {
	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month()-HistoryMonths+1, 1, 0, 0, 0, 0, time.UTC)

	page, err := s.repo.ListTransactions(ctx, userID, core.Filter{
		StartDate: start,
		EndDate:   now,
		Limit:     storage.MaxLimit,
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("load history: %w", err)
	}

	months := make(map[core.YearMonth]struct{})
	income, expenses = decimal.Zero, decimal.Zero
	for _, tx := range page.Data {
		months[core.YearMonthOf(tx.Date, time.UTC)] = struct{}{}
		switch tx.Kind {
		case core.KindIncome:
			income = income.Add(tx.Amount)
		case core.KindExpense:
			expenses = expenses.Add(tx.Amount)
		}
	}
	if len(months) == 0 {
		return decimal.Zero, decimal.Zero, nil
	}
	n := decimal.NewFromInt(int64(len(months)))
	return income.Div(n), expenses.Div(n), nil
}
