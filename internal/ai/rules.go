package ai

import (
	"context"
	"fmt"

	"financeai/internal/core"

	"github.com/shopspring/decimal"
)

// Rules answers from the numbers alone. It cannot estimate prices.
type Rules struct{}

func NewRules() *Rules { return &Rules{} }

func (*Rules) Name() string { return "rules" }

func (*Rules) Advise(_ context.Context, q Question) (Answer, error) {
	if q.ProductPrice == nil || !q.ProductPrice.IsPositive() {
		return Answer{}, ErrPriceUnknown
	}
	price := q.ProductPrice.Round(2)
	savings := q.Savings()

	var explanation, verdict string
	switch {
	case !savings.IsPositive():
		explanation = fmt.Sprintf("You are not saving anything each month, so %s is out of reach for now.", q.ProductName)
		verdict = "**Not affordable yet.** Reduce monthly expenses before planning this purchase."
	case price.LessThanOrEqual(savings):
		explanation = fmt.Sprintf("%s costs less than one month of savings.", q.ProductName)
		verdict = "**Affordable.** You can buy it from this month's savings."
	default:
		months := price.Div(savings).Ceil()
		explanation = fmt.Sprintf("At %s saved per month, %s takes about %s months.",
			core.FormatAmount(savings), q.ProductName, months.String())
		verdict = fmt.Sprintf("**Save first.** Set aside %s a month for %s months.",
			core.FormatAmount(savings), months.String())
	}

	share := decimal.Zero
	if q.Income.IsPositive() {
		share = price.Div(q.Income).Mul(decimal.NewFromInt(100)).Round(0)
	}
	output := fmt.Sprintf("%s\n\n%s costs %s, which is %s%% of your monthly income of %s.",
		verdict, q.ProductName, core.FormatAmount(price), share.String(), core.FormatAmount(q.Income))

	return Answer{Price: price, Explanation: explanation, Output: output}, nil
}
