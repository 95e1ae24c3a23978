// Package ai answers "can I afford this" questions. Providers share a prompt
// and a JSON reply format; the rules provider works offline.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrPriceUnknown = errors.New("product price is required")
	ErrBadReply     = errors.New("unusable advisor reply")
)

// Question is what the advisor is asked. Figures are monthly.
type Question struct {
	ProductName  string
	ProductPrice *decimal.Decimal
	Income       decimal.Decimal
	Expenses     decimal.Decimal
}

// Savings is income minus expenses; negative when overspending.
func (q Question) Savings() decimal.Decimal {
	return q.Income.Sub(q.Expenses)
}

type Answer struct {
	// Price is the asked price, or the provider's estimate when none was given.
	Price       decimal.Decimal
	Explanation string
	// Output is the long-form advice; it may contain markdown emphasis.
	Output string
}

type Advisor interface {
	Name() string
	Advise(ctx context.Context, q Question) (Answer, error)
}

// Settings selects and configures a provider.
type Settings struct {
	Provider      string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OllamaURL     string
	OllamaModel   string
}

func New(s Settings) (Advisor, error) {
	switch s.Provider {
	case "", "rules":
		return NewRules(), nil
	case "openai":
		return NewOpenAI(s.OpenAIAPIKey, s.OpenAIBaseURL, s.OpenAIModel), nil
	case "ollama":
		return NewOllama(s.OllamaURL, s.OllamaModel), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", s.Provider)
	}
}

const systemPrompt = `You are a careful personal finance assistant.
Reply with a single JSON object and nothing else:
{"estimatedPrice": number, "explanation": string, "analysis": string}
estimatedPrice is the product price in US dollars (repeat it if the user gave one).
explanation is one sentence. analysis is a short markdown paragraph.`

func userPrompt(q Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s\n", q.ProductName)
	if q.ProductPrice != nil {
		fmt.Fprintf(&b, "Price: %s\n", q.ProductPrice.StringFixed(2))
	} else {
		b.WriteString("Price: unknown, estimate a typical retail price\n")
	}
	fmt.Fprintf(&b, "Monthly income: %s\n", q.Income.StringFixed(2))
	fmt.Fprintf(&b, "Monthly expenses: %s\n", q.Expenses.StringFixed(2))
	fmt.Fprintf(&b, "Monthly savings: %s\n", q.Savings().StringFixed(2))
	b.WriteString("Can I afford it, and how long would I need to save?")
	return b.String()
}

type reply struct {
	EstimatedPrice *decimal.Decimal `json:"estimatedPrice"`
	Explanation    string           `json:"explanation"`
	Analysis       string           `json:"analysis"`
}

// answer turns a decoded model reply into an Answer. An explicit price
// always wins over the model's estimate.
func (r reply) answer(q Question) (Answer, error) {
	price := r.EstimatedPrice
	if q.ProductPrice != nil {
		price = q.ProductPrice
	}
	if price == nil || !price.IsPositive() {
		return Answer{}, fmt.Errorf("%w: no price", ErrBadReply)
	}
	out := strings.TrimSpace(r.Analysis)
	if out == "" {
		out = strings.TrimSpace(r.Explanation)
	}
	if out == "" {
		return Answer{}, fmt.Errorf("%w: empty analysis", ErrBadReply)
	}
	return Answer{Price: price.Round(2), Explanation: strings.TrimSpace(r.Explanation), Output: out}, nil
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
