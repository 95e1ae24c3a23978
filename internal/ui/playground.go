package ui

import (
	"context"
	"errors"
	"strings"
	"sync"

	"financeai/internal/apiclient"
	"financeai/internal/session"
)

var ErrEmptyProduct = errors.New("please enter a product name")

// Advice is an affordability answer ready for display.
type Advice struct {
	apiclient.Affordability
	// Output is the AI text with markdown emphasis removed.
	Output string
}

// Playground runs "can I afford this" queries.
type Playground struct {
	api     AdvisorAPI
	session *session.Store
	state   action

	mu     sync.Mutex
	result *Advice
}

func NewPlayground(api AdvisorAPI, s *session.Store) *Playground {
	return &Playground{api: api, session: s}
}

// Check asks the advisor about req.ProductName. The loading state is always
// cleared when the call returns.
func (p *Playground) Check(ctx context.Context, req apiclient.AffordabilityRequest) (*Advice, error) {
	req.ProductName = strings.TrimSpace(req.ProductName)
	if req.ProductName == "" {
		return nil, p.state.reject(ErrEmptyProduct)
	}
	token := p.session.Token()
	if token == "" {
		return nil, p.state.reject(ErrNotAuthenticated)
	}
	if err := p.state.begin(); err != nil {
		return nil, err
	}

	res, err := p.api.CheckAffordability(ctx, req, token)
	p.state.finish(err)
	if err != nil {
		return nil, err
	}

	advice := &Advice{
		Affordability: res.Data,
		Output:        strings.ReplaceAll(res.Data.ProductDetails.AIOutput, "*", ""),
	}
	p.mu.Lock()
	p.result = advice
	p.mu.Unlock()
	return advice, nil
}

// Result is the last successful answer, or nil.
func (p *Playground) Result() *Advice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

func (p *Playground) Loading() bool {
	s, _ := p.state.snapshot()
	return s == StatusLoading
}

func (p *Playground) Status() Status {
	s, _ := p.state.snapshot()
	return s
}

func (p *Playground) Err() error {
	_, err := p.state.snapshot()
	return err
}
