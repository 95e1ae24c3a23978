package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"financeai/internal/apiclient"
	"financeai/internal/core"
	"financeai/internal/session"
)

// fakeAPI is an in-memory stand-in for the REST API.
type fakeAPI struct {
	mu       sync.Mutex
	users    map[string]string // email -> password
	token    string
	txs      []core.Transaction
	nextID   int
	calls    map[string]int
	listHook func(params apiclient.ListParams) // runs before each list
	advice   apiclient.AffordabilityResponse
	failWith error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		users: map[string]string{"ann@example.com": "secret1"},
		token: "tok-ann",
		calls: make(map[string]int),
	}
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.failWith
}

func (f *fakeAPI) Login(_ context.Context, req apiclient.LoginRequest) (apiclient.AuthResponse, error) {
	if err := f.record("login"); err != nil {
		return apiclient.AuthResponse{}, err
	}
	if f.users[req.Email] != req.Password {
		return apiclient.AuthResponse{}, &apiclient.RequestError{Status: 401, Message: "Invalid credentials"}
	}
	return apiclient.AuthResponse{Token: f.token, User: core.User{ID: "u1", Name: "Ann", Email: req.Email}}, nil
}

func (f *fakeAPI) Signup(_ context.Context, req apiclient.SignupRequest) (apiclient.AuthResponse, error) {
	if err := f.record("signup"); err != nil {
		return apiclient.AuthResponse{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[req.Email]; ok {
		return apiclient.AuthResponse{}, &apiclient.RequestError{Status: 409, Message: "Email already registered"}
	}
	f.users[req.Email] = req.Password
	return apiclient.AuthResponse{Token: "tok-new", User: core.User{ID: "u2", Name: req.Name, Email: req.Email}}, nil
}

func (f *fakeAPI) ListTransactions(_ context.Context, p apiclient.ListParams, token string) (core.Page, error) {
	if f.listHook != nil {
		f.listHook(p)
	}
	if err := f.record("list"); err != nil {
		return core.Page{}, err
	}
	if token != f.token {
		return core.Page{}, &apiclient.RequestError{Status: 401, Message: "Unauthorized"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Transaction
	for _, t := range f.txs {
		if p.Type != "" && t.Kind != p.Type {
			continue
		}
		if p.Category != "" && !strings.EqualFold(t.Category, p.Category) {
			continue
		}
		if p.Q != "" && !strings.Contains(strings.ToLower(t.Description+" "+t.Category), strings.ToLower(p.Q)) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	total := len(out)
	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return core.Page{Data: out, Total: total}, nil
}

func (f *fakeAPI) CreateTransaction(_ context.Context, in core.TransactionInput, _ string) (core.Transaction, error) {
	if err := f.record("create"); err != nil {
		return core.Transaction{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	tx := core.Transaction{ID: fmt.Sprintf("t%d", f.nextID), UserID: "u1"}.Apply(in)
	f.txs = append(f.txs, tx)
	return tx, nil
}

func (f *fakeAPI) UpdateTransaction(_ context.Context, id string, in core.TransactionInput, _ string) (core.Transaction, error) {
	if err := f.record("update"); err != nil {
		return core.Transaction{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.txs {
		if t.ID == id {
			f.txs[i] = t.Apply(in)
			return f.txs[i], nil
		}
	}
	return core.Transaction{}, &apiclient.RequestError{Status: 404, Message: "Transaction not found"}
}

func (f *fakeAPI) DeleteTransaction(_ context.Context, id string, _ string) error {
	if err := f.record("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.txs {
		if t.ID == id {
			f.txs = append(f.txs[:i], f.txs[i+1:]...)
			return nil
		}
	}
	return &apiclient.RequestError{Status: 404, Message: "Transaction not found"}
}

func (f *fakeAPI) CheckAffordability(_ context.Context, req apiclient.AffordabilityRequest, _ string) (apiclient.AffordabilityResponse, error) {
	if err := f.record("afford"); err != nil {
		return apiclient.AffordabilityResponse{}, err
	}
	res := f.advice
	res.Data.ProductName = req.ProductName
	return res, nil
}

func (f *fakeAPI) seed(txs ...core.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range txs {
		f.nextID++
		if t.ID == "" {
			t.ID = fmt.Sprintf("t%d", f.nextID)
		}
		f.txs = append(f.txs, t)
	}
}

func newSession(token string) *session.Store {
	s, err := session.NewStore(session.NewMemoryStorage())
	if err != nil {
		panic(err)
	}
	if token != "" {
		_ = s.Login(token, &core.User{ID: "u1", Name: "Ann", Email: "ann@example.com"})
	}
	return s
}

func always(answer bool) ConfirmFunc {
	return func(string) bool { return answer }
}

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
