// Package ui holds the view-layer controllers of the client: forms, the
// dashboard, the AI playground, alerts and routing. Rendering is left to the
// caller; controllers only own state and talk to the API.
package ui

import (
	"context"
	"errors"
	"sync"

	"financeai/internal/apiclient"
	"financeai/internal/core"
)

// Status is the lifecycle of a single view action.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

var (
	// ErrBusy is returned when an action is triggered while it is still in flight.
	ErrBusy = errors.New("action already in progress")
	// ErrNotAuthenticated means the caller must be redirected to the login route.
	ErrNotAuthenticated = errors.New("not authenticated")
)

type (
	AuthAPI interface {
		Login(ctx context.Context, req apiclient.LoginRequest) (apiclient.AuthResponse, error)
		Signup(ctx context.Context, req apiclient.SignupRequest) (apiclient.AuthResponse, error)
	}

	TransactionAPI interface {
		ListTransactions(ctx context.Context, params apiclient.ListParams, token string) (core.Page, error)
		CreateTransaction(ctx context.Context, in core.TransactionInput, token string) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, id string, in core.TransactionInput, token string) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string, token string) error
	}

	AdvisorAPI interface {
		CheckAffordability(ctx context.Context, req apiclient.AffordabilityRequest, token string) (apiclient.AffordabilityResponse, error)
	}
)

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// action tracks one in-flight operation and its outcome.
type action struct {
	mu     sync.Mutex
	status Status
	err    error
}

func (a *action) begin() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status == StatusLoading {
		return ErrBusy
	}
	a.status = StatusLoading
	a.err = nil
	return nil
}

// start enters the loading state even if already loading.
func (a *action) start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = StatusLoading
	a.err = nil
}

func (a *action) finish(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.status = StatusError
		a.err = err
		return
	}
	a.status = StatusSuccess
}

// reject records a validation failure without entering the loading state.
func (a *action) reject(err error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status == StatusLoading {
		return ErrBusy
	}
	a.status = StatusError
	a.err = err
	return err
}

func (a *action) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != StatusLoading {
		a.status = StatusIdle
		a.err = nil
	}
}

func (a *action) snapshot() (Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status, a.err
}

func errorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
