package ui

import (
	"context"
	"strings"

	"financeai/internal/apiclient"
	"financeai/internal/core"
	"financeai/internal/session"
)

// LoginForm signs an existing user in.
type LoginForm struct {
	api     AuthAPI
	session *session.Store
	nav     *Navigator
	state   action
}

func NewLoginForm(api AuthAPI, s *session.Store, nav *Navigator) *LoginForm {
	return &LoginForm{api: api, session: s, nav: nav}
}

// Submit validates the fields, calls the API, stores the session and
// navigates to the dashboard.
func (f *LoginForm) Submit(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return f.state.reject(core.ErrEmptyCredential)
	}
	if err := f.state.begin(); err != nil {
		return err
	}

	res, err := f.api.Login(ctx, apiclient.LoginRequest{Email: email, Password: password})
	if err == nil {
		err = f.session.Login(res.Token, &res.User)
	}
	f.state.finish(err)
	if err != nil {
		return err
	}
	f.nav.Navigate(string(RouteDashboard))
	return nil
}

func (f *LoginForm) Status() Status {
	s, _ := f.state.snapshot()
	return s
}

func (f *LoginForm) Err() error {
	_, err := f.state.snapshot()
	return err
}

// ErrorMessage is the inline banner text, empty when there is nothing to show.
func (f *LoginForm) ErrorMessage() string {
	return errorMessage(f.Err(), "Failed to login")
}

// Dismiss clears a finished attempt back to idle.
func (f *LoginForm) Dismiss() { f.state.reset() }
