package ui

import (
	"context"
	"strings"

	"financeai/internal/apiclient"
	"financeai/internal/core"
	"financeai/internal/session"
)

// SignupForm creates an account and signs it in.
type SignupForm struct {
	api     AuthAPI
	session *session.Store
	nav     *Navigator
	state   action
}

func NewSignupForm(api AuthAPI, s *session.Store, nav *Navigator) *SignupForm {
	return &SignupForm{api: api, session: s, nav: nav}
}

func (f *SignupForm) Submit(ctx context.Context, name, email, password string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if err := core.ValidateSignup(name, email, password); err != nil {
		return f.state.reject(err)
	}
	if err := f.state.begin(); err != nil {
		return err
	}

	res, err := f.api.Signup(ctx, apiclient.SignupRequest{Name: name, Email: email, Password: password})
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

func (f *SignupForm) Status() Status {
	s, _ := f.state.snapshot()
	return s
}

func (f *SignupForm) Err() error {
	_, err := f.state.snapshot()
	return err
}

func (f *SignupForm) ErrorMessage() string {
	return errorMessage(f.Err(), "Failed to sign up")
}

func (f *SignupForm) Dismiss() { f.state.reset() }
