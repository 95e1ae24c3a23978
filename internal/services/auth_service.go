package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"financeai/internal/auth"
	"financeai/internal/core"
	"financeai/internal/log"
	"financeai/internal/storage"

	"github.com/google/uuid"
)

// AuthService creates accounts and exchanges credentials for tokens.
type AuthService struct {
	users  storage.UserRepository
	issuer *auth.Issuer
	now    func() time.Time
}

func NewAuthService(users storage.UserRepository, issuer *auth.Issuer) *AuthService {
	return &AuthService{users: users, issuer: issuer, now: time.Now}
}

// Signup registers a user and logs them in. Emails are matched
// case-insensitively.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (string, core.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if err := core.ValidateSignup(name, email, password); err != nil {
		return "", core.User{}, invalid(err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", core.User{}, err
	}
	rec := storage.UserRecord{
		User: core.User{
			ID:    uuid.NewString(),
			Name:  name,
			Email: core.NormalizeEmail(email),
		},
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, rec); err != nil {
		return "", core.User{}, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issuer.Issue(rec.ID, rec.Email)
	if err != nil {
		return "", core.User{}, err
	}
	log.FromContext(ctx).WithComponent(log.ComponentAuth).InfoContext(ctx, "User signed up",
		log.FieldUserID, rec.ID, log.FieldOperation, log.OpSignup)
	return token, rec.User, nil
}

// Login verifies credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, core.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", core.User{}, invalid(core.ErrEmptyCredential)
	}

	rec, err := s.users.UserByEmail(ctx, core.NormalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return "", core.User{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return "", core.User{}, fmt.Errorf("load user: %w", err)
	}
	if err := auth.CheckPassword(rec.PasswordHash, password); err != nil {
		return "", core.User{}, err
	}

	token, err := s.issuer.Issue(rec.ID, rec.Email)
	if err != nil {
		return "", core.User{}, err
	}
	log.FromContext(ctx).WithComponent(log.ComponentAuth).InfoContext(ctx, "User logged in",
		log.FieldUserID, rec.ID, log.FieldOperation, log.OpLogin)
	return token, rec.User, nil
}
