package session

import (
	"context"
	"errors"
)

// ErrNoProvider means a consumer asked for the session outside WithStore.
var ErrNoProvider = errors.New("session: no store in context; wrap the caller with session.WithStore")

type contextKey struct{}

// WithStore provides s to everything derived from ctx.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (*Store, error) {
	s, ok := ctx.Value(contextKey{}).(*Store)
	if !ok || s == nil {
		return nil, ErrNoProvider
	}
	return s, nil
}
