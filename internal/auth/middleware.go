package auth

import (
	"context"
	"net/http"

	"financeai/internal/log"
)

type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID stores the authenticated user's id in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user's id, or "" outside Middleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// Middleware rejects requests without a valid bearer token. onError writes
// the rejection so the API keeps a single error format.
func Middleware(issuer *Issuer, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r.Header.Get("Authorization"))
			if err == nil {
				var claims *Claims
				if claims, err = issuer.Verify(token); err == nil {
					ctx := WithUserID(r.Context(), claims.Subject)
					logger := log.FromContext(ctx).With(log.FieldUserID, claims.Subject)
					next.ServeHTTP(w, r.WithContext(log.NewContext(ctx, logger)))
					return
				}
			}
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).Debug("Rejected request",
				log.FieldPath, r.URL.Path, log.FieldError, err)
			onError(w, r, err)
		})
	}
}
