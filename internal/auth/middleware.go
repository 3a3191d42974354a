package auth

import (
	"context"
	"net/http"

	"github.com/petermazzocco/snapgram/internal/log"
	"github.com/petermazzocco/snapgram/models"
)

type contextKey string

const accountKey contextKey = "account"

// AccountResolver turns a session id into its account.
type AccountResolver interface {
	GetAccount(ctx context.Context, sessionID string) (*models.Account, error)
}

// RequireSession rejects requests without a live session and puts the
// session's account on the request context.
func RequireSession(resolver AccountResolver, sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, err := sessions.Token(r)
			if err != nil {
				log.Warn.Printf("read session cookie: %v", err)
				http.Error(w, "Not Authorized", http.StatusUnauthorized)
				return
			}
			if sessionID == "" {
				http.Error(w, "Not Authorized", http.StatusUnauthorized)
				return
			}

			account, err := resolver.GetAccount(r.Context(), sessionID)
			if err != nil {
				http.Error(w, "Not Authorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), accountKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountFrom returns the account RequireSession stored on ctx.
func AccountFrom(ctx context.Context) (*models.Account, bool) {
	account, ok := ctx.Value(accountKey).(*models.Account)
	return account, ok && account != nil
}

// WithAccount returns a copy of ctx carrying account.
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, accountKey, account)
}
