package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yanasan/todo-api/internal/model"
)

// CredentialsMessage is the only explanation a rejected bearer token ever gets.
const CredentialsMessage = "Could not validate credentials"

type authenticator interface {
	Authenticate(ctx context.Context, token string) (model.User, error)
}

type contextKey string

const userContextKey contextKey = "auth_user"

type AuthMiddleware struct {
	authenticator authenticator
}

func NewAuthMiddleware(authenticator authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// RequireAuth resolves the bearer access token into a user. The user is looked
// up on every request, so a deleted account loses access immediately.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, ok := bearerToken(r)
		if !ok {
			slog.InfoContext(ctx, "token rejected", "operation", "authenticate", "reason", "missing_bearer")
			writeUnauthorized(w)
			return
		}

		// the cause of a rejection is logged by the authenticator
		user, err := m.authenticator.Authenticate(ctx, token)
		if err != nil {
			if model.IsUnauthorized(err) {
				writeUnauthorized(w)
				return
			}

			slog.ErrorContext(ctx, "authenticate request", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
			return
		}

		if state := accessStateFrom(ctx); state != nil {
			state.setUser(user.ID)
		}
		next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
	})
}

func UserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userContextKey).(model.User)
	return user, ok
}

// WithUser stores user the way RequireAuth does.
func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", CredentialsMessage)
}
