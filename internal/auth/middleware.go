package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// CookieName is the HttpOnly cookie that carries the token for browser clients.
const CookieName = "token"

// SessionChecker reports whether a server-side session is still live.
// session.Store satisfies it.
type SessionChecker interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
}

type contextKey string

const identityKey contextKey = "identity"

var errSessionRevoked = errors.New("auth: session revoked")

// RequireAuth rejects requests without a valid token or whose session was revoked,
// and stores the Identity in the request context.
func RequireAuth(tokens *TokenService, sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authenticate(r, tokens, sessions)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole must run after RequireAuth. Organizers pass any role check.
func RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}
			if id.Role != role && id.Role != RoleOrganizer {
				writeAuthError(w, http.StatusForbidden, "forbidden", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OptionalAuth attaches the identity when a valid token is present and lets anonymous
// requests through untouched.
func OptionalAuth(tokens *TokenService, sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := authenticate(r, tokens, sessions); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns (nil, false) for anonymous requests.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// UserIDFromContext returns the subject of a member or organizer request.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return "", false
	}
	return id.Subject, true
}

// TokenFromRequest reads the Bearer header first, then the cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

func authenticate(r *http.Request, tokens *TokenService, sessions SessionChecker) (*Identity, error) {
	raw := TokenFromRequest(r)
	if raw == "" {
		return nil, http.ErrNoCookie
	}

	id, err := tokens.Validate(raw)
	if err != nil {
		return nil, err
	}

	if sessions != nil {
		live, err := sessions.Exists(r.Context(), id.SessionID)
		if err != nil {
			return nil, err
		}
		if !live {
			return nil, errSessionRevoked
		}
	}
	return id, nil
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + code + `","message":"` + message + `"}`))
}
