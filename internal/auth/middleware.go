package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/arfan-dev/storefront-api/internal/common"
)

type ctxKey int

const subjectKey ctxKey = iota

// Middleware authenticates admin requests with a bearer token signed with
// the shared HMAC secret. Issuer and audience must match exactly when set.
type Middleware struct {
	Secret    []byte
	Issuer    string
	Audience  string
	ClockSkew time.Duration
}

// Subject returns the authenticated token subject, if any.
func Subject(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey).(string)
	return s, ok
}

func (m *Middleware) parse(raw string) (jwt.Token, error) {
	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, m.Secret),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(m.ClockSkew),
	}
	if m.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.Issuer))
	}
	if m.Audience != "" {
		opts = append(opts, jwt.WithAudience(m.Audience))
	}
	return jwt.Parse([]byte(raw), opts...)
}

// RequireAdmin rejects requests without a valid admin bearer token.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil || len(m.Secret) == 0 {
			common.JSONError(w, http.StatusInternalServerError, "AUTH_NOT_CONFIGURED", "token validation is not configured", nil)
			return
		}
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
			return
		}
		tok, err := m.parse(strings.TrimSpace(raw))
		if err != nil {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token", nil)
			return
		}
		role, _ := tok.PrivateClaims()["role"].(string)
		if role != "admin" {
			common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "admin role required", nil)
			return
		}
		ctx := context.WithValue(r.Context(), subjectKey, tok.Subject())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
