package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mercadolocal/mercados-backend/api/responses"
	pkgerrors "github.com/mercadolocal/mercados-backend/pkg/errors"
	"github.com/mercadolocal/mercados-backend/pkg/identity"
	"github.com/mercadolocal/mercados-backend/pkg/logger"
)

// TokenVerifier introspects bearer tokens against the identity provider.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*identity.User, error)
}

// Auth validates a bearer token against the identity provider and seeds the
// request context with the principal. Every verification failure maps to 401.
func Auth(verifier TokenVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if err != nil || user == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid or expired token"))
				return
			}

			principal := Principal{
				ID:        user.ID,
				Email:     user.Email,
				Name:      user.UserMetadata.Name,
				CreatedAt: user.CreatedAt,
			}
			ctx := WithPrincipal(r.Context(), principal)
			if logg != nil {
				ctx = logg.WithUserID(ctx, principal.ID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PublicKey guards public-read routes. The anonymous publishable key stands
// in for "no auth": the bearer token must be present but is not introspected.
func PublicKey(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearerToken(r) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
