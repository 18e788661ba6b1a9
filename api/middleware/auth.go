package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shoplane/shoplane-backend/api/responses"
	pkgAuth "github.com/shoplane/shoplane-backend/pkg/auth"
	"github.com/shoplane/shoplane-backend/pkg/auth/session"
	"github.com/shoplane/shoplane-backend/pkg/config"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
	"github.com/shoplane/shoplane-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
// A missing token yields 401; a present but unverifiable or revoked token
// yields 403.
func Auth(cfg config.JWTConfig, verifier session.Checker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "Invalid or expired token"))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Invalid or expired token"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.UserID, claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Invalid or expired token"))
					return
				}
			}

			ctx := WithUserID(r.Context(), claims.UserID)
			ctx = WithRole(ctx, string(claims.Role))
			ctx = WithTokenID(ctx, claims.ID)
			if claims.Username != "" {
				ctx = context.WithValue(ctx, ctxUsername, claims.Username)
			}
			if claims.Email != "" {
				ctx = context.WithValue(ctx, ctxEmail, claims.Email)
			}

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id": claims.UserID,
					"role":    string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route to actors holding one of the listed roles.
func RequireRole(logg *logger.Logger, roles ...string) func(http.Handler) http.Handler {
	allowed := map[string]struct{}{}
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[RoleFromContext(r.Context())]; !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
