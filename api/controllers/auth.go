package controllers

import (
	"net/http"

	"github.com/shoplane/shoplane-backend/api/middleware"
	"github.com/shoplane/shoplane-backend/api/responses"
	"github.com/shoplane/shoplane-backend/api/validators"
	authsvc "github.com/shoplane/shoplane-backend/internal/auth"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
	"github.com/shoplane/shoplane-backend/pkg/logger"
)

// AuthRegister creates a new account and issues the first access token.
func AuthRegister(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body authsvc.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessMessage(w, http.StatusCreated, "User registered successfully", result)
	}
}

// AuthLogin exchanges credentials for an access token.
func AuthLogin(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body authsvc.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessMessage(w, http.StatusOK, "Login successful", result)
	}
}

// AuthLogout revokes the session carried by the presented token.
func AuthLogout(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		tokenID := middleware.TokenIDFromContext(r.Context())
		if userID <= 0 || tokenID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
			return
		}

		if err := svc.Logout(r.Context(), userID, tokenID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessMessage(w, http.StatusOK, "Logged out successfully", nil)
	}
}

// AuthMe returns the authenticated user's profile.
func AuthMe(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
			return
		}

		user, err := svc.Me(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, user)
	}
}

// AuthRefresh rotates the caller's session and remints the access token.
func AuthRefresh(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		tokenID := middleware.TokenIDFromContext(r.Context())
		if userID <= 0 || tokenID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
			return
		}

		result, err := svc.Refresh(r.Context(), userID, tokenID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
