package controllers

import (
	"net/http"

	"github.com/shoplane/shoplane-backend/api/middleware"
	"github.com/shoplane/shoplane-backend/api/responses"
	"github.com/shoplane/shoplane-backend/api/validators"
	usersvc "github.com/shoplane/shoplane-backend/internal/users"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
	"github.com/shoplane/shoplane-backend/pkg/logger"
)

// UserProfile returns the caller's own profile.
func UserProfile(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
			return
		}

		profile, err := svc.GetProfile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// UserUpdateProfile applies partial profile changes for the caller.
func UserUpdateProfile(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
			return
		}

		var body usersvc.UpdateProfileDTO
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateProfile(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessMessage(w, http.StatusOK, "Profile updated successfully", profile)
	}
}

// UserList returns every account in summary form. Admin only.
func UserList(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		users, err := svc.ListUsers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, users)
	}
}

// UserGet returns the full profile for an arbitrary account. Admin only.
func UserGet(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "id", "user ID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.GetProfile(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// UserAdminUpdate applies profile changes to an arbitrary account. Admin only.
func UserAdminUpdate(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "id", "user ID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body usersvc.UpdateProfileDTO
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateProfile(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessMessage(w, http.StatusOK, "User updated successfully", profile)
	}
}

// UserDelete deactivates an account rather than removing the row, so order
// history stays intact. Admin only.
func UserDelete(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "id", "user ID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeactivateUser(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessMessage(w, http.StatusOK, "User deleted successfully", nil)
	}
}
