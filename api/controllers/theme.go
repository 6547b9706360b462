package controllers

import (
	"net/http"

	"github.com/mindovermyth/sessionhub/api/middleware"
	"github.com/mindovermyth/sessionhub/api/responses"
	"github.com/mindovermyth/sessionhub/api/validators"
	themesvc "github.com/mindovermyth/sessionhub/internal/theme"
	pkgerrors "github.com/mindovermyth/sessionhub/pkg/errors"
	"github.com/mindovermyth/sessionhub/pkg/logger"
)

// ThemeGet returns the session's persisted theme preference.
func ThemeGet(svc themesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "theme service unavailable"))
			return
		}

		value, err := svc.Get(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, themeResponse{Theme: string(value)})
	}
}

// ThemeSet stores the preference and broadcasts the change to the session's
// subscribers.
func ThemeSet(svc themesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "theme service unavailable"))
			return
		}

		var payload setThemeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		value, err := themesvc.Parse(payload.Theme)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Set(r.Context(), middleware.SessionIDFromContext(r.Context()), value); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, themeResponse{Theme: string(value)})
	}
}

type setThemeRequest struct {
	Theme string `json:"theme" validate:"required"`
}

type themeResponse struct {
	Theme string `json:"theme"`
}
