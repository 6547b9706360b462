package controllers

import (
	"net/http"

	"github.com/mindovermyth/sessionhub/api/middleware"
	"github.com/mindovermyth/sessionhub/api/responses"
	checkoutsvc "github.com/mindovermyth/sessionhub/internal/checkout"
	pkgerrors "github.com/mindovermyth/sessionhub/pkg/errors"
	"github.com/mindovermyth/sessionhub/pkg/logger"
)

// CheckoutInitiate hands the cart to the payment backend and returns the
// redirect target.
func CheckoutInitiate(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		result, err := svc.Initiate(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
