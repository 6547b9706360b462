package controllers

import (
	"net/http"

	"github.com/mindovermyth/sessionhub/api/middleware"
	"github.com/mindovermyth/sessionhub/api/responses"
)

func Ping() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"status": "ok"}
		if session := middleware.SessionIDFromContext(r.Context()); session != "" {
			payload["session_id"] = session
		}
		responses.WriteSuccess(w, payload)
	}
}
