package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSessionMintsIDWhenHeaderAbsent(t *testing.T) {
	var seen string
	handler := Session(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("expected a minted session id in context")
	}
	if got := w.Header().Get("X-Session-Id"); got != seen {
		t.Fatalf("header %q does not match context id %q", got, seen)
	}
}

func TestSessionEchoesProvidedID(t *testing.T) {
	var seen string
	handler := Session(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Session-Id", "sess-42")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seen != "sess-42" {
		t.Fatalf("expected sess-42 in context, got %q", seen)
	}
	if got := w.Header().Get("X-Session-Id"); got != "sess-42" {
		t.Fatalf("expected echoed header, got %q", got)
	}
}

func TestSessionIDFromContextDefaultsEmpty(t *testing.T) {
	if got := SessionIDFromContext(nil); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}
