package usage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mindovermyth/sessionhub/pkg/config"
)

func newRecorder(t *testing.T, baseURL string, timeout time.Duration) *HTTPRecorder {
	t.Helper()

	rec, err := NewHTTPRecorder(config.BackendConfig{
		BaseURL:      baseURL,
		UsageTimeout: timeout,
	}, nil, nil)
	require.NoError(t, err)
	return rec
}

func TestRecordDelivered(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := newRecorder(t, srv.URL, time.Second)
	result := rec.Record(context.Background(), "track-42")

	require.True(t, result.Delivered)
	require.Equal(t, "delivered", result.Outcome())
	require.Equal(t, http.MethodPatch, gotMethod)
	require.Equal(t, "/api/content/track-42/listen", gotPath)
}

func TestRecordStatusFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := newRecorder(t, srv.URL, time.Second)
	result := rec.Record(context.Background(), "track-42")

	require.False(t, result.Delivered)
	require.Equal(t, FailureStatus, result.Failure)
	require.Equal(t, http.StatusInternalServerError, result.Status)
}

func TestRecordTransportFailure(t *testing.T) {
	t.Parallel()

	// Bind then close to get a port with nothing listening.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	rec := newRecorder(t, addr, time.Second)
	result := rec.Record(context.Background(), "track-42")

	require.False(t, result.Delivered)
	require.Equal(t, FailureTransport, result.Failure)
}

func TestRecordTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	rec := newRecorder(t, srv.URL, 50*time.Millisecond)
	result := rec.Record(context.Background(), "track-42")

	require.False(t, result.Delivered)
	require.Equal(t, FailureTimeout, result.Failure)
}

func TestRecordEmptyContentID(t *testing.T) {
	t.Parallel()

	rec := newRecorder(t, "http://localhost:1", time.Second)
	result := rec.Record(context.Background(), "  ")
	require.False(t, result.Delivered)
}
