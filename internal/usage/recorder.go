// Package usage delivers best-effort listen-count notifications to the
// platform backend. The contract is explicit: Record never blocks the caller
// path it is invoked from, never retries, and never lets a failure escape
// beyond a log line and a counter.
package usage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mindovermyth/sessionhub/pkg/config"
	"github.com/mindovermyth/sessionhub/pkg/logger"
	"github.com/mindovermyth/sessionhub/pkg/metrics"
)

// FailureKind classifies why a delivery did not land.
type FailureKind string

const (
	FailureNone      FailureKind = ""
	FailureTimeout   FailureKind = "timeout"
	FailureTransport FailureKind = "transport"
	FailureStatus    FailureKind = "status"
)

// Result reports the outcome of one delivery attempt.
type Result struct {
	Delivered bool
	Failure   FailureKind
	Status    int
}

// Outcome returns the metrics label for the result.
func (r Result) Outcome() string {
	if r.Delivered {
		return "delivered"
	}
	if r.Failure == FailureNone {
		return "unknown"
	}
	return string(r.Failure)
}

// Recorder records that a piece of content was listened to.
type Recorder interface {
	Record(ctx context.Context, contentID string) Result
}

// HTTPRecorder PATCHes the backend's listen counter.
type HTTPRecorder struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	logg    *logger.Logger
	metrics *metrics.StateMetrics
}

// NewHTTPRecorder builds the backend-facing recorder.
func NewHTTPRecorder(cfg config.BackendConfig, logg *logger.Logger, m *metrics.StateMetrics) (*HTTPRecorder, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend base url required")
	}
	timeout := cfg.UsageTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPRecorder{
		baseURL: base,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logg:    logg,
		metrics: m,
	}, nil
}

// Record performs one delivery attempt with a bounded timeout. The response
// body is never consumed beyond its status.
func (r *HTTPRecorder) Record(ctx context.Context, contentID string) Result {
	start := time.Now()
	result := r.deliver(ctx, contentID)
	r.metrics.ObserveUsageDelivery(result.Outcome(), time.Since(start))

	if !result.Delivered && r.logg != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"content_id":   contentID,
			"failure_kind": string(result.Failure),
			"status":       result.Status,
		})
		r.logg.Warn(logCtx, "usage notification not delivered")
	}
	return result
}

func (r *HTTPRecorder) deliver(ctx context.Context, contentID string) Result {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return Result{Failure: FailureTransport}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/api/content/%s/listen", r.baseURL, url.PathEscape(contentID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, nil)
	if err != nil {
		return Result{Failure: FailureTransport}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return Result{Failure: FailureTimeout}
		}
		return Result{Failure: FailureTransport}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Result{Delivered: true, Status: resp.StatusCode}
	}
	return Result{Failure: FailureStatus, Status: resp.StatusCode}
}

func isTimeout(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}
