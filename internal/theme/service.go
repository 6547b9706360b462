// Package theme keeps every mounted view of a session agreed on one
// two-valued preference without a central store on the client: the persisted
// value and the broadcast event are independent signals, and an observer
// converges from either.
package theme

import (
	"context"
	"errors"
	"strings"

	"github.com/mindovermyth/sessionhub/internal/realtime"
	pkgerrors "github.com/mindovermyth/sessionhub/pkg/errors"
	"github.com/mindovermyth/sessionhub/pkg/kv"
	"github.com/mindovermyth/sessionhub/pkg/logger"
	"github.com/mindovermyth/sessionhub/pkg/metrics"
)

// Theme is the two-valued display preference.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Parse validates a raw preference string.
func Parse(raw string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(raw))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "theme must be light or dark")
}

// Service reads and writes the per-session theme preference.
type Service interface {
	Get(ctx context.Context, sessionID string) (Theme, error)
	Set(ctx context.Context, sessionID string, value Theme) error
}

type service struct {
	mirror  kv.Mirror
	events  *realtime.Publisher
	logg    *logger.Logger
	metrics *metrics.StateMetrics
}

// NewService builds the theme service.
func NewService(mirror kv.Mirror, events *realtime.Publisher, logg *logger.Logger, m *metrics.StateMetrics) (Service, error) {
	if mirror == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "key-value mirror required")
	}
	return &service{mirror: mirror, events: events, logg: logg, metrics: m}, nil
}

// Get returns the persisted preference, defaulting to light when absent or
// unreadable. An unknown stored value also falls back to the default rather
// than failing the read.
func (s *service) Get(ctx context.Context, sessionID string) (Theme, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	raw, err := s.mirror.Get(ctx, kv.ThemeKey(sessionID))
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) && s.logg != nil {
			s.logg.Error(s.logg.WithSessionID(ctx, sessionID), "theme mirror read failed; using default", err)
		}
		return Light, nil
	}

	parsed, err := Parse(raw)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithSessionID(ctx, sessionID), "unknown stored theme; using default")
		}
		return Light, nil
	}
	return parsed, nil
}

// Set persists the preference and broadcasts the change so every other
// mounted view of the session converges.
func (s *service) Set(ctx context.Context, sessionID string, value Theme) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if value != Light && value != Dark {
		return pkgerrors.New(pkgerrors.CodeValidation, "theme must be light or dark")
	}

	if err := s.mirror.Set(ctx, kv.ThemeKey(sessionID), string(value)); err != nil {
		s.metrics.IncMirrorWriteFailure("theme_set")
		if s.logg != nil {
			s.logg.Error(s.logg.WithSessionID(ctx, sessionID), "theme mirror write failed", err)
		}
	}

	if s.events != nil {
		s.events.Publish(ctx, sessionID, realtime.EventThemeChanged, map[string]string{"theme": string(value)})
	}
	return nil
}
