// Package playback owns the single "now playing" slot for each session. The
// slot tracks which track is surfaced, not transport state; pause and resume
// live entirely in the player client.
package playback

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mindovermyth/sessionhub/internal/realtime"
	"github.com/mindovermyth/sessionhub/internal/usage"
	pkgerrors "github.com/mindovermyth/sessionhub/pkg/errors"
	"github.com/mindovermyth/sessionhub/pkg/kv"
	"github.com/mindovermyth/sessionhub/pkg/logger"
	"github.com/mindovermyth/sessionhub/pkg/metrics"
)

const slotVersion = 1

// Track is the metadata snapshot captured when play is invoked.
type Track struct {
	ContentID string `json:"content_id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	SourceURL string `json:"source_url"`
	CoverURL  string `json:"cover_url"`
}

// State is the current slot. When Playing is false the track carries no
// meaning and is zero.
type State struct {
	Playing bool  `json:"playing"`
	Track   Track `json:"track"`
}

type slotEnvelope struct {
	Version int   `json:"version"`
	Track   Track `json:"track"`
}

// Service coordinates the per-session now-playing slot.
type Service interface {
	// Play replaces the slot with the given track and dispatches the usage
	// notification. A track without a source URL is a no-op: the second
	// return is false and the previous slot is returned untouched.
	Play(ctx context.Context, sessionID string, track Track) (State, bool, error)
	Stop(ctx context.Context, sessionID string) (State, error)
	Current(ctx context.Context, sessionID string) (State, error)
}

type service struct {
	mirror   kv.Mirror
	recorder usage.Recorder
	events   *realtime.Publisher
	logg     *logger.Logger
	metrics  *metrics.StateMetrics
}

// NewService builds the playback coordinator. Recorder, events and metrics
// may be nil; the mirror is required.
func NewService(mirror kv.Mirror, recorder usage.Recorder, events *realtime.Publisher, logg *logger.Logger, m *metrics.StateMetrics) (Service, error) {
	if mirror == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "key-value mirror required")
	}
	return &service{mirror: mirror, recorder: recorder, events: events, logg: logg, metrics: m}, nil
}

func (s *service) Play(ctx context.Context, sessionID string, track Track) (State, bool, error) {
	if err := requireSession(sessionID); err != nil {
		return State{}, false, err
	}
	if strings.TrimSpace(track.SourceURL) == "" {
		// Nothing stored, nothing sent; the previous slot stands.
		return s.load(ctx, sessionID), false, nil
	}

	state := State{Playing: true, Track: track}
	s.persist(ctx, sessionID, state, "playback_play")
	s.publish(ctx, sessionID, state)
	s.notifyUsage(ctx, sessionID, track.ContentID)
	return state, true, nil
}

func (s *service) Stop(ctx context.Context, sessionID string) (State, error) {
	if err := requireSession(sessionID); err != nil {
		return State{}, err
	}

	state := State{}
	s.persist(ctx, sessionID, state, "playback_stop")
	s.publish(ctx, sessionID, state)
	return state, nil
}

// Current loads the slot. Absent or corrupt persisted state yields an idle
// slot, never an error.
func (s *service) Current(ctx context.Context, sessionID string) (State, error) {
	if err := requireSession(sessionID); err != nil {
		return State{}, err
	}
	return s.load(ctx, sessionID), nil
}

func (s *service) load(ctx context.Context, sessionID string) State {
	raw, err := s.mirror.Get(ctx, kv.PlaybackKey(sessionID))
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) && s.logg != nil {
			s.logg.Error(s.logg.WithSessionID(ctx, sessionID), "playback mirror read failed; treating as idle", err)
		}
		return State{}
	}

	var envelope slotEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil || envelope.Version != slotVersion {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithSessionID(ctx, sessionID), "corrupt playback slot discarded")
		}
		return State{}
	}
	if strings.TrimSpace(envelope.Track.SourceURL) == "" {
		return State{}
	}
	return State{Playing: true, Track: envelope.Track}
}

func (s *service) persist(ctx context.Context, sessionID string, state State, op string) {
	if !state.Playing {
		if err := s.mirror.Delete(ctx, kv.PlaybackKey(sessionID)); err != nil {
			s.recordWriteFailure(ctx, sessionID, op, err)
		}
		return
	}

	encoded, err := json.Marshal(slotEnvelope{Version: slotVersion, Track: state.Track})
	if err != nil {
		s.recordWriteFailure(ctx, sessionID, op, err)
		return
	}
	if err := s.mirror.Set(ctx, kv.PlaybackKey(sessionID), string(encoded)); err != nil {
		s.recordWriteFailure(ctx, sessionID, op, err)
	}
}

func (s *service) recordWriteFailure(ctx context.Context, sessionID, op string, err error) {
	s.metrics.IncMirrorWriteFailure(op)
	if s.logg != nil {
		s.logg.Error(s.logg.WithSessionID(ctx, sessionID), "playback mirror write failed", err)
	}
}

func (s *service) publish(ctx context.Context, sessionID string, state State) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, sessionID, realtime.EventPlaybackChanged, state)
}

// notifyUsage dispatches the listen notification on a detached goroutine so
// the caller never waits on the backend. The detached context keeps the log
// fields but drops the request's cancellation.
func (s *service) notifyUsage(ctx context.Context, sessionID, contentID string) {
	if s.recorder == nil || strings.TrimSpace(contentID) == "" {
		return
	}
	detached := context.WithoutCancel(ctx)
	if s.logg != nil {
		detached = s.logg.WithSessionID(detached, sessionID)
	}
	go s.recorder.Record(detached, contentID)
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return nil
}
