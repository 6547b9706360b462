package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mindovermyth/sessionhub/pkg/kv"
	"github.com/mindovermyth/sessionhub/pkg/logger"
	"github.com/mindovermyth/sessionhub/pkg/metrics"
)

// Publisher pushes session events onto the bus. Publishing is a non-critical
// side effect: failures are logged and counted, never returned to the caller.
type Publisher struct {
	bus     kv.Bus
	logg    *logger.Logger
	metrics *metrics.StateMetrics
}

// NewPublisher wires the session event publisher.
func NewPublisher(bus kv.Bus, logg *logger.Logger, m *metrics.StateMetrics) (*Publisher, error) {
	if bus == nil {
		return nil, fmt.Errorf("event bus required")
	}
	return &Publisher{bus: bus, logg: logg, metrics: m}, nil
}

// Publish emits an event of the given type for the session. The payload may
// be nil; non-nil payloads are serialized as the event body.
func (p *Publisher) Publish(ctx context.Context, sessionID, eventType string, payload any) {
	if p == nil {
		return
	}

	evt := Event{Type: eventType, SessionID: sessionID}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			p.logFailure(ctx, sessionID, eventType, err)
			return
		}
		evt.Payload = raw
	}

	encoded, err := evt.Encode()
	if err != nil {
		p.logFailure(ctx, sessionID, eventType, err)
		return
	}

	if err := p.bus.Publish(ctx, kv.SessionChannel(sessionID), encoded); err != nil {
		p.logFailure(ctx, sessionID, eventType, err)
	}
}

func (p *Publisher) logFailure(ctx context.Context, sessionID, eventType string, err error) {
	p.metrics.IncEventPublishFailure(eventType)
	if p.logg == nil {
		return
	}
	logCtx := p.logg.WithFields(ctx, map[string]any{
		"session_id": sessionID,
		"event_type": eventType,
	})
	p.logg.Error(logCtx, "session event publish failed", err)
}
