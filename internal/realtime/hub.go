package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/mindovermyth/sessionhub/pkg/kv"
	"github.com/mindovermyth/sessionhub/pkg/logger"
	"github.com/mindovermyth/sessionhub/pkg/metrics"
)

// Hub hands out per-session event subscriptions backed by the shared bus.
// Each attached stream holds exactly one bus subscription, established on
// attach and released on detach.
type Hub struct {
	bus     kv.Bus
	buffer  int
	logg    *logger.Logger
	metrics *metrics.StateMetrics
}

// NewHub wires the subscription hub. buffer bounds each subscriber's queue;
// subscribers that fall behind lose events rather than block the bus.
func NewHub(bus kv.Bus, buffer int, logg *logger.Logger, m *metrics.StateMetrics) (*Hub, error) {
	if bus == nil {
		return nil, fmt.Errorf("event bus required")
	}
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{bus: bus, buffer: buffer, logg: logg, metrics: m}, nil
}

// Subscribe attaches to the session's event channel. The returned cancel func
// must be called when the consumer goes away.
func (h *Hub) Subscribe(ctx context.Context, sessionID string) (<-chan Event, func(), error) {
	raw, cancelRaw, err := h.bus.Subscribe(ctx, kv.SessionChannel(sessionID), h.buffer)
	if err != nil {
		return nil, nil, fmt.Errorf("subscribe session %s: %w", sessionID, err)
	}

	out := make(chan Event, h.buffer)
	go func() {
		defer close(out)
		for payload := range raw {
			evt, err := DecodeEvent(payload)
			if err != nil {
				if h.logg != nil {
					h.logg.Warn(h.logg.WithSessionID(ctx, sessionID), "dropping malformed session event")
				}
				continue
			}
			select {
			case out <- evt:
			default:
			}
		}
	}()

	h.metrics.SubscriberAttached()
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			cancelRaw()
			h.metrics.SubscriberDetached()
		})
	}
	return out, cancel, nil
}
