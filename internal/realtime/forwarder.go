package realtime

import (
	"context"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/mindovermyth/sessionhub/pkg/kv"
	"github.com/mindovermyth/sessionhub/pkg/logger"
)

var forwardedEventTypes = map[string]struct{}{
	EventNewMessage:       {},
	EventNewFeedbackReply: {},
}

// Forwarder republishes platform events from Pub/Sub onto the session event
// bus so API instances can fan them out to attached streams. Messages are
// acked unconditionally: the channel is fire-and-forget end to end.
type Forwarder struct {
	subscription *pubsub.Subscriber
	bus          kv.Bus
	logg         *logger.Logger
}

// NewForwarder builds the platform event forwarder.
func NewForwarder(subscription *pubsub.Subscriber, bus kv.Bus, logg *logger.Logger) (*Forwarder, error) {
	if subscription == nil {
		return nil, fmt.Errorf("events subscription required")
	}
	if bus == nil {
		return nil, fmt.Errorf("event bus required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Forwarder{
		subscription: subscription,
		bus:          bus,
		logg:         logg,
	}, nil
}

// Run starts the forwarding loop until the context is canceled.
func (f *Forwarder) Run(ctx context.Context) error {
	return f.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		f.process(ctx, msg)
		msg.Ack()
	})
}

func (f *Forwarder) process(ctx context.Context, msg *pubsub.Message) {
	logCtx := f.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": msg.Attributes["event_type"],
	})

	evt, err := DecodeEvent(string(msg.Data))
	if err != nil {
		f.logg.Error(logCtx, "failed to decode platform event", err)
		return
	}

	if _, ok := forwardedEventTypes[evt.Type]; !ok {
		f.logg.Info(logCtx, "skipping unhandled platform event")
		return
	}
	if strings.TrimSpace(evt.SessionID) == "" {
		f.logg.Warn(logCtx, "platform event missing session id")
		return
	}

	encoded, err := evt.Encode()
	if err != nil {
		f.logg.Error(logCtx, "failed to re-encode platform event", err)
		return
	}

	if err := f.bus.Publish(ctx, kv.SessionChannel(evt.SessionID), encoded); err != nil {
		f.logg.Error(logCtx, "failed to forward platform event", err)
	}
}
