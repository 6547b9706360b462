package realtime

import "encoding/json"

// Event types carried on the session event bus. The first three originate in
// this service; the platform backend emits the rest through Pub/Sub.
const (
	EventThemeChanged     = "theme_changed"
	EventCartUpdated      = "cart_updated"
	EventPlaybackChanged  = "playback_changed"
	EventNewMessage       = "new_message"
	EventNewFeedbackReply = "new_feedback_reply"
)

// Event is one fire-and-forget notification delivered to every attached view
// of a session. No ordering or delivery guarantee is made beyond "best effort
// within one live connection".
type Event struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Encode serializes the event for the bus.
func (e Event) Encode() (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeEvent parses a bus payload back into an Event.
func DecodeEvent(raw string) (Event, error) {
	var evt Event
	if err := json.Unmarshal([]byte(raw), &evt); err != nil {
		return Event{}, err
	}
	return evt, nil
}
