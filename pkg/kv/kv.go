// Package kv provides the key-value mirror that keeps per-session state
// durable across reloads, plus the event bus used to converge independently
// mounted views of the same session.
package kv

import (
	"context"
	"errors"
	"strings"
)

const (
	keyNamespace   = "mom"
	cartPrefix     = "cart"
	themePrefix    = "theme"
	playbackPrefix = "playback"
	eventsPrefix   = "events"
)

// ErrNotFound is returned by Mirror.Get when no value is stored at the key.
var ErrNotFound = errors.New("kv: key not found")

// Mirror is the persisted key-value store backing session state. Writes are
// full-value replacements; there is no partial update surface.
type Mirror interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Bus carries fire-and-forget session events between publishers and any
// number of subscribers. Delivery is best-effort: slow subscribers drop
// messages rather than block publishers.
type Bus interface {
	Publish(ctx context.Context, channel, payload string) error
	Subscribe(ctx context.Context, channel string, buffer int) (<-chan string, func(), error)
}

// CartKey returns the mirror key holding a session's cart snapshot.
func CartKey(sessionID string) string {
	return buildKey(cartPrefix, sessionID)
}

// ThemeKey returns the mirror key holding a session's theme preference.
func ThemeKey(sessionID string) string {
	return buildKey(themePrefix, sessionID)
}

// PlaybackKey returns the mirror key holding a session's now-playing slot.
func PlaybackKey(sessionID string) string {
	return buildKey(playbackPrefix, sessionID)
}

// SessionChannel returns the bus channel carrying a session's events.
func SessionChannel(sessionID string) string {
	return buildKey(eventsPrefix, sessionID)
}

func buildKey(parts ...string) string {
	if len(parts) == 0 {
		return keyNamespace
	}
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part == "" {
			continue
		}
		clean = append(clean, strings.TrimSpace(part))
	}
	return strings.Join(clean, ":")
}
