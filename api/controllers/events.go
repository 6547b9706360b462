package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mindovermyth/sessionhub/api/middleware"
	"github.com/mindovermyth/sessionhub/api/responses"
	"github.com/mindovermyth/sessionhub/internal/realtime"
	pkgerrors "github.com/mindovermyth/sessionhub/pkg/errors"
	"github.com/mindovermyth/sessionhub/pkg/logger"
)

const keepAliveInterval = 25 * time.Second

// Events streams the session's realtime events over SSE. The stream stays
// open until the client disconnects; a periodic comment line keeps idle
// connections alive through proxies.
func Events(hub *realtime.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event hub unavailable"))
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		ctx := r.Context()
		sessionID := middleware.SessionIDFromContext(ctx)

		events, cancel, err := hub.Subscribe(ctx, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "event subscription failed"))
			return
		}
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		if logg != nil {
			logg.Info(ctx, "event stream attached")
		}

		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				flusher.Flush()
			case evt, open := <-events:
				if !open {
					return
				}
				writeEvent(w, evt)
				flusher.Flush()
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, evt realtime.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
}
