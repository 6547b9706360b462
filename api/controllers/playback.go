package controllers

import (
	"net/http"

	"github.com/mindovermyth/sessionhub/api/middleware"
	"github.com/mindovermyth/sessionhub/api/responses"
	"github.com/mindovermyth/sessionhub/api/validators"
	playbacksvc "github.com/mindovermyth/sessionhub/internal/playback"
	pkgerrors "github.com/mindovermyth/sessionhub/pkg/errors"
	"github.com/mindovermyth/sessionhub/pkg/logger"
)

// PlaybackCurrent returns the now-playing slot, which may be idle.
func PlaybackCurrent(svc playbacksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "playback service unavailable"))
			return
		}

		state, err := svc.Current(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPlaybackResponse(state, true))
	}
}

// PlaybackPlay replaces the slot with the submitted track. Tracks without a
// source URL are accepted but change nothing; the response carries the
// accepted flag so clients can tell a no-op from a replacement.
func PlaybackPlay(svc playbacksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "playback service unavailable"))
			return
		}

		var payload playRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, accepted, err := svc.Play(r.Context(), middleware.SessionIDFromContext(r.Context()), playbacksvc.Track{
			ContentID: payload.ContentID,
			Title:     payload.Title,
			Author:    payload.Author,
			SourceURL: payload.SourceURL,
			CoverURL:  payload.CoverURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPlaybackResponse(state, accepted))
	}
}

// PlaybackStop clears the slot.
func PlaybackStop(svc playbacksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "playback service unavailable"))
			return
		}

		state, err := svc.Stop(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPlaybackResponse(state, true))
	}
}

type playRequest struct {
	ContentID string `json:"content_id" validate:"required"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	SourceURL string `json:"source_url"`
	CoverURL  string `json:"cover_url"`
}

type trackResponse struct {
	ContentID string `json:"content_id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	SourceURL string `json:"source_url"`
	CoverURL  string `json:"cover_url,omitempty"`
}

type playbackResponse struct {
	Playing  bool           `json:"playing"`
	Accepted bool           `json:"accepted"`
	Track    *trackResponse `json:"track,omitempty"`
}

func newPlaybackResponse(state playbacksvc.State, accepted bool) playbackResponse {
	resp := playbackResponse{Playing: state.Playing, Accepted: accepted}
	if state.Playing {
		resp.Track = &trackResponse{
			ContentID: state.Track.ContentID,
			Title:     state.Track.Title,
			Author:    state.Track.Author,
			SourceURL: state.Track.SourceURL,
			CoverURL:  state.Track.CoverURL,
		}
	}
	return resp
}
