package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"donortrack/internal/domain"
	"donortrack/internal/live"
	"donortrack/internal/middleware"
)

// Stream serves Server-Sent Events for one event. Every frame carries the
// full current snapshot of its topic: a frame per requested topic on
// connect, then a fresh one after each change. The stream ends with an
// "expired" frame once the session token lapses.
func (a *App) Stream(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	caller := access(r)
	topics, err := live.ParseTopics(r.URL.Query().Get("topics"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if _, err := a.Service.GetEvent(r.Context(), caller, eventID); err != nil {
		a.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	// subscribe before the first snapshot so no change falls in between
	sub := a.Hub.Subscribe(ctx, eventID, topics...)
	a.Logger.Debug().Str("event_id", eventID).Int("subscribers", a.Hub.Subscribers(eventID)).Msg("stream opened")

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	for _, t := range topics {
		if !a.sendSnapshot(ctx, w, rc, caller, eventID, t) {
			return
		}
	}

	var expired <-chan time.Time
	if exp, ok := middleware.SessionExpiry(r.Context()); ok {
		timer := time.NewTimer(time.Until(exp))
		defer timer.Stop()
		expired = timer.C
	}

	keepAlive := time.NewTicker(a.KeepAlive)
	defer keepAlive.Stop()
	for {
		var topic live.Topic
		var ok bool
		select {
		case <-ctx.Done():
			return
		case <-expired:
			_ = writeFrame(w, "expired", map[string]string{"eventId": eventID})
			_ = rc.Flush()
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			_ = rc.Flush()
			continue
		case _, ok = <-sub.Event:
			topic = live.TopicEvent
		case _, ok = <-sub.Form:
			topic = live.TopicForm
		case _, ok = <-sub.Donations:
			topic = live.TopicDonations
		}
		if !ok || !a.sendSnapshot(ctx, w, rc, caller, eventID, topic) {
			return
		}
	}
}

// sendSnapshot writes one frame and reports whether the stream stays open.
func (a *App) sendSnapshot(ctx context.Context, w http.ResponseWriter, rc *http.ResponseController, caller domain.Access, eventID string, topic live.Topic) bool {
	payload, err := a.snapshot(ctx, caller, eventID, topic)
	if errors.Is(err, domain.ErrNotFound) {
		_ = writeFrame(w, "deleted", map[string]string{"eventId": eventID})
		_ = rc.Flush()
		return false
	}
	if err != nil {
		if ctx.Err() == nil {
			a.Logger.Warn().Err(err).Str("event_id", eventID).Str("topic", string(topic)).Msg("stream snapshot failed")
			_ = writeFrame(w, "error", map[string]string{"message": "snapshot unavailable"})
			_ = rc.Flush()
		}
		return false
	}
	if err := writeFrame(w, string(topic), payload); err != nil {
		return false
	}
	return rc.Flush() == nil
}

func (a *App) snapshot(ctx context.Context, caller domain.Access, eventID string, topic live.Topic) (any, error) {
	switch topic {
	case live.TopicEvent:
		ev, err := a.Service.GetEvent(ctx, caller, eventID)
		if err != nil {
			return nil, err
		}
		return toEventDTO(ev), nil
	case live.TopicForm:
		cfg, err := a.Service.Form(ctx, caller, eventID)
		if err != nil {
			return nil, err
		}
		return toFormDTO(cfg), nil
	case live.TopicDonations:
		items, err := a.Service.ListDonations(ctx, caller, eventID)
		if err != nil {
			return nil, err
		}
		return toDonationDTOs(items), nil
	default:
		return nil, fmt.Errorf("unknown topic %q", topic)
	}
}

func writeFrame(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
