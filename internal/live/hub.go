// Package live fans out change notifications for an event to open streams.
// A notification only names what changed; subscribers reload the current
// snapshot, so a burst of writes collapses into one pending signal per topic.
package live

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"donortrack/internal/infra"
)

// Topic names a part of an event's state.
type Topic string

const (
	TopicEvent     Topic = "event"
	TopicForm      Topic = "form"
	TopicDonations Topic = "donations"
)

// AllTopics lists every topic in stream order.
var AllTopics = []Topic{TopicEvent, TopicForm, TopicDonations}

// ParseTopics reads a comma separated topic list. Empty input means all.
func ParseTopics(raw string) ([]Topic, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AllTopics, nil
	}
	seen := make(map[Topic]bool)
	var out []Topic
	for _, part := range strings.Split(raw, ",") {
		t := Topic(strings.ToLower(strings.TrimSpace(part)))
		switch t {
		case TopicEvent, TopicForm, TopicDonations:
		default:
			return nil, fmt.Errorf("unknown topic %q", part)
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}

// Change says that topic of an event was written.
type Change struct {
	EventID string
	Topic   Topic
}

// Payload is the NOTIFY wire form "<event_id>:<topic>".
func (c Change) Payload() string {
	return c.EventID + ":" + string(c.Topic)
}

// ParseChange reverses Payload.
func ParseChange(payload string) (Change, error) {
	idx := strings.LastIndexByte(payload, ':')
	if idx <= 0 || idx == len(payload)-1 {
		return Change{}, fmt.Errorf("malformed change payload %q", payload)
	}
	c := Change{EventID: payload[:idx], Topic: Topic(payload[idx+1:])}
	switch c.Topic {
	case TopicEvent, TopicForm, TopicDonations:
		return c, nil
	default:
		return Change{}, fmt.Errorf("unknown topic in payload %q", payload)
	}
}

// Notifier announces writes. The hub itself is the single-process notifier.
type Notifier interface {
	Notify(ctx context.Context, c Change) error
}

// Subscription carries one signal channel per requested topic. Channels of
// topics that were not requested are nil. All channels close when the
// subscription context ends.
type Subscription struct {
	EventID   string
	Event     <-chan struct{}
	Form      <-chan struct{}
	Donations <-chan struct{}
}

type subscriber struct {
	channels map[Topic]chan struct{}
}

// Hub is an in-process broadcaster keyed by event id.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers interest in topics of eventID until ctx is done.
func (h *Hub) Subscribe(ctx context.Context, eventID string, topics ...Topic) *Subscription {
	if len(topics) == 0 {
		topics = AllTopics
	}
	s := &subscriber{channels: make(map[Topic]chan struct{}, len(topics))}
	sub := &Subscription{EventID: eventID}
	for _, t := range topics {
		ch := make(chan struct{}, 1)
		s.channels[t] = ch
		switch t {
		case TopicEvent:
			sub.Event = ch
		case TopicForm:
			sub.Form = ch
		case TopicDonations:
			sub.Donations = ch
		}
	}

	h.mu.Lock()
	set, ok := h.subs[eventID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[eventID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()
	infra.LiveSubscribers.Inc()

	go func() {
		<-ctx.Done()
		h.unsubscribe(eventID, s)
	}()
	return sub
}

func (h *Hub) unsubscribe(eventID string, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[eventID]
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, eventID)
	}
	for _, ch := range s.channels {
		close(ch)
	}
	infra.LiveSubscribers.Dec()
}

// Publish signals every subscriber of the change's event and topic. A
// subscriber that has not consumed its previous signal keeps just one.
func (h *Hub) Publish(c Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[c.EventID] {
		ch, ok := s.channels[c.Topic]
		if !ok {
			continue
		}
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// PublishAll signals every topic of every subscribed event. Used after a
// listener reconnect, when notifications may have been missed.
func (h *Hub) PublishAll() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	for _, id := range ids {
		for _, t := range AllTopics {
			h.Publish(Change{EventID: id, Topic: t})
		}
	}
}

// Subscribers returns the number of open subscriptions for eventID.
func (h *Hub) Subscribers(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[eventID])
}

// Notify implements Notifier by publishing in process.
func (h *Hub) Notify(_ context.Context, c Change) error {
	h.Publish(c)
	return nil
}

var _ Notifier = (*Hub)(nil)
