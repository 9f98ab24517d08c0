package notify

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultQueue = 16

// Hub fans published events out to subscribers. Publication never blocks:
// a subscriber whose queue is full loses the event and its drop counter
// grows.
type Hub struct {
	queue int

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	latest Event
	has    bool

	dropped atomic.Uint64
}

// NewHub creates a hub whose subscribers buffer queue events each.
func NewHub(queue int) *Hub {
	if queue <= 0 {
		queue = defaultQueue
	}
	return &Hub{queue: queue, subs: make(map[*Subscription]struct{})}
}

// Subscription receives the events of its tags, or every event when it was
// created without tags.
type Subscription struct {
	hub     *Hub
	tags    map[string]struct{}
	ch      chan Event
	once    sync.Once
	dropped atomic.Uint64
}

// Subscribe registers a subscriber. Call Close when done.
func (h *Hub) Subscribe(tags ...string) *Subscription {
	s := &Subscription{hub: h, ch: make(chan Event, h.queue)}
	if len(tags) > 0 {
		s.tags = make(map[string]struct{}, len(tags))
		for _, t := range tags {
			s.tags[t] = struct{}{}
		}
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// C is the delivery channel. It is closed by Close.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Next waits for the next event or the end of ctx.
func (s *Subscription) Next(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case ev, ok := <-s.ch:
		if !ok {
			return Event{}, context.Canceled
		}
		return ev, nil
	}
}

// Dropped reports how many events this subscriber missed.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close unregisters the subscriber and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.ch)
		s.hub.mu.Unlock()
	})
}

func (s *Subscription) wants(tag string) bool {
	if s.tags == nil {
		return true
	}
	_, ok := s.tags[tag]
	return ok
}

// Publish delivers ev to every matching subscriber and records it as the
// latest event.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = ev
	h.has = true
	for s := range h.subs {
		if !s.wants(ev.Tag) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			s.dropped.Add(1)
			h.dropped.Add(1)
		}
	}
}

// Latest returns the most recently published event.
func (h *Hub) Latest() (Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest, h.has
}

// Dropped reports the events lost across all subscribers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Await returns the first event with one of tags published after the call.
func (h *Hub) Await(ctx context.Context, tags ...string) (Event, error) {
	sub := h.Subscribe(tags...)
	defer sub.Close()
	return sub.Next(ctx)
}
