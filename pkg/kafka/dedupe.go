package kafka

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"
)

// SeenSet remembers recently handled event IDs. It is bounded both by entry
// count and by age, and is safe for concurrent use.
type SeenSet struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	order    *list.List // front is newest
	index    map[string]*list.Element
	now      func() time.Time
}

type seenEntry struct {
	id   string
	seen time.Time
}

// NewSeenSet creates a set holding at most capacity IDs for at most ttl.
func NewSeenSet(capacity int, ttl time.Duration) *SeenSet {
	if capacity <= 0 {
		capacity = 1024
	}
	return &SeenSet{
		ttl:      ttl,
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
		now:      time.Now,
	}
}

// Seen reports whether id has been recorded and not yet expired.
func (s *SeenSet) Seen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.index[id]
	if !ok {
		return false
	}
	if s.now().Sub(el.Value.(seenEntry).seen) > s.ttl {
		s.order.Remove(el)
		delete(s.index, id)
		return false
	}
	return true
}

// Record marks id as handled, evicting the oldest entry when full.
func (s *SeenSet) Record(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.index[id]; ok {
		el.Value = seenEntry{id: id, seen: s.now()}
		s.order.MoveToFront(el)
		return
	}
	s.index[id] = s.order.PushFront(seenEntry{id: id, seen: s.now()})

	for s.order.Len() > s.capacity {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.index, oldest.Value.(seenEntry).id)
	}
}

// Len returns the number of tracked IDs, including expired ones not yet swept.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// Dedupe drops events whose ID is still in seen. An ID is recorded only
// once inner succeeds, so a failed event stays eligible for redelivery.
// Events without an ID always reach inner.
func Dedupe(seen *SeenSet, topic, group string, inner Handler, logger *slog.Logger) Handler {
	return func(ctx context.Context, e *Event) error {
		if e.ID != "" && seen.Seen(e.ID) {
			consumed.WithLabelValues(topic, group, outcomeDuplicate).Inc()
			logger.DebugContext(ctx, "duplicate event skipped",
				slog.String("event_id", e.ID),
				slog.String("event_type", e.Type),
			)
			return nil
		}
		if err := inner(ctx, e); err != nil {
			return err
		}
		if e.ID != "" {
			seen.Record(e.ID)
		}
		return nil
	}
}
