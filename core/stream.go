package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/types"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/observability"
)

const defaultEventHistoryLimit = 2048

// EventUpdate is one committed event with its position in the stream.
type EventUpdate struct {
	Sequence uint64
	Cursor   string
	Event    *types.Event
}

func cloneEventUpdate(update EventUpdate) EventUpdate {
	cloned := update
	cloned.Event = update.Event.Clone()
	return cloned
}

type eventStream struct {
	mu      sync.Mutex
	limit   int
	seq     uint64
	nextID  uint64
	history []EventUpdate
	subs    map[uint64]chan EventUpdate
}

func newEventStream(limit int) *eventStream {
	if limit <= 0 {
		limit = defaultEventHistoryLimit
	}
	return &eventStream{limit: limit, subs: make(map[uint64]chan EventUpdate)}
}

func (s *eventStream) publish(evt *types.Event) {
	if evt == nil {
		return
	}
	s.mu.Lock()
	s.seq++
	update := EventUpdate{
		Sequence: s.seq,
		Cursor:   strconv.FormatUint(s.seq, 10),
		Event:    evt.Clone(),
	}
	s.history = append(s.history, update)
	if len(s.history) > s.limit {
		excess := len(s.history) - s.limit
		trimmed := make([]EventUpdate, s.limit)
		copy(trimmed, s.history[excess:])
		s.history = trimmed
	}
	// Sends stay under s.mu so a concurrent cancel cannot close a channel
	// mid-send. They never block.
	for _, ch := range s.subs {
		select {
		case ch <- cloneEventUpdate(update):
		default:
			observability.Events().RecordDropped()
		}
	}
	s.mu.Unlock()
}

// SubscribeEvents registers a subscriber for committed events after the
// supplied cursor. The backlog holds retained history past the cursor; the
// channel carries everything published afterwards. Slow subscribers miss
// events rather than blocking commits.
func (n *Node) SubscribeEvents(ctx context.Context, cursor string) (<-chan EventUpdate, func(), []EventUpdate, error) {
	if n == nil || n.stream == nil {
		return nil, nil, nil, fmt.Errorf("node not initialised")
	}
	s := n.stream
	updates := make(chan EventUpdate, 32)

	var since uint64
	if trimmed := strings.TrimSpace(cursor); trimmed != "" {
		parsed, err := strconv.ParseUint(trimmed, 10, 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("invalid cursor %q", cursor)
		}
		since = parsed
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = updates
	backlog := make([]EventUpdate, 0, len(s.history))
	for _, entry := range s.history {
		if entry.Sequence > since {
			backlog = append(backlog, cloneEventUpdate(entry))
		}
	}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			sub, ok := s.subs[id]
			if ok {
				delete(s.subs, id)
				close(sub)
			}
			s.mu.Unlock()
		})
	}

	if ctx != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return updates, cancel, backlog, nil
}

// RecentEvents returns up to limit of the most recent retained events.
func (n *Node) RecentEvents(limit int) []EventUpdate {
	s := n.stream
	s.mu.Lock()
	defer s.mu.Unlock()
	start := 0
	if limit > 0 && len(s.history) > limit {
		start = len(s.history) - limit
	}
	out := make([]EventUpdate, 0, len(s.history)-start)
	for _, entry := range s.history[start:] {
		out = append(out, cloneEventUpdate(entry))
	}
	return out
}
