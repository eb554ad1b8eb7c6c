package api

import (
	"sync"
)

// Event is one progress message on a run's feed: solve lifecycle and
// per-cooling-step snapshots.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Event types published on run feeds.
const (
	EventSolveStarted   = "solve.started"
	EventSolveProgress  = "solve.progress"
	EventSolveCompleted = "solve.completed"
	EventSolveFailed    = "solve.failed"
)

// EventBroker fans run progress events out to subscribers. Publishing never
// blocks the solve goroutine; slow subscribers drop events.
type EventBroker interface {
	Subscribe(runID string) chan Event
	Unsubscribe(runID string, ch chan Event)
	Publish(runID string, evt Event)
}

// Broker is the in-process EventBroker.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{} // runID -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *Broker) Subscribe(runID string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[runID] == nil {
		b.subs[runID] = map[chan Event]struct{}{}
	}
	b.subs[runID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(runID string, ch chan Event) {
	b.mu.Lock()
	if m := b.subs[runID]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, runID)
		}
	}
	b.mu.Unlock()
	close(ch)
}

func (b *Broker) Publish(runID string, evt Event) {
	b.mu.Lock()
	for ch := range b.subs[runID] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
