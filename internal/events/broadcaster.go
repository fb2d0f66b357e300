package events

import (
	"sync"
)

// subscriberBuffer bounds how far a live subscriber may fall behind. A
// subscriber that stops draining loses events instead of stalling the
// engine; stream consumers recover gaps by replaying stored events.
const subscriberBuffer = 64

// Broadcaster fans live events out to per-thread subscribers. It
// implements Sink so it can sit directly on the engine's event path.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[string]map[int]chan Event
	nextID int
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[string]map[int]chan Event),
	}
}

// Emit implements Sink. Sends never block: a full subscriber channel drops
// the event for that subscriber only.
func (b *Broadcaster) Emit(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[event.ThreadID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a live listener for one thread. The returned cancel
// function is idempotent and closes the channel.
func (b *Broadcaster) Subscribe(threadID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[threadID] == nil {
		b.subs[threadID] = make(map[int]chan Event)
	}

	id := b.nextID
	b.nextID++

	ch := make(chan Event, subscriberBuffer)
	b.subs[threadID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if subs, ok := b.subs[threadID]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(b.subs, threadID)
				}
			}
			close(ch)
		})
	}

	return ch, cancel
}

// SubscriberCount reports how many live listeners a thread has.
func (b *Broadcaster) SubscriberCount(threadID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[threadID])
}
