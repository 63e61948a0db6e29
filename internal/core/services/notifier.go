package services

import (
	"sync"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

// notifyBuffer is the per-subscriber channel capacity.
const notifyBuffer = 64

// Broadcaster fans notifications out to subscribers. Sends never block:
// a subscriber whose buffer is full misses the notification.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan domain.Notification
	closed bool
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan domain.Notification)}
}

// Subscribe returns a notification channel and a function that cancels the
// subscription and closes the channel.
func (b *Broadcaster) Subscribe() (<-chan domain.Notification, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.Notification, notifyBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers n to every subscriber without blocking.
func (b *Broadcaster) Publish(n domain.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later subscriptions get a closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
