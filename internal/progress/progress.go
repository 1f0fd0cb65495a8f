// Package progress delivers analysis progress events to any number of subscribers.
package progress

import (
	"fmt"
	"sync"
)

// Event is a single progress update.
type Event struct {
	Percent      int `json:"percent"`       // Percent is always within [0,100].
	FilesChecked int `json:"files_checked"` // FilesChecked is the number of files the analyzer reported as done.
	TotalFiles   int `json:"total_files"`   // TotalFiles is the number of files passed to the analyzer.
}

// Handler is invoked for every emitted Event.
type Handler func(Event)

// Subscription identifies a registered Handler.
type Subscription uint64

type subscriber struct {
	id      Subscription
	handler Handler
}

// Notifier is an observer list safe for concurrent Emit, Subscribe and Unsubscribe.
// The zero value is ready to use.
type Notifier struct {
	mu          sync.Mutex
	nextID      Subscription
	subscribers []subscriber
}

// NewNotifier creates a Notifier without subscribers.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers h and returns a token for Unsubscribe.
func (n *Notifier) Subscribe(h Handler) Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.subscribers = append(n.subscribers, subscriber{id: n.nextID, handler: h})
	return n.nextID
}

// Unsubscribe removes the handler registered under s. Unknown tokens are ignored.
func (n *Notifier) Unsubscribe(s Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, sub := range n.subscribers {
		if sub.id == s {
			n.subscribers = append(n.subscribers[:i:i], n.subscribers[i+1:]...)
			return
		}
	}
}

// Emit delivers an Event to the subscribers registered at the time of the call.
// Handlers run without the lock held, so they may subscribe or unsubscribe.
// A percent outside [0,100] is a programming error and panics.
func (n *Notifier) Emit(percent, filesChecked, totalFiles int) {
	if percent < 0 || percent > 100 {
		panic(fmt.Sprintf("progress: percent %d is out of range [0,100]", percent))
	}

	n.mu.Lock()
	snapshot := make([]subscriber, len(n.subscribers))
	copy(snapshot, n.subscribers)
	n.mu.Unlock()

	ev := Event{Percent: percent, FilesChecked: filesChecked, TotalFiles: totalFiles}
	for _, sub := range snapshot {
		if sub.handler != nil {
			sub.handler(ev)
		}
	}
}

// Len reports the number of registered handlers.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subscribers)
}
