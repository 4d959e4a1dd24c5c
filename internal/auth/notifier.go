package auth

import (
	"sync"

	"churchsite/internal/idp"
)

// SessionEvent names a session lifecycle change.
type SessionEvent string

const (
	EventSignedIn       SessionEvent = "signed_in"
	EventTokenRefreshed SessionEvent = "token_refreshed"
	EventSignedOut      SessionEvent = "signed_out"
)

// SessionChange is delivered to subscribers. Principal is nil on sign-out.
type SessionChange struct {
	Event     SessionEvent
	Principal *idp.Principal
}

// Notifier fans session changes out to subscribers.
type Notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]func(SessionChange)
}

// OnSessionChange registers fn and returns a function that removes it.
// The returned function may be called more than once.
func (n *Notifier) OnSessionChange(fn func(SessionChange)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs == nil {
		n.subs = make(map[int]func(SessionChange))
	}
	id := n.next
	n.next++
	n.subs[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Publish delivers change to every current subscriber. Callbacks run outside
// the lock so they may unsubscribe.
func (n *Notifier) Publish(change SessionChange) {
	n.mu.Lock()
	subs := make([]func(SessionChange), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(change)
	}
}
