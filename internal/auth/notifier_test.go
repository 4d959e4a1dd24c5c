package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"churchsite/internal/idp"
)

func TestNotifier_SubscribeUnsubscribe(t *testing.T) {
	var n Notifier
	var got []SessionEvent

	unsubscribe := n.OnSessionChange(func(c SessionChange) { got = append(got, c.Event) })
	n.Publish(SessionChange{Event: EventSignedIn, Principal: &idp.Principal{ID: "u"}})
	n.Publish(SessionChange{Event: EventTokenRefreshed})

	unsubscribe()
	unsubscribe()
	n.Publish(SessionChange{Event: EventSignedOut})

	assert.Equal(t, []SessionEvent{EventSignedIn, EventTokenRefreshed}, got)
}

func TestNotifier_CallbackMayUnsubscribe(t *testing.T) {
	var n Notifier
	calls := 0
	var unsubscribe func()
	unsubscribe = n.OnSessionChange(func(SessionChange) {
		calls++
		unsubscribe()
	})

	assert.NotPanics(t, func() {
		n.Publish(SessionChange{Event: EventSignedIn})
		n.Publish(SessionChange{Event: EventSignedIn})
	})
	assert.Equal(t, 1, calls)
}
