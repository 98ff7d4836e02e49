package events_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_PublishReachesOnlyTheUsersClients(t *testing.T) {
	hub := events.NewHub(zap.NewNop())
	alice, bob := uuid.New(), uuid.New()

	a1 := hub.Subscribe(alice)
	a2 := hub.Subscribe(alice)
	b := hub.Subscribe(bob)
	assert.Equal(t, 3, hub.Count())

	hub.Publish(events.AuthEvent{Type: events.SignedIn, UserID: alice})

	for _, c := range []*events.Client{a1, a2} {
		select {
		case ev := <-c.Events:
			assert.Equal(t, events.SignedIn, ev.Type)
			assert.False(t, ev.At.IsZero())
		default:
			t.Fatalf("client %s got no event", c.ID)
		}
	}
	assert.Len(t, b.Events, 0)
}

func TestHub_FullBufferDropsEvents(t *testing.T) {
	hub := events.NewHub(zap.NewNop())
	user := uuid.New()
	c := hub.Subscribe(user)

	for i := 0; i < events.ClientBufferSize+10; i++ {
		hub.Publish(events.AuthEvent{Type: events.TokenRefreshed, UserID: user})
	}

	assert.Len(t, c.Events, events.ClientBufferSize)
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := events.NewHub(zap.NewNop())
	c := hub.Subscribe(uuid.New())

	hub.Unsubscribe(c.ID)
	hub.Unsubscribe(c.ID)

	_, ok := <-c.Events
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Count())
}

func TestAuthEvent_Data(t *testing.T) {
	user, session := uuid.New(), uuid.New()
	ev := events.AuthEvent{Type: events.SignedOut, UserID: user, SessionID: session}

	data := ev.Data()

	require.Contains(t, data, `"event":"SIGNED_OUT"`)
	assert.Contains(t, data, session.String())
}

func TestHub_CloseEndsEverySubscription(t *testing.T) {
	hub := events.NewHub(zap.NewNop())
	c := hub.Subscribe(uuid.New())

	hub.Close()
	assert.Zero(t, hub.Count())

	_, ok := <-c.Events
	assert.False(t, ok)

	// Unsubscribing after Close must not close the channel twice
	assert.NotPanics(t, func() { hub.Unsubscribe(c.ID) })
}

func TestHub_SubscribeAfterClose(t *testing.T) {
	hub := events.NewHub(zap.NewNop())
	hub.Close()

	user := uuid.New()
	c := hub.Subscribe(user)
	require.NotNil(t, c)
	assert.Zero(t, hub.Count())

	_, ok := <-c.Events
	assert.False(t, ok)

	assert.NotPanics(t, func() {
		hub.Publish(events.AuthEvent{Type: events.SignedOut, UserID: user})
		hub.Unsubscribe(c.ID)
		hub.Close()
	})
}
