package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/events"
)

func newTestHub() *Hub {
	return NewHub(zap.NewNop(), nil, "test:events")
}

func drain(t *testing.T, client *Client) Envelope {
	t.Helper()
	select {
	case payload := <-client.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(payload, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Envelope{}
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := newTestHub()
	a := hub.Register(nil)
	b := hub.Register(&domain.User{AccountName: "jdoe"})
	defer hub.Unregister(a)
	defer hub.Unregister(b)

	hub.Broadcast(context.Background(), "ticket.created", map[string]any{"id": 1})

	for _, client := range []*Client{a, b} {
		env := drain(t, client)
		assert.Equal(t, "ticket.created", env.Type)
	}
}

func TestUnregisteredClientReceivesNothing(t *testing.T) {
	hub := newTestHub()
	client := hub.Register(nil)
	hub.Unregister(client)

	hub.Broadcast(context.Background(), "ticket.updated", nil)

	_, open := <-client.send
	assert.False(t, open)
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestUnregisterTwiceIsSafe(t *testing.T) {
	hub := newTestHub()
	client := hub.Register(nil)
	hub.Unregister(client)
	hub.Unregister(client)
}

func TestSlowConsumerDoesNotBlockBroadcast(t *testing.T) {
	hub := newTestHub()
	slow := hub.Register(nil)
	defer hub.Unregister(slow)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < sendBuffer*3; i++ {
			hub.Broadcast(context.Background(), "chat.message", i)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow consumer")
	}
}

func TestConcurrentRegisterBroadcastUnregister(t *testing.T) {
	hub := newTestHub()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			client := hub.Register(nil)
			go func() {
				for range client.send {
				}
			}()
			hub.Unregister(client)
		}()
		go func() {
			defer wg.Done()
			hub.Broadcast(context.Background(), "ticket.updated", nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestRelayChatOverridesClaimedName(t *testing.T) {
	hub := newTestHub()
	sender := hub.Register(&domain.User{AccountName: "jdoe"})
	listener := hub.Register(nil)
	defer hub.Unregister(sender)
	defer hub.Unregister(listener)

	hub.relayChat(sender, ChatMessage{Text: "hello", User: "Impostor"})

	for _, client := range []*Client{sender, listener} {
		env := drain(t, client)
		assert.Equal(t, "chat.message", env.Type)

		raw, err := json.Marshal(env.Data)
		require.NoError(t, err)
		var msg ChatMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "jdoe", msg.User)
		assert.Equal(t, "hello", msg.Text)
		assert.NotEmpty(t, msg.ID)
		assert.False(t, msg.Ts.IsZero())
	}
}

func TestRelayChatAnonymousFallback(t *testing.T) {
	hub := newTestHub()
	sender := hub.Register(nil)
	defer hub.Unregister(sender)

	hub.relayChat(sender, ChatMessage{Text: "hi"})

	env := drain(t, sender)
	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var msg ChatMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "Anonymous", msg.User)
}

func TestEventHandlersRelayTicketNotifications(t *testing.T) {
	hub := newTestHub()
	dispatcher := events.NewInMemoryDispatcher()
	hub.RegisterEventHandlers(dispatcher)

	client := hub.Register(nil)
	defer hub.Unregister(client)

	ticket := &domain.Ticket{ID: 7, Title: "Printer down", Status: domain.TicketStatusOpen}
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventTicketCreated,
		Payload: ticket,
	}))

	env := drain(t, client)
	assert.Equal(t, "ticket.created", env.Type)

	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, float64(7), payload["id"])
	assert.Equal(t, "Printer down", payload["title"])
}
