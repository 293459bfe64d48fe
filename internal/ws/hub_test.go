package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeAdmits(t *testing.T) {
	tests := []struct {
		name   string
		client Scope
		event  Scope
		want   bool
	}{
		{"unscoped client receives everything", Scope{}, Scope{GreenhouseID: "gh1", ZoneID: "z7"}, true},
		{"global event reaches scoped client", Scope{GreenhouseID: "gh1"}, Scope{}, true},
		{"matching greenhouse", Scope{GreenhouseID: "gh1"}, Scope{GreenhouseID: "gh1", ZoneID: "z7"}, true},
		{"other greenhouse filtered", Scope{GreenhouseID: "gh1"}, Scope{GreenhouseID: "gh2"}, false},
		{"other zone filtered", Scope{GreenhouseID: "gh1", ZoneID: "z7"}, Scope{GreenhouseID: "gh1", ZoneID: "z8"}, false},
		{"matching zone", Scope{ZoneID: "z7"}, Scope{GreenhouseID: "gh1", ZoneID: "z7"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.client.Admits(tt.event))
		})
	}
}

func recvMessage(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg, true
	case <-time.After(200 * time.Millisecond):
		return Message{}, false
	}
}

func TestHubBroadcastScopeFiltering(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	zoneClient := NewClient(hub, nil)
	zoneClient.setScope(Scope{GreenhouseID: "gh1", ZoneID: "z7"})
	adminClient := NewClient(hub, nil)

	hub.register <- zoneClient
	hub.register <- adminClient
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(Scope{GreenhouseID: "gh1", ZoneID: "z7"}, MessageTypeReading, map[string]any{"value": 21.5})

	msg, ok := recvMessage(t, zoneClient)
	require.True(t, ok, "zone client should receive its zone's reading")
	assert.Equal(t, MessageTypeReading, msg.Type)

	msg, ok = recvMessage(t, adminClient)
	require.True(t, ok, "unscoped client receives everything")
	assert.Equal(t, MessageTypeReading, msg.Type)

	hub.Broadcast(Scope{GreenhouseID: "gh1", ZoneID: "z8"}, MessageTypeReading, map[string]any{"value": 30.0})

	_, ok = recvMessage(t, zoneClient)
	assert.False(t, ok, "zone client must not see another zone's reading")
	_, ok = recvMessage(t, adminClient)
	assert.True(t, ok)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := NewClient(hub, nil)
	hub.register <- c
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.unregister <- c
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)

	_, open := <-c.send
	assert.False(t, open, "send channel closed on unregister")
}

func TestBroadcastDropsWhenQueueFull(t *testing.T) {
	// no Run loop draining: Broadcast must never block the producer
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 300; i++ {
			hub.Broadcast(Scope{}, MessageTypeReading, i)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a full queue")
	}
	assert.Equal(t, cap(hub.broadcast), len(hub.broadcast), "overflow dropped, queue at capacity")
}

func TestDetachAfterShutdownDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	c := NewClient(hub, nil)
	hub.register <- c
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case <-hub.done:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.detach()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("detach blocked after hub shutdown")
	}
}
