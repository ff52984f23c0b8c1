package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastToUserReachesOnlyThatUser(t *testing.T) {
	hub := NewHub()
	a := &Client{UserID: 1, Send: make(chan []byte, 1)}
	b := &Client{UserID: 2, Send: make(chan []byte, 1)}
	hub.Register(a)
	hub.Register(b)

	hub.BroadcastToUser(1, map[string]string{"type": "PAYOUT_RECEIVED"})

	require.Len(t, a.Send, 1)
	assert.Len(t, b.Send, 0)
	var got map[string]string
	require.NoError(t, json.Unmarshal(<-a.Send, &got))
	assert.Equal(t, "PAYOUT_RECEIVED", got["type"])
}

func TestClosedClientIsUnregistered(t *testing.T) {
	hub := NewHub()
	c := &Client{UserID: 7, Send: make(chan []byte, 1)}
	hub.Register(c)
	assert.Equal(t, 1, hub.ClientCount(7))

	c.Close()
	c.Close()
	assert.Equal(t, 0, hub.ClientCount(7))

	// must not panic on the closed channel
	hub.BroadcastToUser(7, "x")
}

func TestFullBufferDropsMessage(t *testing.T) {
	hub := NewHub()
	c := &Client{UserID: 3, Send: make(chan []byte, 1)}
	hub.Register(c)
	hub.BroadcastToUser(3, "first")
	hub.BroadcastToUser(3, "second")
	assert.Len(t, c.Send, 1)
}
