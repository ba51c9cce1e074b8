package gateway

import (
	"testing"

	"github.com/makeorbreakshop/thumbnail-battle/go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushAfterCloseIsDropped(t *testing.T) {
	conn := &Connection{ID: "c1", Send: make(chan []byte, 1)}

	conn.closeSend()
	conn.closeSend()

	// A late sampler tick after teardown must not panic or queue anything.
	conn.push(game.Event{Type: game.EventScoreTick, Points: 900})

	_, open := <-conn.Send
	assert.False(t, open)
}

func TestPushDropsWhenBufferFull(t *testing.T) {
	conn := &Connection{ID: "c1", Send: make(chan []byte, 1)}

	conn.push(game.Event{Type: game.EventNotice, Notice: "first"})
	conn.push(game.Event{Type: game.EventNotice, Notice: "second"})

	require.Len(t, conn.Send, 1)
	data := <-conn.Send
	assert.Contains(t, string(data), "first")
}
