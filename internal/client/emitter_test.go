package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitter_OnAndOff(t *testing.T) {
	e := newEmitter()

	calls := 0
	off := e.on("ping", func(any) { calls++ })

	e.emit("ping", nil)
	e.emit("other", nil)
	assert.Equal(t, 1, calls)

	off()
	e.emit("ping", nil)
	assert.Equal(t, 1, calls)

	// Removing twice is harmless.
	off()
}

func TestEmitter_MultipleListeners(t *testing.T) {
	e := newEmitter()

	var order []string
	e.on("ev", func(any) { order = append(order, "a") })
	e.on("ev", func(any) { order = append(order, "b") })

	e.emit("ev", nil)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestClient_Once(t *testing.T) {
	c, _ := newTestClient(t, nil)

	calls := 0
	c.Once("custom", func(any) { calls++ })

	c.events.emit("custom", nil)
	c.events.emit("custom", nil)
	assert.Equal(t, 1, calls)
}

func TestClient_OnceCancelledBeforeFiring(t *testing.T) {
	c, _ := newTestClient(t, nil)

	calls := 0
	off := c.Once("custom", func(any) { calls++ })
	off()

	c.events.emit("custom", nil)
	assert.Zero(t, calls)
}
