package client

import (
	"sync"

	"github.com/idlanyor/kachina-go/internal/message"
	"github.com/idlanyor/kachina-go/internal/wa"
)

// Framework event names.
const (
	EventReady        = "ready"         // *wa.Identity
	EventMessage      = "message"       // *message.Message
	EventGroupUpdate  = "group.update"  // wa.GroupParticipantsUpdate
	EventGroupsUpdate = "groups.update" // []wa.GroupUpdate
	EventCall         = "call"          // wa.CallEvent
	EventPairingCode  = "pairing.code"  // string
	EventPairingError = "pairing.error" // error
	EventReconnecting = "reconnecting"  // nil
	EventConnecting   = "connecting"    // nil
	EventLogout       = "logout"        // nil
)

// Listener receives one framework event payload.
type Listener func(payload any)

type subscription struct {
	id int
	fn Listener
}

// emitter is a minimal subscription fan-out keyed by event name.
type emitter struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[string][]subscription
}

func newEmitter() *emitter {
	return &emitter{listeners: make(map[string][]subscription)}
}

// on registers fn and returns a function that removes it again.
func (e *emitter) on(event string, fn Listener) func() {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.listeners[event] = append(e.listeners[event], subscription{id: id, fn: fn})
	e.mu.Unlock()

	return func() { e.off(event, id) }
}

func (e *emitter) off(event string, id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	subs := e.listeners[event]
	for i, s := range subs {
		if s.id == id {
			e.listeners[event] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (e *emitter) emit(event string, payload any) {
	e.mu.RLock()
	subs := make([]subscription, len(e.listeners[event]))
	copy(subs, e.listeners[event])
	e.mu.RUnlock()
	for _, s := range subs {
		s.fn(payload)
	}
}

// On subscribes a listener to a named framework event. The returned
// function removes the subscription.
func (c *Client) On(event string, fn Listener) func() {
	return c.events.on(event, fn)
}

// Once subscribes a listener that fires for the first matching event only.
func (c *Client) Once(event string, fn Listener) func() {
	var once sync.Once
	var off func()
	off = c.events.on(event, func(payload any) {
		once.Do(func() {
			off()
			fn(payload)
		})
	})
	return off
}

// OnMessage subscribes to normalized inbound messages.
func (c *Client) OnMessage(fn func(*message.Message)) {
	c.On(EventMessage, func(payload any) {
		if m, ok := payload.(*message.Message); ok {
			fn(m)
		}
	})
}

// OnReady subscribes to the connection-open event.
func (c *Client) OnReady(fn func(*wa.Identity)) {
	c.On(EventReady, func(payload any) {
		if id, ok := payload.(*wa.Identity); ok {
			fn(id)
		}
	})
}

// OnPairingCode subscribes to pairing-code delivery.
func (c *Client) OnPairingCode(fn func(string)) {
	c.On(EventPairingCode, func(payload any) {
		if code, ok := payload.(string); ok {
			fn(code)
		}
	})
}
