// Package client wires the transport collaborator into the framework: it
// bridges transport events to named framework events, normalizes inbound
// message batches and hands command messages to the dispatcher, and owns
// the reconnect policy.
package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/idlanyor/kachina-go/internal/cache"
	"github.com/idlanyor/kachina-go/internal/config"
	"github.com/idlanyor/kachina-go/internal/handler"
	"github.com/idlanyor/kachina-go/internal/logger"
	"github.com/idlanyor/kachina-go/internal/message"
	"github.com/idlanyor/kachina-go/internal/plugin"
	"github.com/idlanyor/kachina-go/internal/sticker"
	"github.com/idlanyor/kachina-go/internal/wa"
)

// ReconnectPolicy bounds the reconnect loop with exponential backoff and an
// optional attempt cap.
type ReconnectPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int // 0 = unlimited
}

// DefaultReconnectPolicy backs off from 2s to 60s, unlimited attempts.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{InitialDelay: 2 * time.Second, MaxDelay: time.Minute}
}

// Options carry the injectable collaborators of a Client.
type Options struct {
	Transport wa.Transport      // required
	Logger    *logger.Logger    // defaults to a silent logger
	Converter sticker.Converter // optional, enables SendSticker
	Cache     *cache.Cache      // optional; built from cfg.RedisURL when nil
	Reconnect *ReconnectPolicy  // defaults to DefaultReconnectPolicy
}

// Client is the framework's entry point.
type Client struct {
	cfg       config.Config
	transport wa.Transport
	registry  *plugin.Registry
	disp      *handler.Dispatcher
	cache     *cache.Cache
	converter sticker.Converter
	log       *logger.Logger
	events    *emitter
	reconnect ReconnectPolicy

	mu      sync.RWMutex
	ready   bool
	pairing sync.Once
	stop    context.CancelFunc
	done    chan struct{}
}

// New validates the configuration and builds a Client. Configuration
// errors are fatal here, before any connection attempt.
func New(cfg config.Config, opts Options) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	metaCache := opts.Cache
	if metaCache == nil {
		metaCache = cache.New(cache.Config{URL: cfg.RedisURL}, log)
	}
	policy := DefaultReconnectPolicy()
	if opts.Reconnect != nil {
		policy = *opts.Reconnect
	}

	c := &Client{
		cfg:       cfg,
		transport: opts.Transport,
		registry:  plugin.NewRegistry(log),
		cache:     metaCache,
		converter: opts.Converter,
		log:       log.WithPrefix("Client"),
		events:    newEmitter(),
		reconnect: policy,
	}
	c.disp = handler.New(c.registry, c, c.transport, metaCache, handler.Options{
		Prefix: cfg.Prefix,
		Owners: cfg.Owners,
	}, log)
	return c, nil
}

// Plugins returns the plugin registry.
func (c *Client) Plugins() *plugin.Registry { return c.registry }

// Dispatcher returns the dispatch engine.
func (c *Client) Dispatcher() *handler.Dispatcher { return c.disp }

// Prefix returns the active command prefix.
func (c *Client) Prefix() string { return c.disp.Prefix() }

// SetPrefix changes the active command prefix.
func (c *Client) SetPrefix(prefix string) { c.disp.SetPrefix(prefix) }

// Self returns the logged-in identity, or nil before the first open.
func (c *Client) Self() *wa.Identity { return c.transport.Self() }

// IsReady reports whether the connection is open.
func (c *Client) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// LoadPlugin registers one plugin spec directly.
func (c *Client) LoadPlugin(spec plugin.Spec) *plugin.Plugin {
	p := c.registry.Load(spec)
	c.registry.MarkLoaded()
	return p
}

// LoadPlugins discovers plugin manifests under dir. Returns the number
// loaded.
func (c *Client) LoadPlugins(dir string, resolver plugin.HandlerResolver) int {
	return c.registry.LoadAll(dir, resolver)
}

// Start connects the transport and runs the event loop until ctx is
// cancelled, the session logs out, or the reconnect policy gives up.
func (c *Client) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.stop = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	c.events.emit(EventConnecting, nil)
	if err := c.transport.Connect(ctx); err != nil {
		cancel()
		// The event loop never starts; release anything blocked on done.
		c.mu.Lock()
		close(c.done)
		c.done = nil
		c.stop = nil
		c.mu.Unlock()
		return err
	}

	go c.eventLoop(ctx)
	return nil
}

// Stop cancels the event loop and closes the transport.
func (c *Client) Stop() error {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
	err := c.transport.Close()
	if done != nil {
		<-done
	}
	c.cache.Close()
	return err
}

// Wait blocks until the event loop exits.
func (c *Client) Wait() {
	c.mu.RLock()
	done := c.done
	c.mu.RUnlock()
	if done != nil {
		<-done
	}
}

func (c *Client) eventLoop(ctx context.Context) {
	defer close(c.done)

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-c.transport.Events():
			if !ok {
				return
			}
			switch e := ev.(type) {
			case wa.ConnectionUpdate:
				if done := c.handleConnection(ctx, e, &attempts); done {
					return
				}
			case wa.MessagesUpsert:
				c.handleUpsert(ctx, e)
			case wa.GroupParticipantsUpdate:
				c.events.emit(EventGroupUpdate, e)
			case wa.GroupsUpdate:
				c.events.emit(EventGroupsUpdate, e.Updates)
			case wa.CallEvent:
				c.events.emit(EventCall, e)
			}
		}
	}
}

// handleConnection applies the reconnect-or-logout policy. Returns true
// when the event loop should stop.
func (c *Client) handleConnection(ctx context.Context, update wa.ConnectionUpdate, attempts *int) bool {
	switch update.State {
	case wa.ConnConnecting:
		c.events.emit(EventConnecting, nil)
		c.maybeRequestPairing(ctx)

	case wa.ConnOpen:
		*attempts = 0
		c.mu.Lock()
		c.ready = true
		c.mu.Unlock()
		self := update.Self
		if self == nil {
			self = c.transport.Self()
		}
		c.log.Successf("connected as %s", selfName(self))
		c.events.emit(EventReady, self)

	case wa.ConnClosed:
		c.mu.Lock()
		c.ready = false
		c.mu.Unlock()

		if update.Reason == wa.ReasonLoggedOut {
			c.log.Warn("session logged out")
			c.events.emit(EventLogout, nil)
			return true
		}

		*attempts++
		if c.reconnect.MaxAttempts > 0 && *attempts > c.reconnect.MaxAttempts {
			c.log.Errorf("giving up after %d reconnect attempts", c.reconnect.MaxAttempts)
			c.events.emit(EventLogout, nil)
			return true
		}

		c.events.emit(EventReconnecting, nil)
		delay := backoff(c.reconnect, *attempts)
		c.log.Warnf("disconnected (%s), reconnecting in %s", update.Reason, delay)

		select {
		case <-ctx.Done():
			return true
		case <-time.After(delay):
		}

		c.events.emit(EventConnecting, nil)
		if err := c.transport.Connect(ctx); err != nil {
			c.log.Errorf("reconnect failed: %v", err)
			// Feed the failure back through the same policy.
			return c.handleConnection(ctx, wa.ConnectionUpdate{
				State:  wa.ConnClosed,
				Reason: wa.ReasonConnLost,
				Err:    err,
			}, attempts)
		}
	}
	return false
}

func backoff(p ReconnectPolicy, attempt int) time.Duration {
	delay := p.InitialDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// maybeRequestPairing starts the pairing-code flow once per process when
// the config asks for pairing login and no session identity exists yet.
func (c *Client) maybeRequestPairing(ctx context.Context) {
	if c.cfg.LoginMethod != config.LoginPairing || c.transport.Self() != nil {
		return
	}
	c.pairing.Do(func() {
		go func() {
			phone := wa.NormalizePhone(c.cfg.PhoneNumber)
			code, err := c.transport.RequestPairingCode(ctx, phone)
			if err != nil {
				c.log.Errorf("pairing code request failed: %v", err)
				c.events.emit(EventPairingError, err)
				return
			}
			c.log.Infof("pairing code: %s", code)
			c.events.emit(EventPairingCode, code)
		}()
	})
}

// handleUpsert normalizes a message batch, emits each message and runs the
// dispatcher for command messages. Only live batches are processed.
func (c *Client) handleUpsert(ctx context.Context, upsert wa.MessagesUpsert) {
	if upsert.Kind != wa.UpsertLive {
		return
	}
	for _, raw := range upsert.Messages {
		m := message.Normalize(raw, c.transport)
		if m == nil {
			continue
		}
		c.events.emit(EventMessage, m)

		if c.registry.Loaded() && strings.HasPrefix(m.Body, c.Prefix()) {
			c.disp.Execute(ctx, m)
		}
	}
}

func selfName(id *wa.Identity) string {
	if id == nil {
		return "unknown"
	}
	if id.Name != "" {
		return id.Name
	}
	return id.ID
}
