package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idlanyor/kachina-go/internal/config"
	"github.com/idlanyor/kachina-go/internal/message"
	"github.com/idlanyor/kachina-go/internal/plugin"
	"github.com/idlanyor/kachina-go/internal/wa"
	"github.com/idlanyor/kachina-go/internal/wa/watest"
)

func fastPolicy() *ReconnectPolicy {
	return &ReconnectPolicy{InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func newTestClient(t *testing.T, mutate func(*config.Config)) (*Client, *watest.Fake) {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	tr := watest.New()
	c, err := New(cfg, Options{Transport: tr, Reconnect: fastPolicy()})
	require.NoError(t, err)
	return c, tr
}

// events collects emitted framework event names, concurrency safe.
type events struct {
	mu    sync.Mutex
	names []string
}

func (e *events) record(name string) Listener {
	return func(any) {
		e.mu.Lock()
		e.names = append(e.names, name)
		e.mu.Unlock()
	}
}

func (e *events) has(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, n := range e.names {
		if n == name {
			return true
		}
	}
	return false
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LoginMethod = "magic"

	_, err := New(cfg, Options{Transport: watest.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown login method")
}

func TestClient_ReadyOnOpen(t *testing.T) {
	c, tr := newTestClient(t, nil)

	ready := make(chan *wa.Identity, 1)
	c.OnReady(func(id *wa.Identity) { ready <- id })

	require.NoError(t, c.Start(context.Background()))
	assert.False(t, c.IsReady())

	tr.SetSelf(&wa.Identity{ID: "628999@s.whatsapp.net", Name: "Bot"})
	tr.Emit(wa.ConnectionUpdate{State: wa.ConnOpen, Self: tr.Self()})

	select {
	case id := <-ready:
		assert.Equal(t, "Bot", id.Name)
	case <-time.After(time.Second):
		t.Fatal("ready event not emitted")
	}
	assert.True(t, c.IsReady())

	require.NoError(t, c.Stop())
}

func TestClient_FailedStartDoesNotBlockWaitOrStop(t *testing.T) {
	c, tr := newTestClient(t, nil)
	tr.ConnectErrs = []error{errors.New("bridge unreachable")}

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bridge unreachable")

	returned := make(chan struct{})
	go func() {
		c.Wait()
		require.NoError(t, c.Stop())
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Wait/Stop blocked after a failed Start")
	}
}

func TestClient_LogoutStopsLoop(t *testing.T) {
	c, tr := newTestClient(t, nil)

	rec := &events{}
	c.On(EventLogout, rec.record(EventLogout))
	c.On(EventReconnecting, rec.record(EventReconnecting))

	require.NoError(t, c.Start(context.Background()))
	tr.Emit(wa.ConnectionUpdate{State: wa.ConnClosed, Reason: wa.ReasonLoggedOut})

	c.Wait()
	assert.True(t, rec.has(EventLogout))
	assert.False(t, rec.has(EventReconnecting))
	assert.Equal(t, 1, tr.ConnectCalls)
	assert.False(t, c.IsReady())
}

func TestClient_ReconnectsAfterDisconnect(t *testing.T) {
	c, tr := newTestClient(t, nil)

	rec := &events{}
	c.On(EventReconnecting, rec.record(EventReconnecting))
	ready := make(chan struct{}, 1)
	c.OnReady(func(*wa.Identity) { ready <- struct{}{} })

	require.NoError(t, c.Start(context.Background()))
	tr.Emit(wa.ConnectionUpdate{State: wa.ConnClosed, Reason: wa.ReasonConnLost})

	assert.Eventually(t, func() bool { return tr.ConnectCalls == 2 },
		time.Second, time.Millisecond)
	assert.True(t, rec.has(EventReconnecting))

	// The loop keeps running and processes the re-open.
	tr.Emit(wa.ConnectionUpdate{State: wa.ConnOpen})
	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("no ready after reconnect")
	}

	require.NoError(t, c.Stop())
}

func TestClient_ReconnectGivesUpAtMaxAttempts(t *testing.T) {
	cfg := config.DefaultConfig()
	tr := watest.New()
	tr.ConnectErrs = []error{nil, errors.New("refused"), errors.New("refused")}

	c, err := New(cfg, Options{Transport: tr, Reconnect: &ReconnectPolicy{
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		MaxAttempts:  2,
	}})
	require.NoError(t, err)

	rec := &events{}
	c.On(EventLogout, rec.record(EventLogout))

	require.NoError(t, c.Start(context.Background()))
	tr.Emit(wa.ConnectionUpdate{State: wa.ConnClosed, Reason: wa.ReasonConnLost})

	c.Wait()
	assert.True(t, rec.has(EventLogout))
	// Initial connect plus two failed reconnects.
	assert.Equal(t, 3, tr.ConnectCalls)
}

func TestClient_PairingCodeRequested(t *testing.T) {
	c, tr := newTestClient(t, func(cfg *config.Config) {
		cfg.LoginMethod = config.LoginPairing
		cfg.PhoneNumber = "+62 812-3456-7890"
	})
	tr.PairingCode = "ABCD-EFGH"

	code := make(chan string, 1)
	c.OnPairingCode(func(s string) { code <- s })

	require.NoError(t, c.Start(context.Background()))
	tr.Emit(wa.ConnectionUpdate{State: wa.ConnConnecting})

	select {
	case got := <-code:
		assert.Equal(t, "ABCD-EFGH", got)
	case <-time.After(time.Second):
		t.Fatal("pairing code not emitted")
	}

	require.NoError(t, c.Stop())
}

func TestClient_PairingError(t *testing.T) {
	c, tr := newTestClient(t, func(cfg *config.Config) {
		cfg.LoginMethod = config.LoginPairing
		cfg.PhoneNumber = "6281234567890"
	})
	tr.PairingErr = errors.New("not registered")

	failed := make(chan any, 1)
	c.On(EventPairingError, func(payload any) { failed <- payload })

	require.NoError(t, c.Start(context.Background()))
	tr.Emit(wa.ConnectionUpdate{State: wa.ConnConnecting})

	select {
	case payload := <-failed:
		err, ok := payload.(error)
		require.True(t, ok)
		assert.Contains(t, err.Error(), "not registered")
	case <-time.After(time.Second):
		t.Fatal("pairing error not emitted")
	}

	require.NoError(t, c.Stop())
}

func TestClient_MessageEventAndDispatch(t *testing.T) {
	c, tr := newTestClient(t, nil)

	msgs := make(chan *message.Message, 2)
	c.OnMessage(func(m *message.Message) { msgs <- m })

	handled := make(chan string, 1)
	c.LoadPlugin(plugin.Spec{Name: "ping", Exec: func(ctx context.Context, pctx *plugin.Context) error {
		handled <- pctx.Command
		return nil
	}})

	require.NoError(t, c.Start(context.Background()))

	tr.Emit(wa.MessagesUpsert{Kind: wa.UpsertLive, Messages: []*wa.RawMessage{
		{
			Key:     wa.MessageKey{RemoteJID: "628111@s.whatsapp.net", ID: "M1"},
			Message: &wa.Payload{Conversation: "!ping"},
		},
	}})

	select {
	case m := <-msgs:
		assert.Equal(t, "!ping", m.Body)
	case <-time.After(time.Second):
		t.Fatal("message event not emitted")
	}
	select {
	case cmd := <-handled:
		assert.Equal(t, "ping", cmd)
	case <-time.After(time.Second):
		t.Fatal("command not dispatched")
	}

	require.NoError(t, c.Stop())
}

func TestClient_NoDispatchWithoutPrefix(t *testing.T) {
	c, tr := newTestClient(t, nil)

	handled := make(chan struct{}, 1)
	c.LoadPlugin(plugin.Spec{Name: "ping", Exec: func(ctx context.Context, pctx *plugin.Context) error {
		handled <- struct{}{}
		return nil
	}})

	msgs := make(chan *message.Message, 1)
	c.OnMessage(func(m *message.Message) { msgs <- m })

	require.NoError(t, c.Start(context.Background()))
	tr.Emit(wa.MessagesUpsert{Kind: wa.UpsertLive, Messages: []*wa.RawMessage{
		{
			Key:     wa.MessageKey{RemoteJID: "628111@s.whatsapp.net", ID: "M2"},
			Message: &wa.Payload{Conversation: "ping without prefix"},
		},
	}})

	// The message event still fires for non-commands.
	select {
	case <-msgs:
	case <-time.After(time.Second):
		t.Fatal("message event not emitted")
	}
	select {
	case <-handled:
		t.Fatal("handler must not run without the prefix")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, c.Stop())
}

func TestClient_NoDispatchBeforePluginsLoaded(t *testing.T) {
	c, tr := newTestClient(t, nil)

	msgs := make(chan *message.Message, 1)
	c.OnMessage(func(m *message.Message) { msgs <- m })

	require.NoError(t, c.Start(context.Background()))
	tr.Emit(wa.MessagesUpsert{Kind: wa.UpsertLive, Messages: []*wa.RawMessage{
		{
			Key:     wa.MessageKey{RemoteJID: "628111@s.whatsapp.net", ID: "M3"},
			Message: &wa.Payload{Conversation: "!ping"},
		},
	}})

	select {
	case <-msgs:
	case <-time.After(time.Second):
		t.Fatal("message event not emitted")
	}
	assert.False(t, c.Plugins().Loaded())

	require.NoError(t, c.Stop())
}

func TestClient_IgnoresHistoricalUpserts(t *testing.T) {
	c, tr := newTestClient(t, nil)

	msgs := make(chan *message.Message, 1)
	c.OnMessage(func(m *message.Message) { msgs <- m })

	require.NoError(t, c.Start(context.Background()))
	tr.Emit(wa.MessagesUpsert{Kind: "append", Messages: []*wa.RawMessage{
		{
			Key:     wa.MessageKey{RemoteJID: "628111@s.whatsapp.net", ID: "M4"},
			Message: &wa.Payload{Conversation: "old message"},
		},
	}})

	select {
	case <-msgs:
		t.Fatal("historical batch must not be emitted")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, c.Stop())
}

func TestClient_GroupAndCallEvents(t *testing.T) {
	c, tr := newTestClient(t, nil)

	group := make(chan any, 1)
	call := make(chan any, 1)
	c.On(EventGroupUpdate, func(p any) { group <- p })
	c.On(EventCall, func(p any) { call <- p })

	require.NoError(t, c.Start(context.Background()))
	tr.Emit(wa.GroupParticipantsUpdate{JID: "grp@g.us", Action: "add"})
	tr.Emit(wa.CallEvent{ID: "C1", From: "628111@s.whatsapp.net"})

	select {
	case p := <-group:
		update, ok := p.(wa.GroupParticipantsUpdate)
		require.True(t, ok)
		assert.Equal(t, "add", update.Action)
	case <-time.After(time.Second):
		t.Fatal("group event not emitted")
	}
	select {
	case p := <-call:
		ev, ok := p.(wa.CallEvent)
		require.True(t, ok)
		assert.Equal(t, "C1", ev.ID)
	case <-time.After(time.Second):
		t.Fatal("call event not emitted")
	}

	require.NoError(t, c.Stop())
}

func TestClient_SetPrefix(t *testing.T) {
	c, _ := newTestClient(t, nil)
	assert.Equal(t, "!", c.Prefix())
	c.SetPrefix(".")
	assert.Equal(t, ".", c.Prefix())
}

func TestBackoff(t *testing.T) {
	p := ReconnectPolicy{InitialDelay: 2 * time.Second, MaxDelay: 10 * time.Second}
	assert.Equal(t, 2*time.Second, backoff(p, 1))
	assert.Equal(t, 4*time.Second, backoff(p, 2))
	assert.Equal(t, 8*time.Second, backoff(p, 3))
	assert.Equal(t, 10*time.Second, backoff(p, 4))
	assert.Equal(t, 10*time.Second, backoff(p, 20))
}
