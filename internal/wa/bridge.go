package wa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/idlanyor/kachina-go/internal/logger"
)

// frame is the JSON envelope exchanged with the bridge process. Request
// frames carry an id and are answered by a "result" frame with the same id;
// event frames have no id.
type frame struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`

	// Event fields.
	State    string                   `json:"state,omitempty"`
	Reason   string                   `json:"reason,omitempty"`
	Self     *Identity                `json:"self,omitempty"`
	Kind     string                   `json:"kind,omitempty"`
	Messages []*RawMessage            `json:"messages,omitempty"`
	Update   *GroupParticipantsUpdate `json:"update,omitempty"`
	Updates  []GroupUpdate            `json:"updates,omitempty"`
	Call     *CallEvent               `json:"call,omitempty"`

	// Request fields.
	JID          string       `json:"jid,omitempty"`
	Content      *Content     `json:"content,omitempty"`
	Quoted       *RawMessage  `json:"quoted,omitempty"`
	Key          *MessageKey  `json:"key,omitempty"`
	Emoji        string       `json:"emoji,omitempty"`
	Message      *RawMessage  `json:"message,omitempty"`
	Participants []string     `json:"participants,omitempty"`
	Action       string       `json:"action,omitempty"`
	Subject      string       `json:"subject,omitempty"`
	Description  string       `json:"description,omitempty"`
	Phone        string       `json:"phone,omitempty"`

	// Result fields.
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Bridge implements Transport over a WebSocket connection to the external
// protocol bridge process. The bridge owns the wire protocol, crypto and
// credential storage; this side only speaks JSON frames.
type Bridge struct {
	url   string
	token string
	log   *logger.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	self    *Identity
	pending map[string]chan frame

	events chan Event
	closed bool
}

const callTimeout = 60 * time.Second

// NewBridge creates a Bridge for the given WebSocket URL. The token, if
// set, is sent as a bearer Authorization header on dial.
func NewBridge(url, token string, log *logger.Logger) *Bridge {
	if log == nil {
		log = logger.Nop()
	}
	return &Bridge{
		url:     url,
		token:   token,
		log:     log.WithPrefix("Bridge"),
		pending: make(map[string]chan frame),
		events:  make(chan Event, 100),
	}
}

// Connect dials the bridge and starts the read loop. Safe to call again
// after a disconnect; the events channel survives reconnects.
func (b *Bridge) Connect(ctx context.Context) error {
	header := http.Header{}
	if b.token != "" {
		header.Set("Authorization", "Bearer "+b.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.url, header)
	if err != nil {
		return fmt.Errorf("dial bridge %s: %w", b.url, err)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		conn.Close()
		return ErrNotConnected
	}
	b.conn = conn
	b.mu.Unlock()

	b.log.Debugf("connected to %s", b.url)
	go b.readLoop(conn)
	return nil
}

// Close shuts the bridge down for good and closes the event stream.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.conn != nil {
		b.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
		b.conn.Close()
		b.conn = nil
	}
	close(b.events)
	return nil
}

// Events returns the transport event stream.
func (b *Bridge) Events() <-chan Event { return b.events }

// Self returns the logged-in identity reported by the bridge.
func (b *Bridge) Self() *Identity {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.self
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			b.mu.Lock()
			dead := b.closed || b.conn != conn
			if b.conn == conn {
				b.conn = nil
			}
			b.mu.Unlock()
			if !dead {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					b.log.Warnf("read error: %v", err)
				}
				b.emit(ConnectionUpdate{State: ConnClosed, Reason: ReasonConnLost, Err: err})
			}
			return
		}
		b.handleFrame(f)
	}
}

func (b *Bridge) handleFrame(f frame) {
	switch f.Type {
	case "connection":
		update := ConnectionUpdate{
			State:  ConnState(f.State),
			Reason: DisconnectReason(f.Reason),
			Self:   f.Self,
		}
		if f.Error != "" {
			update.Err = fmt.Errorf("%s", f.Error)
		}
		if update.State == ConnOpen && f.Self != nil {
			b.mu.Lock()
			b.self = f.Self
			b.mu.Unlock()
		}
		b.emit(update)

	case "messages":
		b.emit(MessagesUpsert{Kind: UpsertKind(f.Kind), Messages: f.Messages})

	case "group.participants":
		if f.Update != nil {
			b.emit(*f.Update)
		}

	case "groups.update":
		b.emit(GroupsUpdate{Updates: f.Updates})

	case "call":
		if f.Call != nil {
			b.emit(*f.Call)
		}

	case "result":
		b.mu.Lock()
		ch := b.pending[f.ID]
		delete(b.pending, f.ID)
		b.mu.Unlock()
		if ch != nil {
			ch <- f
		}

	default:
		b.log.Debugf("unknown frame type %q", f.Type)
	}
}

func (b *Bridge) emit(ev Event) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return
	}
	select {
	case b.events <- ev:
	default:
		b.log.Warn("event buffer full, dropping event")
	}
}

// writeJSON serializes writes; gorilla/websocket does not support
// concurrent writers.
func (b *Bridge) writeJSON(f frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return ErrNotConnected
	}
	return b.conn.WriteJSON(f)
}

// call performs one request/result round trip.
func (b *Bridge) call(ctx context.Context, f frame) (frame, error) {
	f.ID = uuid.New().String()
	ch := make(chan frame, 1)

	b.mu.Lock()
	if b.conn == nil {
		b.mu.Unlock()
		return frame{}, ErrNotConnected
	}
	b.pending[f.ID] = ch
	b.mu.Unlock()

	if err := b.writeJSON(f); err != nil {
		b.mu.Lock()
		delete(b.pending, f.ID)
		b.mu.Unlock()
		return frame{}, err
	}

	timer := time.NewTimer(callTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Error != "" {
			return frame{}, fmt.Errorf("bridge: %s", res.Error)
		}
		return res, nil
	case <-ctx.Done():
		b.mu.Lock()
		delete(b.pending, f.ID)
		b.mu.Unlock()
		return frame{}, ctx.Err()
	case <-timer.C:
		b.mu.Lock()
		delete(b.pending, f.ID)
		b.mu.Unlock()
		return frame{}, fmt.Errorf("bridge: %s request timed out", f.Type)
	}
}

// SendMessage delivers content to a chat.
func (b *Bridge) SendMessage(ctx context.Context, jid string, content Content, opts *SendOptions) (*MessageKey, error) {
	req := frame{Type: "send", JID: jid, Content: &content}
	if opts != nil {
		req.Quoted = opts.Quoted
	}
	res, err := b.call(ctx, req)
	if err != nil {
		return nil, err
	}
	var key MessageKey
	if len(res.Data) > 0 {
		if err := json.Unmarshal(res.Data, &key); err != nil {
			return nil, fmt.Errorf("decode send result: %w", err)
		}
	}
	return &key, nil
}

// React sends an emoji reaction.
func (b *Bridge) React(ctx context.Context, jid string, key MessageKey, emoji string) error {
	_, err := b.call(ctx, frame{Type: "react", JID: jid, Key: &key, Emoji: emoji})
	return err
}

// Delete revokes a message.
func (b *Bridge) Delete(ctx context.Context, jid string, key MessageKey) error {
	_, err := b.call(ctx, frame{Type: "delete", JID: jid, Key: &key})
	return err
}

// Forward re-sends an existing message to another chat.
func (b *Bridge) Forward(ctx context.Context, jid string, msg *RawMessage, opts *SendOptions) (*MessageKey, error) {
	req := frame{Type: "forward", JID: jid, Message: msg}
	if opts != nil {
		req.Quoted = opts.Quoted
	}
	res, err := b.call(ctx, req)
	if err != nil {
		return nil, err
	}
	var key MessageKey
	if len(res.Data) > 0 {
		if err := json.Unmarshal(res.Data, &key); err != nil {
			return nil, fmt.Errorf("decode forward result: %w", err)
		}
	}
	return &key, nil
}

// Download fetches the decrypted media blob of a message.
func (b *Bridge) Download(ctx context.Context, msg *RawMessage) ([]byte, error) {
	if msg == nil || msg.Message == nil || msg.Message.MediaInfo() == nil {
		return nil, ErrNoMedia
	}
	res, err := b.call(ctx, frame{Type: "download", Message: msg})
	if err != nil {
		return nil, err
	}
	var blob []byte
	if err := json.Unmarshal(res.Data, &blob); err != nil {
		return nil, fmt.Errorf("decode media blob: %w", err)
	}
	return blob, nil
}

// GroupMetadata fetches the current group info.
func (b *Bridge) GroupMetadata(ctx context.Context, jid string) (*GroupMetadata, error) {
	res, err := b.call(ctx, frame{Type: "groupMetadata", JID: jid})
	if err != nil {
		return nil, err
	}
	var meta GroupMetadata
	if err := json.Unmarshal(res.Data, &meta); err != nil {
		return nil, fmt.Errorf("decode group metadata: %w", err)
	}
	return &meta, nil
}

// GroupParticipantsUpdate changes group membership.
func (b *Bridge) GroupParticipantsUpdate(ctx context.Context, jid string, participants []string, action string) error {
	_, err := b.call(ctx, frame{Type: "groupParticipantsUpdate", JID: jid, Participants: participants, Action: action})
	return err
}

// GroupUpdateSubject renames a group.
func (b *Bridge) GroupUpdateSubject(ctx context.Context, jid, subject string) error {
	_, err := b.call(ctx, frame{Type: "groupUpdateSubject", JID: jid, Subject: subject})
	return err
}

// GroupUpdateDescription changes a group description.
func (b *Bridge) GroupUpdateDescription(ctx context.Context, jid, description string) error {
	_, err := b.call(ctx, frame{Type: "groupUpdateDescription", JID: jid, Description: description})
	return err
}

// RequestPairingCode starts a pairing-code login.
func (b *Bridge) RequestPairingCode(ctx context.Context, phone string) (string, error) {
	res, err := b.call(ctx, frame{Type: "requestPairingCode", Phone: phone})
	if err != nil {
		return "", err
	}
	var code string
	if err := json.Unmarshal(res.Data, &code); err != nil {
		return "", fmt.Errorf("decode pairing code: %w", err)
	}
	return code, nil
}

var _ Transport = (*Bridge)(nil)
