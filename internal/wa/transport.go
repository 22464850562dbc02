package wa

import (
	"context"
	"errors"
)

// Connection states reported by the transport.
type ConnState string

const (
	ConnConnecting ConnState = "connecting"
	ConnOpen       ConnState = "open"
	ConnClosed     ConnState = "close"
)

// DisconnectReason classifies why a connection closed.
type DisconnectReason string

const (
	ReasonUnknown     DisconnectReason = ""
	ReasonLoggedOut   DisconnectReason = "loggedOut"
	ReasonConnLost    DisconnectReason = "connectionLost"
	ReasonConnClosed  DisconnectReason = "connectionClosed"
	ReasonRestart     DisconnectReason = "restartRequired"
	ReasonTimedOut    DisconnectReason = "timedOut"
	ReasonReplaced    DisconnectReason = "connectionReplaced"
	ReasonBadSession  DisconnectReason = "badSession"
	ReasonMultidevice DisconnectReason = "multideviceMismatch"
)

// Sentinel errors surfaced by transports.
var (
	ErrNotConnected = errors.New("wa: transport not connected")
	ErrLoggedOut    = errors.New("wa: session logged out")
	ErrNoMedia      = errors.New("wa: message has no downloadable media")
)

// Upsert kinds for message batches. Only live batches are dispatched.
type UpsertKind string

const (
	UpsertLive    UpsertKind = "notify"
	UpsertHistory UpsertKind = "append"
)

// Event is a transport event. Concrete types: ConnectionUpdate,
// MessagesUpsert, GroupParticipantsUpdate, GroupsUpdate, CallEvent.
type Event any

// ConnectionUpdate reports a lifecycle transition.
type ConnectionUpdate struct {
	State  ConnState
	Reason DisconnectReason
	Err    error
	Self   *Identity // populated when State == ConnOpen
}

// MessagesUpsert is one inbound message batch.
type MessagesUpsert struct {
	Kind     UpsertKind
	Messages []*RawMessage
}

// GroupsUpdate is a batch of group metadata changes.
type GroupsUpdate struct {
	Updates []GroupUpdate
}

// Content describes an outbound message. Exactly one primary field should
// be set; descriptive fields apply to the chosen variant.
type Content struct {
	Text     string    `json:"text,omitempty"`
	Image    []byte    `json:"image,omitempty"`
	Video    []byte    `json:"video,omitempty"`
	Audio    []byte    `json:"audio,omitempty"`
	Document []byte    `json:"document,omitempty"`
	Sticker  []byte    `json:"sticker,omitempty"`
	Contacts []Contact `json:"contacts,omitempty"`
	Location *Location `json:"location,omitempty"`
	Poll     *Poll     `json:"poll,omitempty"`

	Caption  string   `json:"caption,omitempty"`
	FileName string   `json:"fileName,omitempty"`
	Mimetype string   `json:"mimetype,omitempty"`
	PTT      bool     `json:"ptt,omitempty"`
	Mentions []string `json:"mentions,omitempty"`
}

// Contact is a vCard attachment.
type Contact struct {
	DisplayName string `json:"displayName"`
	VCard       string `json:"vcard"`
}

// Location is a static location attachment.
type Location struct {
	Latitude  float64 `json:"degreesLatitude"`
	Longitude float64 `json:"degreesLongitude"`
}

// Poll is a poll message.
type Poll struct {
	Name            string   `json:"name"`
	Values          []string `json:"values"`
	SelectableCount int      `json:"selectableCount"`
}

// SendOptions modify an outbound message.
type SendOptions struct {
	Quoted *RawMessage `json:"quoted,omitempty"`
}

// Transport is the black-box protocol collaborator. Implementations handle
// the WhatsApp wire protocol, encryption and session storage; the framework
// only sends high-level requests and consumes Events.
type Transport interface {
	// Connect establishes the session. Lifecycle progress is delivered on
	// Events; Connect returns once the underlying link is up.
	Connect(ctx context.Context) error

	// Close tears the session down without logging out.
	Close() error

	// Events returns the stream of transport events. The channel is closed
	// when the transport shuts down for good.
	Events() <-chan Event

	// Self returns the logged-in identity, or nil before the first open.
	Self() *Identity

	// SendMessage delivers content to a chat and returns the new message key.
	SendMessage(ctx context.Context, jid string, content Content, opts *SendOptions) (*MessageKey, error)

	// React sends an emoji reaction to the message identified by key.
	React(ctx context.Context, jid string, key MessageKey, emoji string) error

	// Delete revokes a previously sent message.
	Delete(ctx context.Context, jid string, key MessageKey) error

	// Forward re-sends an existing raw message to another chat.
	Forward(ctx context.Context, jid string, msg *RawMessage, opts *SendOptions) (*MessageKey, error)

	// Download fetches and decrypts the media blob of a message.
	Download(ctx context.Context, msg *RawMessage) ([]byte, error)

	// GroupMetadata fetches the current group info snapshot.
	GroupMetadata(ctx context.Context, jid string) (*GroupMetadata, error)

	// GroupParticipantsUpdate adds/removes/promotes/demotes members.
	GroupParticipantsUpdate(ctx context.Context, jid string, participants []string, action string) error

	// GroupUpdateSubject renames a group.
	GroupUpdateSubject(ctx context.Context, jid, subject string) error

	// GroupUpdateDescription changes a group's description.
	GroupUpdateDescription(ctx context.Context, jid, description string) error

	// RequestPairingCode starts a pairing-code login for the given phone
	// number (digits only) and returns the code to show the user.
	RequestPairingCode(ctx context.Context, phone string) (string, error)
}
