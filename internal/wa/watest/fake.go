// Package watest provides an in-memory Transport fake for tests.
package watest

import (
	"context"
	"sync"

	"github.com/idlanyor/kachina-go/internal/wa"
)

// Sent records one SendMessage call.
type Sent struct {
	JID     string
	Content wa.Content
	Opts    *wa.SendOptions
}

// Reaction records one React call.
type Reaction struct {
	JID   string
	Key   wa.MessageKey
	Emoji string
}

// Fake is a recording, scriptable wa.Transport.
type Fake struct {
	mu sync.Mutex

	Identity *wa.Identity
	Meta     map[string]*wa.GroupMetadata
	MetaErr  error

	DownloadData []byte
	DownloadErr  error

	PairingCode string
	PairingErr  error

	ConnectErrs  []error // popped per Connect call; nil beyond the queue
	ConnectCalls int

	SentMessages []Sent
	Reactions    []Reaction
	Deleted      []wa.MessageKey
	Forwarded    []Sent

	events chan wa.Event
	closed bool
}

// New creates a connected-looking Fake.
func New() *Fake {
	return &Fake{
		Meta:   map[string]*wa.GroupMetadata{},
		events: make(chan wa.Event, 100),
	}
}

// Emit pushes an event to the transport's event stream.
func (f *Fake) Emit(ev wa.Event) { f.events <- ev }

// Connect pops the next scripted error, if any.
func (f *Fake) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ConnectCalls++
	if len(f.ConnectErrs) > 0 {
		err := f.ConnectErrs[0]
		f.ConnectErrs = f.ConnectErrs[1:]
		return err
	}
	return nil
}

// Close closes the event stream.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

// Events returns the event stream.
func (f *Fake) Events() <-chan wa.Event { return f.events }

// Self returns the scripted identity.
func (f *Fake) Self() *wa.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Identity
}

// SetSelf updates the scripted identity.
func (f *Fake) SetSelf(id *wa.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Identity = id
}

// SendMessage records the send and returns a synthetic key.
func (f *Fake) SendMessage(ctx context.Context, jid string, content wa.Content, opts *wa.SendOptions) (*wa.MessageKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SentMessages = append(f.SentMessages, Sent{JID: jid, Content: content, Opts: opts})
	return &wa.MessageKey{RemoteJID: jid, FromMe: true, ID: "FAKE"}, nil
}

// React records the reaction.
func (f *Fake) React(ctx context.Context, jid string, key wa.MessageKey, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reactions = append(f.Reactions, Reaction{JID: jid, Key: key, Emoji: emoji})
	return nil
}

// Delete records the revocation.
func (f *Fake) Delete(ctx context.Context, jid string, key wa.MessageKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, key)
	return nil
}

// Forward records the forward and returns a synthetic key.
func (f *Fake) Forward(ctx context.Context, jid string, msg *wa.RawMessage, opts *wa.SendOptions) (*wa.MessageKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Forwarded = append(f.Forwarded, Sent{JID: jid, Opts: opts})
	return &wa.MessageKey{RemoteJID: jid, FromMe: true, ID: "FWD"}, nil
}

// Download returns the scripted blob or error.
func (f *Fake) Download(ctx context.Context, msg *wa.RawMessage) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DownloadErr != nil {
		return nil, f.DownloadErr
	}
	return f.DownloadData, nil
}

// GroupMetadata serves the scripted snapshots.
func (f *Fake) GroupMetadata(ctx context.Context, jid string) (*wa.GroupMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MetaErr != nil {
		return nil, f.MetaErr
	}
	if meta, ok := f.Meta[jid]; ok {
		return meta, nil
	}
	return &wa.GroupMetadata{JID: jid}, nil
}

// GroupParticipantsUpdate is a no-op.
func (f *Fake) GroupParticipantsUpdate(ctx context.Context, jid string, participants []string, action string) error {
	return nil
}

// GroupUpdateSubject is a no-op.
func (f *Fake) GroupUpdateSubject(ctx context.Context, jid, subject string) error { return nil }

// GroupUpdateDescription is a no-op.
func (f *Fake) GroupUpdateDescription(ctx context.Context, jid, description string) error { return nil }

// RequestPairingCode returns the scripted code or error.
func (f *Fake) RequestPairingCode(ctx context.Context, phone string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PairingErr != nil {
		return "", f.PairingErr
	}
	return f.PairingCode, nil
}

var _ wa.Transport = (*Fake)(nil)
