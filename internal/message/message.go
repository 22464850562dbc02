// Package message normalizes raw transport events into the framework's
// canonical message form and binds the per-message actions (reply, react,
// download, delete, forward) to the transport that produced them.
package message

import (
	"context"
	"encoding/json"

	"github.com/idlanyor/kachina-go/internal/wa"
)

// Message is the canonical view of one inbound (or quoted) message.
// Immutable after Normalize; the bound methods capture the transport handle.
type Message struct {
	Key      wa.MessageKey
	Chat     string // remote JID
	FromMe   bool
	ID       string
	IsGroup  bool
	Sender   string
	PushName string

	Type    wa.ContentType
	Raw     *wa.RawMessage // untouched transport payload
	Content *wa.Payload

	Body       string
	Quoted     *Message
	Caption    string
	Mimetype   string
	FileLength int64
	Mentions   []string

	transport wa.Transport
}

// Normalize converts a raw transport event into a canonical Message.
// Returns nil for events without a payload.
func Normalize(raw *wa.RawMessage, transport wa.Transport) *Message {
	if raw == nil || raw.Message == nil {
		return nil
	}

	m := &Message{
		Key:       raw.Key,
		Chat:      raw.Key.RemoteJID,
		FromMe:    raw.Key.FromMe,
		ID:        raw.Key.ID,
		IsGroup:   wa.IsGroupJID(raw.Key.RemoteJID),
		PushName:  raw.PushName,
		Type:      raw.Message.Type(),
		Raw:       raw,
		Content:   raw.Message,
		Body:      ExtractBody(raw.Message),
		transport: transport,
	}

	if m.IsGroup {
		m.Sender = raw.Key.Participant
	} else {
		m.Sender = m.Chat
	}

	if media := raw.Message.MediaInfo(); media != nil {
		m.Caption = media.Caption
		m.Mimetype = media.Mimetype
		m.FileLength = media.FileLength
	}

	if ctx := raw.Message.Context(); ctx != nil {
		m.Mentions = ctx.MentionedJID
		if ctx.QuotedMessage != nil {
			m.Quoted = Normalize(syntheticQuoted(raw, ctx, transport), transport)
		}
	}

	return m
}

// syntheticQuoted rebuilds a raw event for the quoted payload from context
// fields. The transport never retains quoted-of-quoted, so recursion stops
// after one level naturally.
func syntheticQuoted(raw *wa.RawMessage, ctx *wa.ContextInfo, transport wa.Transport) *wa.RawMessage {
	fromMe := false
	if transport != nil {
		if self := transport.Self(); self != nil {
			fromMe = ctx.Participant == self.ID
		}
	}
	return &wa.RawMessage{
		Key: wa.MessageKey{
			RemoteJID:   raw.Key.RemoteJID,
			FromMe:      fromMe,
			ID:          ctx.StanzaID,
			Participant: raw.Key.Participant,
		},
		PushName: ctx.PushName,
		Message:  ctx.QuotedMessage,
	}
}

// ExtractBody pulls the text body out of a payload, in priority order:
// plain text, extended text, button/list/interactive reply selection, then
// the media caption, else empty.
func ExtractBody(p *wa.Payload) string {
	if p == nil {
		return ""
	}
	switch p.Type() {
	case wa.ContentText:
		return p.Conversation
	case wa.ContentExtendedText:
		return p.ExtendedText.Text
	case wa.ContentButtonReply:
		return p.ButtonsResponse.SelectedButtonID
	case wa.ContentTemplateReply:
		return p.TemplateReply.SelectedID
	case wa.ContentListReply:
		if p.ListResponse.SingleSelectReply != nil {
			return p.ListResponse.SingleSelectReply.SelectedRowID
		}
		return ""
	case wa.ContentInteractiveReply:
		return interactiveReplyID(p.InteractiveResponse)
	}
	if media := p.MediaInfo(); media != nil {
		return media.Caption
	}
	return ""
}

// interactiveReplyID extracts the selection id embedded as JSON in a
// native-flow reply. Malformed JSON yields an empty string, never an error.
func interactiveReplyID(ir *wa.InteractiveResponse) string {
	if ir == nil || ir.NativeFlowResponse == nil {
		return ""
	}
	var params struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(ir.NativeFlowResponse.ParamsJSON), &params); err != nil {
		return ""
	}
	return params.ID
}

// Reply sends text back to the originating chat, quoting this message.
func (m *Message) Reply(ctx context.Context, text string) (*wa.MessageKey, error) {
	return m.ReplyWith(ctx, wa.Content{Text: text})
}

// ReplyWith sends arbitrary content back to the originating chat, quoting
// this message.
func (m *Message) ReplyWith(ctx context.Context, content wa.Content) (*wa.MessageKey, error) {
	return m.transport.SendMessage(ctx, m.Chat, content, &wa.SendOptions{Quoted: m.Raw})
}

// React sends an emoji reaction to this message.
func (m *Message) React(ctx context.Context, emoji string) error {
	return m.transport.React(ctx, m.Chat, m.Key, emoji)
}

// Download fetches this message's media blob. Returns wa.ErrNoMedia for
// non-media content.
func (m *Message) Download(ctx context.Context) ([]byte, error) {
	return m.transport.Download(ctx, m.Raw)
}

// Delete revokes this message.
func (m *Message) Delete(ctx context.Context) error {
	return m.transport.Delete(ctx, m.Chat, m.Key)
}

// Forward re-sends this message to another chat.
func (m *Message) Forward(ctx context.Context, jid string, opts *wa.SendOptions) (*wa.MessageKey, error) {
	return m.transport.Forward(ctx, jid, m.Raw, opts)
}

// Transport exposes the bound transport handle for plugin use.
func (m *Message) Transport() wa.Transport { return m.transport }
