package client

import (
	"context"
	"fmt"

	"github.com/idlanyor/kachina-go/internal/message"
	"github.com/idlanyor/kachina-go/internal/sticker"
	"github.com/idlanyor/kachina-go/internal/wa"
)

// SendMessage delivers arbitrary content to a chat.
func (c *Client) SendMessage(ctx context.Context, jid string, content wa.Content, opts *wa.SendOptions) (*wa.MessageKey, error) {
	return c.transport.SendMessage(ctx, jid, content, opts)
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, jid, text string, opts *wa.SendOptions) (*wa.MessageKey, error) {
	return c.SendMessage(ctx, jid, wa.Content{Text: text}, opts)
}

// SendImage sends an image with an optional caption.
func (c *Client) SendImage(ctx context.Context, jid string, image []byte, caption string, opts *wa.SendOptions) (*wa.MessageKey, error) {
	return c.SendMessage(ctx, jid, wa.Content{Image: image, Caption: caption}, opts)
}

// SendVideo sends a video with an optional caption.
func (c *Client) SendVideo(ctx context.Context, jid string, video []byte, caption string, opts *wa.SendOptions) (*wa.MessageKey, error) {
	return c.SendMessage(ctx, jid, wa.Content{Video: video, Caption: caption}, opts)
}

// SendAudio sends an audio message; ptt marks it as a voice note.
func (c *Client) SendAudio(ctx context.Context, jid string, audio []byte, ptt bool, opts *wa.SendOptions) (*wa.MessageKey, error) {
	return c.SendMessage(ctx, jid, wa.Content{Audio: audio, Mimetype: "audio/mp4", PTT: ptt}, opts)
}

// SendDocument sends a document with a file name and mime type.
func (c *Client) SendDocument(ctx context.Context, jid string, doc []byte, filename, mimetype string, opts *wa.SendOptions) (*wa.MessageKey, error) {
	return c.SendMessage(ctx, jid, wa.Content{Document: doc, FileName: filename, Mimetype: mimetype}, opts)
}

// SendSticker converts media through the configured sticker converter and
// sends the result.
func (c *Client) SendSticker(ctx context.Context, jid string, media []byte, opts sticker.Options) (*wa.MessageKey, error) {
	blob, err := sticker.Create(ctx, c.converter, media, opts)
	if err != nil {
		return nil, err
	}
	return c.SendMessage(ctx, jid, wa.Content{Sticker: blob}, nil)
}

// SendContact sends one or more vCards.
func (c *Client) SendContact(ctx context.Context, jid string, contacts []wa.Contact, opts *wa.SendOptions) (*wa.MessageKey, error) {
	return c.SendMessage(ctx, jid, wa.Content{Contacts: contacts}, opts)
}

// SendLocation sends a static location.
func (c *Client) SendLocation(ctx context.Context, jid string, latitude, longitude float64, opts *wa.SendOptions) (*wa.MessageKey, error) {
	return c.SendMessage(ctx, jid, wa.Content{Location: &wa.Location{Latitude: latitude, Longitude: longitude}}, opts)
}

// SendPoll sends a poll with selectable options.
func (c *Client) SendPoll(ctx context.Context, jid, name string, values []string, selectable int, opts *wa.SendOptions) (*wa.MessageKey, error) {
	if selectable <= 0 {
		selectable = 1
	}
	return c.SendMessage(ctx, jid, wa.Content{Poll: &wa.Poll{Name: name, Values: values, SelectableCount: selectable}}, opts)
}

// SendReact reacts to a message identified by key.
func (c *Client) SendReact(ctx context.Context, jid string, key wa.MessageKey, emoji string) error {
	return c.transport.React(ctx, jid, key, emoji)
}

// ViewOnceMedia is the revealed content of a view-once message.
type ViewOnceMedia struct {
	Buffer   []byte
	Type     wa.ContentType // image, video or audio
	Caption  string
	Mimetype string
	PTT      bool
}

// ReadViewOnce unwraps a quoted view-once message and downloads its media.
// Returns message.ErrNotViewOnce when the quoted message does not match
// any recognized view-once shape.
func (c *Client) ReadViewOnce(ctx context.Context, quoted *message.Message) (*ViewOnceMedia, error) {
	inner, err := message.UnwrapViewOnce(quoted)
	if err != nil {
		return nil, err
	}

	media := inner.Message.MediaInfo()
	if media == nil {
		return nil, fmt.Errorf("view-once wrapper holds no media content")
	}

	blob, err := c.transport.Download(ctx, inner)
	if err != nil {
		return nil, fmt.Errorf("download view-once media: %w", err)
	}

	return &ViewOnceMedia{
		Buffer:   blob,
		Type:     inner.Message.Type(),
		Caption:  media.Caption,
		Mimetype: media.Mimetype,
		PTT:      media.PTT,
	}, nil
}

// SendViewOnce reveals a quoted view-once message and re-sends its media
// to a chat as a normal message.
func (c *Client) SendViewOnce(ctx context.Context, jid string, quoted *message.Message, opts *wa.SendOptions) (*wa.MessageKey, error) {
	vo, err := c.ReadViewOnce(ctx, quoted)
	if err != nil {
		return nil, err
	}

	var content wa.Content
	switch vo.Type {
	case wa.ContentImage:
		content = wa.Content{Image: vo.Buffer, Caption: vo.Caption}
	case wa.ContentVideo:
		content = wa.Content{Video: vo.Buffer, Caption: vo.Caption}
	case wa.ContentAudio:
		content = wa.Content{Audio: vo.Buffer, Mimetype: vo.Mimetype, PTT: vo.PTT}
	default:
		return nil, fmt.Errorf("unsupported view-once content type %s", vo.Type)
	}
	return c.SendMessage(ctx, jid, content, opts)
}

// GroupMetadata fetches group info, consulting the metadata cache first.
func (c *Client) GroupMetadata(ctx context.Context, jid string) (*wa.GroupMetadata, error) {
	if meta := c.cache.GetGroupMetadata(ctx, jid); meta != nil {
		return meta, nil
	}
	meta, err := c.transport.GroupMetadata(ctx, jid)
	if err != nil {
		return nil, err
	}
	c.cache.SetGroupMetadata(ctx, meta)
	return meta, nil
}

// GroupParticipantsUpdate adds, removes, promotes or demotes members.
func (c *Client) GroupParticipantsUpdate(ctx context.Context, jid string, participants []string, action string) error {
	return c.transport.GroupParticipantsUpdate(ctx, jid, participants, action)
}

// GroupUpdateSubject renames a group.
func (c *Client) GroupUpdateSubject(ctx context.Context, jid, subject string) error {
	return c.transport.GroupUpdateSubject(ctx, jid, subject)
}

// GroupUpdateDescription changes a group's description.
func (c *Client) GroupUpdateDescription(ctx context.Context, jid, description string) error {
	return c.transport.GroupUpdateDescription(ctx, jid, description)
}
