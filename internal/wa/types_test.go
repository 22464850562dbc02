package wa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayload_Type(t *testing.T) {
	tests := []struct {
		name    string
		payload *Payload
		want    ContentType
	}{
		{"nil", nil, ContentUnknown},
		{"empty", &Payload{}, ContentUnknown},
		{"conversation", &Payload{Conversation: "hi"}, ContentText},
		{"extended", &Payload{ExtendedText: &ExtendedText{Text: "hi"}}, ContentExtendedText},
		{"image", &Payload{Image: &Media{Mimetype: "image/jpeg"}}, ContentImage},
		{"video", &Payload{Video: &Media{}}, ContentVideo},
		{"audio", &Payload{Audio: &Media{}}, ContentAudio},
		{"document", &Payload{Document: &Media{}}, ContentDocument},
		{"sticker", &Payload{Sticker: &Media{}}, ContentSticker},
		{"buttons", &Payload{ButtonsResponse: &ButtonsResponse{}}, ContentButtonReply},
		{"list", &Payload{ListResponse: &ListResponse{}}, ContentListReply},
		{"interactive", &Payload{InteractiveResponse: &InteractiveResponse{}}, ContentInteractiveReply},
		{"viewonce", &Payload{ViewOnceV2: &FutureProof{}}, ContentViewOnce},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.payload.Type())
		})
	}
}

func TestPayload_Context(t *testing.T) {
	ctx := &ContextInfo{StanzaID: "S1"}
	p := &Payload{ExtendedText: &ExtendedText{Text: "x", ContextInfo: ctx}}
	assert.Same(t, ctx, p.Context())

	assert.Nil(t, (&Payload{Conversation: "hi"}).Context())
	assert.Nil(t, (*Payload)(nil).Context())
}

func TestPayload_MediaInfo(t *testing.T) {
	media := &Media{Mimetype: "video/mp4", FileLength: 42}
	p := &Payload{Video: media}
	assert.Same(t, media, p.MediaInfo())
	assert.Nil(t, (&Payload{Conversation: "hi"}).MediaInfo())
}

func TestGroupMetadata_AdminJIDs(t *testing.T) {
	meta := &GroupMetadata{
		JID: "grp@g.us",
		Participants: []Participant{
			{JID: "a@s.whatsapp.net", Admin: "admin"},
			{JID: "b@s.whatsapp.net"},
			{JID: "c@s.whatsapp.net", Admin: "superadmin"},
		},
	}
	admins := meta.AdminJIDs()
	require.Len(t, admins, 2)
	assert.Equal(t, []string{"a@s.whatsapp.net", "c@s.whatsapp.net"}, admins)
}
