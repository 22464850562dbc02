package wa

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridge_HandleFrame_ConnectionOpen(t *testing.T) {
	b := NewBridge("ws://test", "", nil)

	b.handleFrame(frame{
		Type:  "connection",
		State: "open",
		Self:  &Identity{ID: "628123:4@s.whatsapp.net", Name: "Bot"},
	})

	ev := <-b.Events()
	update, ok := ev.(ConnectionUpdate)
	require.True(t, ok)
	assert.Equal(t, ConnOpen, update.State)
	require.NotNil(t, b.Self())
	assert.Equal(t, "Bot", b.Self().Name)
}

func TestBridge_HandleFrame_ConnectionClosedWithReason(t *testing.T) {
	b := NewBridge("ws://test", "", nil)

	b.handleFrame(frame{Type: "connection", State: "close", Reason: "loggedOut"})

	ev := <-b.Events()
	update := ev.(ConnectionUpdate)
	assert.Equal(t, ConnClosed, update.State)
	assert.Equal(t, ReasonLoggedOut, update.Reason)
}

func TestBridge_HandleFrame_Messages(t *testing.T) {
	b := NewBridge("ws://test", "", nil)

	b.handleFrame(frame{
		Type: "messages",
		Kind: "notify",
		Messages: []*RawMessage{
			{Key: MessageKey{RemoteJID: "u@s.whatsapp.net", ID: "A1"}, Message: &Payload{Conversation: "hi"}},
		},
	})

	ev := <-b.Events()
	upsert, ok := ev.(MessagesUpsert)
	require.True(t, ok)
	assert.Equal(t, UpsertLive, upsert.Kind)
	require.Len(t, upsert.Messages, 1)
	assert.Equal(t, "hi", upsert.Messages[0].Message.Conversation)
}

func TestBridge_HandleFrame_ResultResolvesPending(t *testing.T) {
	b := NewBridge("ws://test", "", nil)

	ch := make(chan frame, 1)
	b.mu.Lock()
	b.pending["req-1"] = ch
	b.mu.Unlock()

	data, _ := json.Marshal("ABCD-EFGH")
	b.handleFrame(frame{Type: "result", ID: "req-1", Data: data})

	res := <-ch
	var code string
	require.NoError(t, json.Unmarshal(res.Data, &code))
	assert.Equal(t, "ABCD-EFGH", code)

	b.mu.Lock()
	_, still := b.pending["req-1"]
	b.mu.Unlock()
	assert.False(t, still)
}

func TestBridge_HandleFrame_GroupEvents(t *testing.T) {
	b := NewBridge("ws://test", "", nil)

	b.handleFrame(frame{
		Type:   "group.participants",
		Update: &GroupParticipantsUpdate{JID: "grp@g.us", Action: "add", Participants: []string{"x@s.whatsapp.net"}},
	})
	ev := <-b.Events()
	update, ok := ev.(GroupParticipantsUpdate)
	require.True(t, ok)
	assert.Equal(t, "add", update.Action)

	b.handleFrame(frame{Type: "groups.update", Updates: []GroupUpdate{{JID: "grp@g.us"}}})
	ev = <-b.Events()
	groups, ok := ev.(GroupsUpdate)
	require.True(t, ok)
	assert.Len(t, groups.Updates, 1)
}

func TestBridge_CallsWithoutConnection(t *testing.T) {
	b := NewBridge("ws://test", "", nil)

	_, err := b.SendMessage(context.Background(), "u@s.whatsapp.net", Content{Text: "x"}, nil)
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = b.Download(context.Background(), &RawMessage{Message: &Payload{Conversation: "x"}})
	assert.ErrorIs(t, err, ErrNoMedia)
}

func TestBridge_RawMessage_JSONRoundTrip(t *testing.T) {
	original := &RawMessage{
		Key:      MessageKey{RemoteJID: "grp@g.us", ID: "M1", Participant: "u@s.whatsapp.net"},
		PushName: "User",
		Message: &Payload{
			ExtendedText: &ExtendedText{
				Text: "reply",
				ContextInfo: &ContextInfo{
					StanzaID:      "S0",
					Participant:   "o@s.whatsapp.net",
					QuotedMessage: &Payload{Conversation: "original"},
					MentionedJID:  []string{"m@s.whatsapp.net"},
				},
			},
		},
	}

	blob, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded RawMessage
	require.NoError(t, json.Unmarshal(blob, &decoded))
	assert.Equal(t, original.Key, decoded.Key)
	assert.Equal(t, "original", decoded.Message.ExtendedText.ContextInfo.QuotedMessage.Conversation)
}
