// Package wa defines the boundary to the WhatsApp transport collaborator.
//
// The actual wire protocol, encryption and session management live in an
// external bridge process; this package only carries the message shapes the
// bridge exchanges with the framework plus the Transport interface the rest
// of the codebase is written against.
package wa

import "encoding/json"

// MessageKey identifies a single message within a chat.
type MessageKey struct {
	RemoteJID   string `json:"remoteJid"`
	FromMe      bool   `json:"fromMe"`
	ID          string `json:"id"`
	Participant string `json:"participant,omitempty"`
}

// RawMessage is one inbound message exactly as the bridge delivered it.
type RawMessage struct {
	Key      MessageKey `json:"key"`
	PushName string     `json:"pushName,omitempty"`
	Message  *Payload   `json:"message,omitempty"`
}

// Payload holds the content variants of a message. Exactly one of the
// variant fields is populated for a well-formed message; Type selects the
// populated one in a fixed priority order.
type Payload struct {
	Conversation        string               `json:"conversation,omitempty"`
	ExtendedText        *ExtendedText        `json:"extendedTextMessage,omitempty"`
	Image               *Media               `json:"imageMessage,omitempty"`
	Video               *Media               `json:"videoMessage,omitempty"`
	Audio               *Media               `json:"audioMessage,omitempty"`
	Document            *Media               `json:"documentMessage,omitempty"`
	Sticker             *Media               `json:"stickerMessage,omitempty"`
	ButtonsResponse     *ButtonsResponse     `json:"buttonsResponseMessage,omitempty"`
	TemplateReply       *TemplateReply       `json:"templateButtonReplyMessage,omitempty"`
	ListResponse        *ListResponse        `json:"listResponseMessage,omitempty"`
	InteractiveResponse *InteractiveResponse `json:"interactiveResponseMessage,omitempty"`
	ViewOnce            *FutureProof         `json:"viewOnceMessage,omitempty"`
	ViewOnceV2          *FutureProof         `json:"viewOnceMessageV2,omitempty"`
	ViewOnceV2Ext       *FutureProof         `json:"viewOnceMessageV2Extension,omitempty"`
}

// FutureProof wraps a payload inside an envelope variant (view-once and
// similar wrappers reuse this shape on the wire).
type FutureProof struct {
	Message *Payload `json:"message,omitempty"`
}

// ExtendedText is the extended text variant (replies, links, mentions).
type ExtendedText struct {
	Text        string       `json:"text,omitempty"`
	ContextInfo *ContextInfo `json:"contextInfo,omitempty"`
}

// Media covers the image/video/audio/document/sticker variants; the bridge
// keeps the encrypted blob, we only see descriptive fields here.
type Media struct {
	Caption     string       `json:"caption,omitempty"`
	Mimetype    string       `json:"mimetype,omitempty"`
	FileLength  int64        `json:"fileLength,omitempty"`
	Seconds     int          `json:"seconds,omitempty"`
	PTT         bool         `json:"ptt,omitempty"`
	ViewOnce    bool         `json:"viewOnce,omitempty"`
	ContextInfo *ContextInfo `json:"contextInfo,omitempty"`
}

// ButtonsResponse is a button reply selection.
type ButtonsResponse struct {
	SelectedButtonID string       `json:"selectedButtonId,omitempty"`
	ContextInfo      *ContextInfo `json:"contextInfo,omitempty"`
}

// TemplateReply is a template button reply selection.
type TemplateReply struct {
	SelectedID  string       `json:"selectedId,omitempty"`
	ContextInfo *ContextInfo `json:"contextInfo,omitempty"`
}

// ListResponse is a list reply selection.
type ListResponse struct {
	SingleSelectReply *SingleSelectReply `json:"singleSelectReply,omitempty"`
	ContextInfo       *ContextInfo       `json:"contextInfo,omitempty"`
}

// SingleSelectReply carries the selected row of a list reply.
type SingleSelectReply struct {
	SelectedRowID string `json:"selectedRowId,omitempty"`
}

// InteractiveResponse is a native-flow interactive reply; the selection id
// is embedded in ParamsJSON.
type InteractiveResponse struct {
	NativeFlowResponse *NativeFlowResponse `json:"nativeFlowResponseMessage,omitempty"`
	ContextInfo        *ContextInfo        `json:"contextInfo,omitempty"`
}

// NativeFlowResponse holds the interactive reply parameters as raw JSON.
type NativeFlowResponse struct {
	ParamsJSON string `json:"paramsJson,omitempty"`
}

// ContextInfo carries reply context: the quoted payload, its stanza id and
// author, and any mentioned JIDs.
type ContextInfo struct {
	StanzaID      string   `json:"stanzaId,omitempty"`
	Participant   string   `json:"participant,omitempty"`
	QuotedMessage *Payload `json:"quotedMessage,omitempty"`
	MentionedJID  []string `json:"mentionedJid,omitempty"`
	PushName      string   `json:"pushName,omitempty"`
}

// ContentType tags the populated variant of a Payload.
type ContentType int

const (
	ContentUnknown ContentType = iota
	ContentText
	ContentExtendedText
	ContentImage
	ContentVideo
	ContentAudio
	ContentDocument
	ContentSticker
	ContentButtonReply
	ContentTemplateReply
	ContentListReply
	ContentInteractiveReply
	ContentViewOnce
)

var contentNames = map[ContentType]string{
	ContentUnknown:          "unknown",
	ContentText:             "text",
	ContentExtendedText:     "extendedText",
	ContentImage:            "image",
	ContentVideo:            "video",
	ContentAudio:            "audio",
	ContentDocument:         "document",
	ContentSticker:          "sticker",
	ContentButtonReply:      "buttonReply",
	ContentTemplateReply:    "templateReply",
	ContentListReply:        "listReply",
	ContentInteractiveReply: "interactiveReply",
	ContentViewOnce:         "viewOnce",
}

func (c ContentType) String() string {
	if name, ok := contentNames[c]; ok {
		return name
	}
	return "unknown"
}

// Type returns the content type of the populated variant.
func (p *Payload) Type() ContentType {
	switch {
	case p == nil:
		return ContentUnknown
	case p.Conversation != "":
		return ContentText
	case p.ExtendedText != nil:
		return ContentExtendedText
	case p.Image != nil:
		return ContentImage
	case p.Video != nil:
		return ContentVideo
	case p.Audio != nil:
		return ContentAudio
	case p.Document != nil:
		return ContentDocument
	case p.Sticker != nil:
		return ContentSticker
	case p.ButtonsResponse != nil:
		return ContentButtonReply
	case p.TemplateReply != nil:
		return ContentTemplateReply
	case p.ListResponse != nil:
		return ContentListReply
	case p.InteractiveResponse != nil:
		return ContentInteractiveReply
	case p.ViewOnce != nil, p.ViewOnceV2 != nil, p.ViewOnceV2Ext != nil:
		return ContentViewOnce
	default:
		return ContentUnknown
	}
}

// Context returns the ContextInfo of the populated variant, or nil.
func (p *Payload) Context() *ContextInfo {
	if p == nil {
		return nil
	}
	switch p.Type() {
	case ContentExtendedText:
		return p.ExtendedText.ContextInfo
	case ContentImage:
		return p.Image.ContextInfo
	case ContentVideo:
		return p.Video.ContextInfo
	case ContentAudio:
		return p.Audio.ContextInfo
	case ContentDocument:
		return p.Document.ContextInfo
	case ContentSticker:
		return p.Sticker.ContextInfo
	case ContentButtonReply:
		return p.ButtonsResponse.ContextInfo
	case ContentTemplateReply:
		return p.TemplateReply.ContextInfo
	case ContentListReply:
		return p.ListResponse.ContextInfo
	case ContentInteractiveReply:
		return p.InteractiveResponse.ContextInfo
	default:
		return nil
	}
}

// MediaInfo returns the media descriptor of the populated variant, or nil
// for non-media content.
func (p *Payload) MediaInfo() *Media {
	if p == nil {
		return nil
	}
	switch p.Type() {
	case ContentImage:
		return p.Image
	case ContentVideo:
		return p.Video
	case ContentAudio:
		return p.Audio
	case ContentDocument:
		return p.Document
	case ContentSticker:
		return p.Sticker
	default:
		return nil
	}
}

// Identity describes the logged-in account as reported by the bridge.
type Identity struct {
	ID   string `json:"id"`   // e.g. "628123456789:12@s.whatsapp.net"
	Name string `json:"name"` // profile name
}

// Participant is one group member from group metadata.
type Participant struct {
	JID   string `json:"id"`
	Admin string `json:"admin,omitempty"` // "", "admin" or "superadmin"
}

// IsAdmin reports whether the participant holds any admin role.
func (p Participant) IsAdmin() bool { return p.Admin != "" }

// GroupMetadata is the group info snapshot returned by the transport.
type GroupMetadata struct {
	JID          string        `json:"id"`
	Subject      string        `json:"subject"`
	Description  string        `json:"desc,omitempty"`
	Owner        string        `json:"owner,omitempty"`
	Participants []Participant `json:"participants"`
}

// AdminJIDs returns the JIDs of all admin participants.
func (g *GroupMetadata) AdminJIDs() []string {
	var admins []string
	for _, p := range g.Participants {
		if p.IsAdmin() {
			admins = append(admins, p.JID)
		}
	}
	return admins
}

// GroupParticipantsUpdate is a group membership change event.
type GroupParticipantsUpdate struct {
	JID          string   `json:"id"`
	Author       string   `json:"author,omitempty"`
	Action       string   `json:"action"` // add, remove, promote, demote
	Participants []string `json:"participants"`
}

// GroupUpdate is one group metadata change (subject, description, settings).
type GroupUpdate struct {
	JID     string          `json:"id"`
	Changes json.RawMessage `json:"changes,omitempty"`
}

// CallEvent is an incoming call notification, passed through opaquely.
type CallEvent struct {
	ID     string `json:"id"`
	From   string `json:"from"`
	Status string `json:"status,omitempty"`
	Video  bool   `json:"isVideo,omitempty"`
}
