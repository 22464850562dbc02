package message

import (
	"errors"

	"github.com/idlanyor/kachina-go/internal/wa"
)

// ErrNotViewOnce is returned when none of the recognized view-once wrapper
// shapes match a message.
var ErrNotViewOnce = errors.New("message: not a view-once message")

// UnwrapViewOnce searches the recognized wrapper shapes of a quoted message
// and returns a raw message holding the inner media payload. The four paths,
// in order: wrapper envelope on the normalized content, wrapper envelope on
// the untouched raw payload, normalized media already carrying the view-once
// flag, and raw media carrying the flag.
func UnwrapViewOnce(m *Message) (*wa.RawMessage, error) {
	if m == nil {
		return nil, ErrNotViewOnce
	}

	if inner := wrapperPayload(m.Content); inner != nil {
		return innerRaw(m, inner), nil
	}
	if m.Raw != nil {
		if inner := wrapperPayload(m.Raw.Message); inner != nil {
			return innerRaw(m, inner), nil
		}
	}
	if flaggedMedia(m.Content) {
		return innerRaw(m, m.Content), nil
	}
	if m.Raw != nil && flaggedMedia(m.Raw.Message) {
		return innerRaw(m, m.Raw.Message), nil
	}

	return nil, ErrNotViewOnce
}

// wrapperPayload returns the inner payload of a view-once envelope, or nil.
func wrapperPayload(p *wa.Payload) *wa.Payload {
	if p == nil {
		return nil
	}
	for _, w := range []*wa.FutureProof{p.ViewOnce, p.ViewOnceV2, p.ViewOnceV2Ext} {
		if w != nil && w.Message != nil {
			return w.Message
		}
	}
	return nil
}

// flaggedMedia reports whether a payload is media marked view-once inline.
func flaggedMedia(p *wa.Payload) bool {
	media := p.MediaInfo()
	return media != nil && media.ViewOnce
}

func innerRaw(m *Message, inner *wa.Payload) *wa.RawMessage {
	return &wa.RawMessage{Key: m.Key, PushName: m.PushName, Message: inner}
}
