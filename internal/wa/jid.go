package wa

import "strings"

const (
	// GroupSuffix marks group chat JIDs.
	GroupSuffix = "@g.us"
	// UserSuffix marks direct chat JIDs.
	UserSuffix = "@s.whatsapp.net"
)

// IsGroupJID reports whether a JID addresses a group chat.
func IsGroupJID(jid string) bool {
	return strings.HasSuffix(jid, GroupSuffix)
}

// BareNumber strips the server part of a JID: "628xx@s.whatsapp.net" → "628xx".
func BareNumber(jid string) string {
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		return jid[:i]
	}
	return jid
}

// SelfJID derives the bot's canonical user JID from its session identity,
// which carries a device suffix ("628xx:12@s.whatsapp.net").
func SelfJID(id string) string {
	number := BareNumber(id)
	if i := strings.IndexByte(number, ':'); i >= 0 {
		number = number[:i]
	}
	return number + UserSuffix
}

// NormalizePhone strips everything but digits from a phone number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
