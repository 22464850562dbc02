package wa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsGroupJID(t *testing.T) {
	assert.True(t, IsGroupJID("12036304@g.us"))
	assert.False(t, IsGroupJID("628123456789@s.whatsapp.net"))
}

func TestBareNumber(t *testing.T) {
	assert.Equal(t, "628123456789", BareNumber("628123456789@s.whatsapp.net"))
	assert.Equal(t, "628123456789", BareNumber("628123456789"))
}

func TestSelfJID_StripsDeviceSuffix(t *testing.T) {
	assert.Equal(t, "628123456789@s.whatsapp.net", SelfJID("628123456789:12@s.whatsapp.net"))
	assert.Equal(t, "628123456789@s.whatsapp.net", SelfJID("628123456789@s.whatsapp.net"))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "628123456789", NormalizePhone("+62 812-3456-789"))
	assert.Equal(t, "", NormalizePhone("abc"))
}
