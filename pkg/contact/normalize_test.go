package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	got, ok := NormalizeEmail("  Parent.One@Example.COM ")
	assert.True(t, ok)
	assert.Equal(t, "parent.one@example.com", got)

	_, ok = NormalizeEmail("   ")
	assert.False(t, ok)
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"(555) 123-4567":   "5551234567",
		"+1 555 123 4567":  "5551234567",
		"1-555-123-4567":   "5551234567",
		"555.123.4567":     "5551234567",
		"+252 61 555 1234": "252615551234",
		"21234567890":      "21234567890",
	}
	for in, want := range tests {
		got, ok := NormalizePhone(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := NormalizePhone("n/a")
	assert.False(t, ok)
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []struct {
		typ Type
		raw string
	}{
		{TypeEmail, " MiXeD@Case.org"},
		{TypePhone, "+1 (555) 123-4567"},
		{TypeWhatsApp, "1 1 555 123 4567"},
		{TypePhone, "15551234567"},
		{TypePhone, "0044 20 7946 0958"},
	}
	for _, in := range inputs {
		once, ok := Normalize(in.typ, in.raw)
		assert.True(t, ok)
		twice, ok := Normalize(in.typ, once)
		assert.True(t, ok)
		assert.Equal(t, once, twice, in.raw)
	}
}

func TestNormalizeUnknownType(t *testing.T) {
	_, ok := Normalize(Type("FAX"), "5551234567")
	assert.False(t, ok)
	assert.Nil(t, NormalizePtr(TypeEmail, nil))
	empty := ""
	assert.Nil(t, NormalizePtr(TypeEmail, &empty))
}
