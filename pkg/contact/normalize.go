// Package contact canonicalises email addresses and phone numbers so contact
// points can be compared with plain string equality.
package contact

import (
	"strings"
	"unicode"
)

// Type identifies the channel of a contact point.
type Type string

const (
	TypeEmail    Type = "EMAIL"
	TypePhone    Type = "PHONE"
	TypeWhatsApp Type = "WHATSAPP"
)

// Valid reports whether t is a supported contact type.
func (t Type) Valid() bool {
	switch t {
	case TypeEmail, TypePhone, TypeWhatsApp:
		return true
	default:
		return false
	}
}

// Normalize canonicalises raw according to its contact type. The boolean is
// false when nothing usable remains.
func Normalize(t Type, raw string) (string, bool) {
	switch t {
	case TypeEmail:
		return NormalizeEmail(raw)
	case TypePhone, TypeWhatsApp:
		return NormalizePhone(raw)
	default:
		return "", false
	}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", false
	}
	return email, true
}

// NormalizePhone keeps only digits. An 11-digit number with the North American
// country code is reduced to its 10-digit national form.
func NormalizePhone(raw string) (string, bool) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if digits == "" {
		return "", false
	}
	return digits, true
}

// NormalizePtr is a convenience for optional inputs; nil or unusable values yield nil.
func NormalizePtr(t Type, raw *string) *string {
	if raw == nil {
		return nil
	}
	value, ok := Normalize(t, *raw)
	if !ok {
		return nil
	}
	return &value
}
