package domain

import "strings"

// PhoneDigitsOnly remove tudo que não é dígito ASCII.
func PhoneDigitsOnly(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone agrupa os dígitos como (XXX) XXX-XXXX à medida que são digitados.
//
//	"555"        -> "555"
//	"55512"      -> "(555) 12"
//	"5551234567" -> "(555) 123-4567"
//
// Dígitos além do décimo são descartados.
func FormatPhone(value string) string {
	if value == "" {
		return value
	}
	d := PhoneDigitsOnly(value)

	switch {
	case len(d) < 4:
		return d
	case len(d) < 7:
		return "(" + d[:3] + ") " + d[3:]
	}
	end := len(d)
	if end > PhoneDigits {
		end = PhoneDigits
	}
	return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:end]
}
