package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	NameMinLen    = 2
	MessageMinLen = 10
	MessageMaxLen = 500
	PhoneDigits   = 10
)

// \s do RE2 só cobre ASCII; \p{Z} acrescenta NBSP e demais separadores Unicode.
var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s\p{Z}'-]+$`)
	emailPattern = regexp.MustCompile(`^[^\s\p{Z}@]+@[^\s\p{Z}@]+\.[^\s\p{Z}@]+$`)
)

// ValidateField valida um único campo. Retorna "" quando válido.
//
// É aplicada a cada alteração (feedback inline) e de novo no envio.
func ValidateField(f Field, value string) string {
	trimmed := strings.TrimSpace(value)

	switch f {
	case FieldName:
		if trimmed == "" {
			return "Name is required"
		}
		if utf8.RuneCountInString(trimmed) < NameMinLen {
			return "Name must be at least 2 characters"
		}
		if !namePattern.MatchString(value) {
			return "Name contains invalid characters"
		}

	case FieldEmail:
		if trimmed == "" {
			return "Email is required"
		}
		if !emailPattern.MatchString(value) {
			return "Invalid email format"
		}

	case FieldPhone:
		if trimmed != "" && len(PhoneDigitsOnly(value)) != PhoneDigits {
			return "Phone number must be 10 digits"
		}

	case FieldMessage:
		if trimmed == "" {
			return "Message is required"
		}
		n := utf8.RuneCountInString(trimmed)
		if n < MessageMinLen {
			return "Message must be at least 10 characters"
		}
		if n > MessageMaxLen {
			return "Message must not exceed 500 characters"
		}
	}
	return ""
}

// ValidateDraft aplica ValidateField a todos os campos.
func ValidateDraft(d FormDraft) ValidationErrors {
	errs := ValidationErrors{}
	for _, f := range Fields {
		if msg := ValidateField(f, d.Get(f)); msg != "" {
			errs[f] = msg
		}
	}
	return errs
}

// RemainingChars é o contador de caracteres da mensagem (pode ficar negativo).
func RemainingChars(message string) int {
	return MessageMaxLen - utf8.RuneCountInString(message)
}
