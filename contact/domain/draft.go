package domain

import (
	"fmt"
	"strings"
)

// Field identifica um campo do formulário.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldPhone   Field = "phone"
	FieldMessage Field = "message"
)

// Fields lista os campos na ordem de exibição.
var Fields = []Field{FieldName, FieldEmail, FieldPhone, FieldMessage}

// ParseField converte uma string externa (JSON, query) em Field.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FieldName, FieldEmail, FieldPhone, FieldMessage:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// FormDraft é o rascunho do formulário. Os quatro campos sempre existem;
// ausência equivale a string vazia.
type FormDraft struct {
	Name    string `json:"name" yaml:"name"`
	Email   string `json:"email" yaml:"email"`
	Phone   string `json:"phone" yaml:"phone"`
	Message string `json:"message" yaml:"message"`
}

func (d FormDraft) Get(f Field) string {
	switch f {
	case FieldName:
		return d.Name
	case FieldEmail:
		return d.Email
	case FieldPhone:
		return d.Phone
	case FieldMessage:
		return d.Message
	}
	return ""
}

// With devolve uma cópia do rascunho com um único campo alterado.
func (d FormDraft) With(f Field, value string) (FormDraft, error) {
	switch f {
	case FieldName:
		d.Name = value
	case FieldEmail:
		d.Email = value
	case FieldPhone:
		d.Phone = value
	case FieldMessage:
		d.Message = value
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}
	return d, nil
}

// IsEmpty indica se nenhum campo foi preenchido (usado para o aviso de
// alterações não salvas na apresentação).
func (d FormDraft) IsEmpty() bool {
	return d.Name == "" && d.Email == "" && d.Phone == "" && d.Message == ""
}

// Sanitize prepara o payload final: espaços removidos e email em minúsculas.
func (d FormDraft) Sanitize() FormDraft {
	return FormDraft{
		Name:    strings.TrimSpace(d.Name),
		Email:   strings.ToLower(strings.TrimSpace(d.Email)),
		Phone:   strings.TrimSpace(d.Phone),
		Message: strings.TrimSpace(d.Message),
	}
}
