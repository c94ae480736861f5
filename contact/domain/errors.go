package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrUnknownField         = errors.New("unknown form field")
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
	ErrTransportBusy        = errors.New("too many messages are being sent right now, please try again")
)

// ValidationError é o erro de um único campo.
type ValidationError struct {
	Field   Field
	Message string
}

func (e ValidationError) Error() string { return string(e.Field) + ": " + e.Message }

// ValidationErrors agrupa erros por campo. Vazio significa formulário válido.
type ValidationErrors map[Field]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for f := range v {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[Field(k)])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Err devolve nil quando não há erros, para uso em `if err := ...; err != nil`.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// ThrottleError indica que o limite de envios da janela foi atingido.
type ThrottleError struct {
	Wait time.Duration
}

func (e ThrottleError) Error() string {
	return fmt.Sprintf("Please wait %d minutes before submitting another message.", CeilMinutes(e.Wait))
}

// TransportError embrulha a falha do transporte. Error() devolve a mensagem
// original para exibição.
type TransportError struct {
	Transport string
	Err       error
}

func (e TransportError) Error() string {
	if e.Err == nil {
		return "submission failed"
	}
	return e.Err.Error()
}

func (e TransportError) Unwrap() error { return e.Err }

// StorageError é falha de leitura/escrita/parse no KVStore. Nunca chega ao
// usuário final; só é logada.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e StorageError) Unwrap() error { return e.Err }
