package domain

import "context"

// Chaves lógicas no armazenamento chave/valor.
const (
	DraftKey       = "contactFormData"
	SubmissionsKey = "contactFormSubmissions"
)

// KVStore é o armazenamento persistente chave/valor (equivalente ao
// "local storage" do navegador).
//
// Get retorna ok=false quando a chave não existe; ausência não é erro.
// Implementações podem ser memória, arquivo, Redis, etc.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
