package infra

import (
	"context"
	"strings"

	"contact-gateway/contact/domain"
)

// Namespace prefixa todas as chaves, isolando clientes que compartilham o
// mesmo KVStore (ex.: um "navegador" por chave de cliente no servidor HTTP).
type Namespace struct {
	base   domain.KVStore
	prefix string
}

func NewNamespace(base domain.KVStore, prefix string) *Namespace {
	return &Namespace{base: base, prefix: strings.Trim(prefix, ":")}
}

func (n *Namespace) key(k string) string {
	if n.prefix == "" {
		return k
	}
	return n.prefix + ":" + k
}

func (n *Namespace) Get(ctx context.Context, key string) (string, bool, error) {
	return n.base.Get(ctx, n.key(key))
}

func (n *Namespace) Set(ctx context.Context, key, value string) error {
	return n.base.Set(ctx, n.key(key), value)
}

func (n *Namespace) Delete(ctx context.Context, key string) error {
	return n.base.Delete(ctx, n.key(key))
}
