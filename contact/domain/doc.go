// Package domain define tipos e contratos do formulário de contato:
// rascunho (FormDraft), status de envio, log de envios, validação de campos
// e as interfaces de infraestrutura (KVStore, Transport, StatsStore, SlotPool).
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar regras de negócio
// de detalhes de infraestrutura.
package domain
