// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryKV / FileKV / RedisKV: armazenamento chave/valor do rascunho e do log de envios
//   - DelayTransport / SMTPTransport / WebhookTransport: entrega do formulário
//   - MemoryStatsStore / RedisStatsStore: contadores de envios por resultado
//   - RequestBuckets: token bucket por cliente e por ação (golang.org/x/time/rate)
//   - Slots: semáforo simples para limite de concorrência
package infra
