// Package ratelimit fornece middlewares HTTP (net/http) de proteção da API do
// formulário: token bucket por cliente e limite de concorrência.
//
// Camadas usadas:
//
//   - contact/domain: contratos (RequestQuota, Action, SlotPool, Key)
//   - contact/application: acquire/timeout de vagas, sem net/http
//   - contact/infra: implementações concretas (buckets x/time/rate, semáforo)
//   - ratelimit (este pacote): extração da chave do cliente + tradução para status/headers
//
// Fluxo:
//
//  1. Extrai a chave do cliente (header/XFF/IP) e guarda no contexto
//  2. Classifica a rota (leitura, edição, envio) e consome um token do bucket
//     daquele cliente para aquela ação
//  3. Se bloqueado, responde 429 (rate limit) ou 503 (concorrência)
//  4. Se permitido, chama o próximo handler (API do formulário)
//
// Este limite é por requisição. O limite de envios do formulário (3 em 30
// minutos) é do ThrottleGate e não passa por aqui.
package ratelimit
