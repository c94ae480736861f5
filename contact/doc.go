// Package contact expõe o formulário de contato via HTTP (chi).
//
// Cada cliente (chave extraída por ratelimit.KeyFunc) tem seu próprio
// FormStore e seu próprio namespace no KVStore, como se fosse um navegador
// com local storage próprio.
//
// Rotas (montadas em /contact):
//
//	GET    /          estado atual (rascunho, status, erros por campo, espera)
//	PATCH  /draft     altera um campo {"field": "...", "value": "..."}
//	DELETE /draft     limpa o formulário
//	POST   /submit    valida, sanitiza e envia o rascunho atual
//	GET    /throttle  tempo até o próximo envio permitido
//	GET    /history   envios aceitos nesta sessão
package contact
