// Package application contém os casos de uso do formulário de contato:
// ThrottleGate (janela deslizante de envios), FormStore (rascunho + ciclo de
// envio), Registry (um FormStore por cliente), AcquireSlot (usado também pela
// borda HTTP) e LimitedTransport, que limita os envios simultâneos ao
// transporte.
//
// Ele depende apenas do pacote domain e não conhece net/http.
package application
