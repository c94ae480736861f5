package domain

import "context"

// SlotPool é uma capacidade finita compartilhada: envios simultâneos ao
// transporte ou requisições em processamento no servidor.
//
// Acquire bloqueia até haver vaga ou até o ctx encerrar. O release devolvido
// pode ser chamado mais de uma vez; só a primeira chamada libera.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
	InUse() int
	Cap() int
}
