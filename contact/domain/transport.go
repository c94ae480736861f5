package domain

import (
	"context"
	"time"
)

// Ack é a confirmação devolvida pelo transporte.
type Ack struct {
	ID         string    `json:"id"`
	Transport  string    `json:"transport"`
	ReceivedAt time.Time `json:"received_at"`
}

// Transport entrega o payload sanitizado.
//
// A camada application trata o transporte como opaco: sucesso (Ack) ou erro
// com mensagem legível.
type Transport interface {
	Send(ctx context.Context, payload FormDraft) (Ack, error)
}

// Submission é uma entrada do histórico em memória.
type Submission struct {
	ID          string    `json:"id"`
	Payload     FormDraft `json:"payload"`
	Ack         Ack       `json:"ack"`
	SubmittedAt time.Time `json:"submitted_at"`
}
