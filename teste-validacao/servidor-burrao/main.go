package main

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Receptor burro do webhook: aceita o JSON do formulário, loga e devolve um id.
// Use com CONTACT_TRANSPORT_DRIVER=webhook
// CONTACT_TRANSPORT_WEBHOOK_URL=http://localhost:8082/hook.
// FAIL=1 faz todas as chamadas responderem 503 (testa o caminho de falha).

type message struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func main() {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	fail := os.Getenv("FAIL") == "1"

	http.HandleFunc("/hook", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var m message
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			logger.Warn("payload inválido", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if fail {
			logger.Info("falhando de propósito", zap.String("id", m.ID))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		logger.Info("mensagem recebida",
			zap.String("id", m.ID),
			zap.String("name", m.Name),
			zap.String("email", m.Email),
			zap.Int("len", len(m.Message)))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": uuid.NewString()})
	})

	logger.Info("Servidor rodando em http://localhost:8082")
	if err := http.ListenAndServe(":8082", nil); err != nil {
		logger.Fatal("Erro ao subir o servidor", zap.Error(err))
	}
}
