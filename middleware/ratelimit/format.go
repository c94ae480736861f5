// utilitários pequenos para formatação de valores em headers e corpo de erro.

package ratelimit

import (
	"net/http"
	"strconv"
)

func formatInt(v int) string { return strconv.Itoa(v) }

func formatFloat(v float64) string {
	// sem notação científica para valores comuns
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// rejectJSON responde no mesmo envelope de erro da API do formulário.
func rejectJSON(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + http.StatusText(status) + `"}}` + "\n"))
}
