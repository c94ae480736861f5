package domain

import (
	"fmt"
	"time"
)

// CeilMinutes arredonda para cima em minutos (60000 ms).
func CeilMinutes(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Minute - 1) / time.Minute)
}

// FormatWait gera o aviso exibido enquanto há espera. Vazio quando d <= 0.
func FormatWait(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	m := CeilMinutes(d)
	unit := "minute"
	if m > 1 {
		unit = "minutes"
	}
	return fmt.Sprintf("Please wait %d %s before submitting another message.", m, unit)
}
