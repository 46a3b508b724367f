package authgate

import "fmt"

// User-facing messages, in the product's language. The distinct not-found and
// wrong-password wordings match the original dashboard.
const (
	MsgUserNotFound  = "El usuario no existe"
	MsgWrongPassword = "Contraseña incorrecta"
)

// FormatCountdown renders whole seconds as MM:SS (e.g. 360 → "06:00").
func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func lockedMessage(remaining int) string {
	return fmt.Sprintf("Cuenta bloqueada por intentos fallidos. Intenta nuevamente en %s", FormatCountdown(remaining))
}
