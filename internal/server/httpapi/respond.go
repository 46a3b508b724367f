package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/planhub/planhub/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps the shared sentinel errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "no encontrado")
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, "ya existe")
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "no autorizado")
	case errors.Is(err, common.ErrorForbidden):
		writeError(w, http.StatusForbidden, "prohibido")
	case errors.Is(err, common.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "la contraseña no cumple los requisitos")
	case errors.Is(err, common.ErrWrongPassword):
		writeError(w, http.StatusBadRequest, "contraseña incorrecta")
	case errors.Is(err, common.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "transición de estado no permitida")
	case errors.Is(err, common.ErrRefreshTokenExpired), errors.Is(err, common.ErrResetTokenExpired):
		writeError(w, http.StatusUnauthorized, "token vencido")
	default:
		writeError(w, http.StatusInternalServerError, "error interno")
	}
}
