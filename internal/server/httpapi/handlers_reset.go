package httpapi

import (
	"encoding/json"
	"net/http"
)

type resetRequestBody struct {
	Email string `json:"email"`
}

// requestReset always answers 202; whether the email exists is not revealed.
func (h *Handler) requestReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "correo es obligatorio")
		return
	}

	if err := h.resets.Request(r.Context(), req.Email); err != nil {
		h.logger.Error(r.Context(), "reset request failed", "error", err)
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "Si el correo existe, recibirás un enlace para restablecer tu contraseña",
	})
}

type resetConfirmBody struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) confirmReset(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "token es obligatorio")
		return
	}

	if err := h.resets.Confirm(r.Context(), req.Token, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
