package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/planhub/planhub/internal/authgate"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	OK               bool   `json:"ok"`
	Username         string `json:"username,omitempty"`
	Message          string `json:"message,omitempty"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
	AccessToken      string `json:"access_token,omitempty"`
	RefreshToken     string `json:"refresh_token,omitempty"`
}

// login runs the credentials through the gate. Lockouts answer 423 so the
// frontend can show the countdown without parsing the message.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}

	result, pair, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Error(r.Context(), "login failed", "error", err)
		writeServiceError(w, err)
		return
	}

	if !result.OK {
		status := http.StatusUnauthorized
		if result.RemainingSeconds > 0 {
			status = http.StatusLocked
		}
		writeJSON(w, status, loginResponse{
			Message:          result.Message,
			RemainingSeconds: result.RemainingSeconds,
		})
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		OK:           true,
		Username:     result.Username,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}

	pair, err := h.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}
	if err := h.users.Logout(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type lockStatusResponse struct {
	Locked           bool   `json:"locked"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Countdown        string `json:"countdown,omitempty"`
}

// lockStatus lets the frontend poll the countdown for a username.
func (h *Handler) lockStatus(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	secs, err := h.users.RemainingLockSeconds(r.Context(), username)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := lockStatusResponse{Locked: secs > 0, RemainingSeconds: secs}
	if secs > 0 {
		resp.Countdown = authgate.FormatCountdown(secs)
	}
	writeJSON(w, http.StatusOK, resp)
}
