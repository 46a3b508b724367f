package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/planhub/planhub/internal/server/models"
)

type notificationResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	PlanID    string    `json:"plan_id,omitempty"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func toNotificationResponse(n *models.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Kind:      n.Kind,
		PlanID:    n.PlanID,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	unreadOnly := r.URL.Query().Get("unread") == "1" || r.URL.Query().Get("unread") == "true"

	items, err := h.notifications.ListForUser(r.Context(), claims.UserID, unreadOnly)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := []notificationResponse{}
	for _, n := range items {
		resp = append(resp, toNotificationResponse(n))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	if err := h.notifications.MarkRead(r.Context(), chi.URLParam(r, "id"), claims.UserID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	if err := h.notifications.MarkAllRead(r.Context(), claims.UserID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
