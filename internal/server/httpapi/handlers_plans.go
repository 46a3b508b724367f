package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/planhub/planhub/internal/server/models"
)

type planResponse struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Title      string    `json:"title"`
	Zone       string    `json:"zone"`
	Discipline string    `json:"discipline"`
	Status     string    `json:"status"`
	Revision   int       `json:"revision"`
	UploadedBy string    `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toPlanResponse(p *models.Plan) planResponse {
	return planResponse{
		ID:         p.ID,
		Code:       p.Code,
		Title:      p.Title,
		Zone:       p.Zone,
		Discipline: p.Discipline,
		Status:     p.Status,
		Revision:   p.Revision,
		UploadedBy: p.UploadedBy,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

type planListResponse struct {
	Items []planResponse `json:"items"`
	Total int            `json:"total"`
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &models.PlanFilter{
		Zone:       q.Get("zone"),
		Discipline: q.Get("discipline"),
		Status:     q.Get("status"),
		Search:     q.Get("q"),
		SortBy:     q.Get("sort"),
		SortDesc:   q.Get("desc") == "1" || q.Get("desc") == "true",
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	items, total, err := h.plans.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := planListResponse{Items: []planResponse{}, Total: total}
	for _, p := range items {
		resp.Items = append(resp.Items, toPlanResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createPlanRequest struct {
	Code       string `json:"code"`
	Title      string `json:"title"`
	Zone       string `json:"zone"`
	Discipline string `json:"discipline"`
}

func (h *Handler) createPlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "código y título son obligatorios")
		return
	}

	claims, _ := ClaimsFromContext(r.Context())
	plan, err := h.plans.Create(r.Context(), req.Code, req.Title, req.Zone, req.Discipline, claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanResponse(plan))
}

func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.plans.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

type updatePlanRequest struct {
	Title      string `json:"title"`
	Zone       string `json:"zone"`
	Discipline string `json:"discipline"`
}

func (h *Handler) updatePlan(w http.ResponseWriter, r *http.Request) {
	var req updatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		writeError(w, http.StatusBadRequest, "título es obligatorio")
		return
	}

	plan, err := h.plans.Update(r.Context(), chi.URLParam(r, "id"), req.Title, req.Zone, req.Discipline)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

func (h *Handler) deletePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.plans.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transitionRequest struct {
	Status string `json:"status"`
}

// transitionPlan moves a plan through the workflow. Verdicts (approve and
// reject) are reserved for reviewers.
func (h *Handler) transitionPlan(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeError(w, http.StatusBadRequest, "estado es obligatorio")
		return
	}

	claims, _ := ClaimsFromContext(r.Context())
	if req.Status == models.PlanApproved || req.Status == models.PlanRejected {
		u := models.User{Role: claims.Role}
		if !u.CanReview() {
			writeError(w, http.StatusForbidden, "requiere rol de revisor")
			return
		}
	}

	plan, err := h.plans.Transition(r.Context(), chi.URLParam(r, "id"), req.Status, claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

type uploadURLResponse struct {
	StorageKey string `json:"storage_key"`
	URL        string `json:"url"`
}

func (h *Handler) uploadURL(w http.ResponseWriter, r *http.Request) {
	key, url, err := h.plans.GetUploadURL(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadURLResponse{StorageKey: key, URL: url})
}

func (h *Handler) downloadURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.plans.GetDownloadURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

type addRevisionRequest struct {
	StorageKey string `json:"storage_key"`
	Note       string `json:"note"`
}

type revisionResponse struct {
	ID         string    `json:"id"`
	PlanID     string    `json:"plan_id"`
	Revision   int       `json:"revision"`
	StorageKey string    `json:"storage_key"`
	UploadedBy string    `json:"uploaded_by,omitempty"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toRevisionResponse(rev *models.PlanRevision) revisionResponse {
	return revisionResponse{
		ID:         rev.ID,
		PlanID:     rev.PlanID,
		Revision:   rev.Revision,
		StorageKey: rev.StorageKey,
		UploadedBy: rev.UploadedBy,
		Note:       rev.Note,
		CreatedAt:  rev.CreatedAt,
	}
}

func (h *Handler) addRevision(w http.ResponseWriter, r *http.Request) {
	var req addRevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StorageKey == "" {
		writeError(w, http.StatusBadRequest, "storage_key es obligatorio")
		return
	}

	claims, _ := ClaimsFromContext(r.Context())
	rev, err := h.plans.AddRevision(r.Context(), chi.URLParam(r, "id"), req.StorageKey, claims.UserID, req.Note)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRevisionResponse(rev))
}

func (h *Handler) listRevisions(w http.ResponseWriter, r *http.Request) {
	revs, err := h.plans.ListRevisions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := []revisionResponse{}
	for _, rev := range revs {
		resp = append(resp, toRevisionResponse(rev))
	}
	writeJSON(w, http.StatusOK, resp)
}
