// Package httpapi exposes the dashboard's JSON API over chi.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/planhub/planhub/internal/logging"
	"github.com/planhub/planhub/internal/server/services"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	users         *services.UserService
	accounts      *services.AccountService
	plans         *services.PlanService
	notifications *services.NotificationService
	resets        *services.ResetService
	logger        logging.Logger
	jwtSecret     []byte
}

// NewHandler constructs the API handler.
func NewHandler(users *services.UserService, accounts *services.AccountService, plans *services.PlanService,
	notifications *services.NotificationService, resets *services.ResetService,
	logger logging.Logger, jwtSecret []byte) *Handler {
	return &Handler{
		users:         users,
		accounts:      accounts,
		plans:         plans,
		notifications: notifications,
		resets:        resets,
		logger:        logger,
		jwtSecret:     jwtSecret,
	}
}

// Router builds the chi router with all API routes mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.login)
		r.Post("/auth/refresh", h.refresh)
		r.Post("/auth/logout", h.logout)
		r.Get("/auth/lock/{username}", h.lockStatus)

		r.Post("/password/check", h.checkPassword)
		r.Post("/password-reset/request", h.requestReset)
		r.Post("/password-reset/confirm", h.confirmReset)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.jwtSecret))

			r.Route("/plans", func(r chi.Router) {
				r.Get("/", h.listPlans)
				r.Post("/", h.createPlan)
				r.Get("/upload-url", h.uploadURL)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.getPlan)
					r.Put("/", h.updatePlan)
					r.With(RequireAdmin).Delete("/", h.deletePlan)
					r.Post("/transition", h.transitionPlan)
					r.Get("/download-url", h.downloadURL)
					r.Get("/revisions", h.listRevisions)
					r.Post("/revisions", h.addRevision)
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.listNotifications)
				r.Post("/read-all", h.markAllNotificationsRead)
				r.Post("/{id}/read", h.markNotificationRead)
			})

			r.Post("/me/password", h.changePassword)

			r.Route("/users", func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Get("/", h.listUsers)
				r.Post("/", h.createUser)
				r.Get("/{id}", h.getUser)
				r.Put("/{id}", h.updateUser)
				r.Delete("/{id}", h.deleteUser)
			})
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
