package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"noslimites/api/internal/handler"
	"noslimites/api/internal/httputil"
	authmw "noslimites/api/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	RelationshipHandler *handler.RelationshipHandler
	CatalogHandler      *handler.CatalogHandler
	LimitHandler        *handler.LimitHandler
	NotificationHandler *handler.NotificationHandler
	PushHandler         *handler.PushHandler
	JWTSecret           string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Post("/auth/magic-link", cfg.AuthHandler.RequestMagicLink)
	r.Get("/auth/verify", cfg.AuthHandler.VerifyMagicLink)
	r.Post("/auth/device/refresh", cfg.AuthHandler.Refresh)

	// Invitation landing page is public: the link is the credential
	r.Get("/relationships/invite/{token}", cfg.RelationshipHandler.LookupInvitation)

	// Catalog is public read-only content
	r.Get("/limits/categories", cfg.CatalogHandler.GetTree)

	r.Get("/push/vapid-public-key", cfg.PushHandler.VAPIDPublicKey)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Current user endpoints
		r.Get("/me", cfg.UserHandler.Me)
		r.Patch("/me", cfg.UserHandler.UpdateMe)
		r.Delete("/me", cfg.UserHandler.DeleteMe)

		// Session management
		r.Post("/auth/logout", cfg.AuthHandler.Logout)
		r.Get("/auth/devices", cfg.AuthHandler.ListDevices)
		r.Delete("/auth/devices/{id}", cfg.AuthHandler.RevokeDevice)

		// Relationships and limit choices
		r.Get("/relationships", cfg.RelationshipHandler.List)
		r.Post("/relationships/invite", cfg.RelationshipHandler.CreateInvitation)
		r.Post("/relationships/accept/{token}", cfg.RelationshipHandler.AcceptInvitation)
		r.Post("/relationships/decline/{token}", cfg.RelationshipHandler.DeclineInvitation)
		r.Get("/relationships/{id}", cfg.RelationshipHandler.Get)
		r.Delete("/relationships/{id}", cfg.RelationshipHandler.Delete)
		r.Post("/relationships/{id}/block", cfg.RelationshipHandler.Block)

		r.Get("/relationships/{id}/limits", cfg.LimitHandler.GetMyChoices)
		r.Put("/relationships/{id}/limits", cfg.LimitHandler.UpsertChoices)
		r.Get("/relationships/{id}/common-limits", cfg.LimitHandler.GetCommonLimits)
		r.Put("/relationships/{id}/limits/{limitId}/note", cfg.LimitHandler.UpsertNote)
		r.Delete("/relationships/{id}/limits/{limitId}/note", cfg.LimitHandler.DeleteNote)

		// Notifications
		r.Get("/notifications", cfg.NotificationHandler.List)
		r.Put("/notifications/read", cfg.NotificationHandler.MarkRead)
		r.Put("/notifications/read-all", cfg.NotificationHandler.MarkAllRead)

		// Web push subscriptions
		r.Post("/push/subscribe", cfg.PushHandler.Subscribe)
		r.Post("/push/unsubscribe", cfg.PushHandler.Unsubscribe)
		r.Get("/push/subscriptions", cfg.PushHandler.ListSubscriptions)
		r.Delete("/push/subscriptions/{id}", cfg.PushHandler.DeleteSubscription)
	})

	return r
}
