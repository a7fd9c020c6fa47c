package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-messenger/internal/config"
	"go-messenger/internal/handler"
	"go-messenger/internal/middleware"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Message *handler.MessageHandler
	User    *handler.UserHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, handlers Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/signup", handlers.Auth.Signup)
			auth.Post("/login", handlers.Auth.Login)
			auth.With(authMiddleware.RequireAuth).Post("/logout", handlers.Auth.Logout)
			auth.With(authMiddleware.RequireAuth).Post("/change-password", handlers.Auth.ChangePassword)
			auth.With(authMiddleware.RequireAuth).Get("/me", handlers.Auth.Me)
		})

		api.Route("/messages", func(messages chi.Router) {
			messages.Use(authMiddleware.RequireAuth)
			messages.Get("/", handlers.Message.Inbox)
			messages.Post("/", handlers.Message.Send)
			messages.Delete("/{message_id}", handlers.Message.Delete)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth, authMiddleware.RequireAdmin)
			admin.Get("/users", handlers.User.List)
			admin.Put("/users/{user_id}/active", handlers.User.SetActive)
			admin.Delete("/users/{user_id}", handlers.User.Delete)
		})
	})

	return r
}
