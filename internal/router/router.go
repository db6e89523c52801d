package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanasan/todo-api/internal/config"
	"github.com/yanasan/todo-api/internal/handler"
	"github.com/yanasan/todo-api/internal/metrics"
	"github.com/yanasan/todo-api/internal/middleware"
)

type Handlers struct {
	System  *handler.SystemHandler
	Auth    *handler.AuthHandler
	Todo    *handler.TodoHandler
	Metrics http.Handler
}

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	collector *metrics.Collector,
	handlers Handlers,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics(collector))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)

	r.Get("/", handlers.System.Root)
	r.Get("/health", handlers.System.Health)
	if handlers.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", handlers.Metrics)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/signup", handlers.Auth.Signup)
			auth.Post("/login", handlers.Auth.Login)
			auth.Post("/refresh", handlers.Auth.Refresh)
			auth.With(authMiddleware.RequireAuth).Get("/me", handlers.Auth.Me)
			auth.With(authMiddleware.RequireAuth).Delete("/me", handlers.Auth.DeleteMe)
		})

		api.Route("/todos", func(todos chi.Router) {
			todos.Use(authMiddleware.RequireAuth)

			todos.Get("/", handlers.Todo.List)
			todos.Post("/", handlers.Todo.Create)
			todos.Get("/{todo_id}", handlers.Todo.Get)
			todos.Put("/{todo_id}", handlers.Todo.Update)
			todos.Delete("/{todo_id}", handlers.Todo.Delete)
		})
	})

	return r
}
