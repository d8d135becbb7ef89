package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/avetrov/todo-api/internal/middleware"
)

// NewRouter constructs and returns the HTTP handler serving the todo
// API.
//
// Routes:
//
//	POST   /users            → authHandler.Register
//	POST   /users/login      → authHandler.Login
//	GET    /users/me         → authHandler.Me      (protected)
//	DELETE /users/me/token   → authHandler.Logout  (protected)
//	POST   /todos            → todoHandler.Create  (protected)
//	GET    /todos            → todoHandler.List    (protected)
//	GET    /todos/{id}       → todoHandler.Get     (protected)
//	DELETE /todos/{id}       → todoHandler.Delete  (protected)
//	PATCH  /todos/{id}       → todoHandler.Update  (protected)
//
// Protected routes require a valid token in the x-auth header; the
// TokenAuth middleware resolves it through resolver and rejects with a
// bare 401 otherwise.
func NewRouter(
	authHandler *AuthHandler,
	todoHandler *TodoHandler,
	resolver middleware.UserResolver,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	// Only allow requests with Content-Type: application/json
	// (bodyless requests pass through).
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Public endpoints
	r.Post("/users", authHandler.Register)
	r.Post("/users/login", authHandler.Login)

	// Protected group: requires a valid session token
	r.Group(func(r chi.Router) {
		r.Use(middleware.TokenAuth(resolver))

		r.Get("/users/me", authHandler.Me)
		r.Delete("/users/me/token", authHandler.Logout)

		r.Post("/todos", todoHandler.Create)
		r.Get("/todos", todoHandler.List)
		r.Get("/todos/{id}", todoHandler.Get)
		r.Delete("/todos/{id}", todoHandler.Delete)
		r.Patch("/todos/{id}", todoHandler.Update)
	})

	return r
}
