// Package router sets up all HTTP routes and middleware chains for the
// MyBlog API. Every resource lives under /api/v1; authentication and role
// checks are attached per route group.
package router

import (
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"myblog/internal/handlers"
	"myblog/internal/middleware"
	"myblog/internal/models"
	"myblog/internal/session"
)

// Deps holds everything the router wires together.
type Deps struct {
	Sessions    *session.Store
	Users       middleware.UserFinder
	API         *handlers.API
	Auth        *handlers.Auth
	Media       *handlers.Media
	AuthLimiter *middleware.RateLimiter // optional; limits register and login
	CORSOrigins []string

	// TrustedProxies may report the client address in forwarding headers.
	TrustedProxies []netip.Prefix
	// HSTS sends Strict-Transport-Security; enable only behind TLS.
	HSTS           bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.RealIP(d.TrustedProxies))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(d.HSTS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.LoadSession(d.Sessions, d.Users))

		authors := middleware.RequireRole(models.RoleAuthor, models.RoleAdmin)
		admins := middleware.RequireRole(models.RoleAdmin)

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Group(func(r chi.Router) {
				if d.AuthLimiter != nil {
					r.Use(d.AuthLimiter.Middleware)
				}
				r.Post("/register", d.Auth.Register)
				r.Post("/login", d.Auth.Login)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/logout", d.Auth.Logout)
				r.Get("/me", d.Auth.Me)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", d.API.ListPosts)
			r.Get("/slug/{slug}", d.API.GetPostBySlug)
			r.Get("/{id}", d.API.GetPost)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth, authors)
				r.Post("/", d.API.CreatePost)
				r.Put("/{id}", d.API.UpdatePost)
				r.Delete("/{id}", d.API.DeletePost)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/post/{postId}", d.API.ListComments)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/", d.API.CreateComment)
				r.Delete("/{id}", d.API.DeleteComment)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", d.API.ListCategories)
			r.Get("/{id}", d.API.GetCategory)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth, authors)
				r.Post("/", d.API.CreateCategory)
				r.Put("/{id}", d.API.UpdateCategory)
			})
			r.With(middleware.RequireAuth, admins).Delete("/{id}", d.API.DeleteCategory)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", d.API.ListTags)
			r.Get("/{id}", d.API.GetTag)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth, authors)
				r.Post("/", d.API.CreateTag)
				r.Put("/{id}", d.API.UpdateTag)
			})
			r.With(middleware.RequireAuth, admins).Delete("/{id}", d.API.DeleteTag)
		})

		r.With(middleware.RequireAuth, admins).Put("/users/{id}/role", d.API.SetUserRole)

		r.Route("/media", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/upload", d.Media.Upload)
			r.Get("/list", d.Media.List)
			r.Get("/{id}", d.Media.Get)
			r.Delete("/{id}", d.Media.Delete)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
