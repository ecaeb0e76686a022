package api

import (
	"context"
	"net/http"

	"github.com/St1cky1/service-tasks/internal/api/handlers"
	apimw "github.com/St1cky1/service-tasks/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterDeps struct {
	Tasks    handlers.TaskUsecase
	Services handlers.ServiceUsecase
	Auth     interface {
		handlers.AuthUsecase
		apimw.Authenticator
	}
	// Gateway - HTTP фасад аналитики, монтируется на /v1
	Gateway            http.Handler
	RateLimitPerMinute int
	// Health - проверка хранилища для /healthz, может быть nil
	Health func(ctx context.Context) error
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	limiter := apimw.NewRateLimiter(deps.RateLimitPerMinute)
	requireAuth := apimw.RequireAuth(deps.Auth)

	taskHandler := handlers.NewTaskHandler(deps.Tasks)
	serviceHandler := handlers.NewServiceHandler(deps.Services)
	authHandler := handlers.NewAuthHandler(deps.Auth)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(r.Context()); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limiter.Middleware)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.With(requireAuth).Post("/logout", authHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/accounts", func(r chi.Router) {
				r.Post("/", authHandler.CreateAccount)
				r.Get("/me", authHandler.Me)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.ListTasks)
				r.Post("/", taskHandler.CreateTask)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", taskHandler.GetTask)
					r.Patch("/", taskHandler.UpdateTask)
					r.Delete("/", taskHandler.DeleteTask)
					r.Put("/status", taskHandler.ChangeStatus)
					r.Post("/comments", taskHandler.AddComment)
					r.Post("/files", taskHandler.UploadFiles)
					r.Get("/files/{fileID}", taskHandler.DownloadFile)
					r.Get("/history", taskHandler.History)
				})
			})

			r.Route("/services", func(r chi.Router) {
				r.Get("/", serviceHandler.ListServices)
				r.Post("/", serviceHandler.CreateService)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", serviceHandler.GetService)
					r.Patch("/", serviceHandler.UpdateService)
					r.Delete("/", serviceHandler.DeleteService)
				})
			})
		})
	})

	if deps.Gateway != nil {
		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)
			r.Use(requireAuth)
			r.Mount("/v1", deps.Gateway)
		})
	}

	return r
}
