package app

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"quizhub/internal/app/observability"
	"quizhub/internal/app/view"
	"quizhub/internal/auth"
	"quizhub/internal/content"
	"quizhub/internal/quiz"
	"quizhub/internal/result"
)

// NewRouter wires services, handlers and middleware into the HTTP surface.
func NewRouter(cfg Config, conn *sql.DB, logger *slog.Logger) (http.Handler, error) {
	render, err := view.NewRenderer(cfg.TemplatesDir)
	if err != nil {
		return nil, err
	}

	authSvc := auth.NewService(conn, auth.ServiceConfig{
		SessionTTL: time.Duration(cfg.SessionTTLHours) * time.Hour,
	})
	contentSvc := content.NewService(conn)
	resultSvc := result.NewService(conn)
	progress := quiz.NewProgressStore()

	authHandler := auth.NewHandler(authSvc, render, logger)
	contentHandler := content.NewHandler(contentSvc, render, logger)
	quizHandler := quiz.NewHandler(contentSvc, resultSvc, progress, render, logger)
	resultHandler := result.NewHandler(resultSvc, contentSvc, render, logger)

	collector := observability.NewCollector(conn, logger)
	authLimiter := NewIPRateLimiter(cfg.AuthRateLimitPerMin, time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(collector.Middleware)
	r.Use(CSRFMiddleware(cfg.CSRFEnforced))
	r.Use(authHandler.LoadUser)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/metrics", collector.Handler())

	r.Get("/", contentHandler.Home)
	r.Get("/register", authHandler.RegisterPage)
	r.Get("/login", authHandler.LoginPage)
	r.Get("/logout", authHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware(authLimiter))
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/profile", resultHandler.Profile)
		r.Get("/test/start/{id}", quizHandler.Start)
		r.Get("/test/question", quizHandler.Question)
		r.Post("/test/answer", quizHandler.Answer)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Use(auth.RequireAdmin)
		r.Get("/create_test", contentHandler.CreateTestPage)
		r.Post("/create_test", contentHandler.CreateTest)
		r.Post("/import_test", contentHandler.ImportTest)
		r.Post("/delete_test/{id}", contentHandler.DeleteTest)
		r.Get("/test_results/{id}", resultHandler.TestResults)
		r.Get("/test_results/{id}/export", resultHandler.ExportResults)
		r.Get("/test_results/{id}/report.pdf", resultHandler.ResultsPDF)
	})

	r.NotFound(render.NotFound)

	return r, nil
}
