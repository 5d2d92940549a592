package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/kerjapay/payroll-backend-go/internal/config"
	"github.com/kerjapay/payroll-backend-go/internal/handler/http/middleware"
	"github.com/kerjapay/payroll-backend-go/internal/pkg/jwt"
)

func NewRouter(cfg *config.Config, jwtService jwt.Service, payrunHandler PayrunHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       logLevel(cfg.App.LogLevel),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "kerjapay-payroll"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/payruns", func(r chi.Router) {
				r.Get("/", payrunHandler.List)
				r.Post("/", payrunHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", payrunHandler.Get)
					r.Post("/compute", payrunHandler.Compute)
					r.Post("/validate", payrunHandler.Validate)
					r.Post("/done", payrunHandler.MarkDone)
					r.Post("/cancel", payrunHandler.Cancel)
					r.Get("/payslips", payrunHandler.ListPayslips)
				})
			})

			r.Route("/payslips", func(r chi.Router) {
				r.Post("/{id}/recompute", payrunHandler.RecomputePayslip)
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Get("/deduction-settings", payrunHandler.GetDeductionSettings)
				r.Put("/deduction-settings", payrunHandler.UpdateDeductionSettings)
			})
		})
	})
	return r
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
