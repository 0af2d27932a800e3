package http

import (
	"log/slog"
	"os"

	"github.com/fieldclock/fieldclock-backend-go/internal/handler/http/middleware"
	"github.com/fieldclock/fieldclock-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	JWTService jwt.Service,
	timeclockHandler TimeclockHandler,
	timesheetHandler TimesheetHandler,
	auditHandler AuditHandler,
	siteHandler SiteHandler,
	env string,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "fieldclock"),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
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
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/sites", func(r chi.Router) {
				r.Get("/", siteHandler.List)
				r.Get("/{id}", siteHandler.Get)
			})

			r.Route("/timeclock", func(r chi.Router) {
				r.Post("/clock-in", timeclockHandler.ClockIn)
				r.Post("/clock-out", timeclockHandler.ClockOut)
				r.Get("/session", timeclockHandler.GetOpenSession)
				r.Get("/sessions", timeclockHandler.ListMySessions)
			})

			r.Route("/timesheets", func(r chi.Router) {
				r.Post("/sessions/{id}/approve", timesheetHandler.ApproveSession)

				// Reviewer only
				r.Group(func(r chi.Router) {
					r.Use(middleware.ReviewerOnly)
					r.Get("/", timesheetHandler.List)
					r.Get("/{id}", timesheetHandler.Get)
					r.Post("/{id}/approve", timesheetHandler.Approve)
					r.Post("/{id}/reject", timesheetHandler.Reject)
				})
			})

			// Compliance reporting surface
			r.Group(func(r chi.Router) {
				r.Use(middleware.ReviewerOnly)
				r.Get("/audit", auditHandler.Query)
			})
		})
	})
	return r
}
