package router

import (
	"net/http"
	"time"

	"depixsync/internal/adapters/inbound/http/controllers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Dependencies struct {
	HealthController         *controllers.HealthController
	SwaggerController        *controllers.SwaggerController
	DepositsController       *controllers.DepositsController
	ReconciliationController *controllers.ReconciliationController
	MetricsHandler           http.Handler
	Logger                   *zap.Logger
}

func New(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if deps.Logger != nil {
		r.Use(requestLogger(deps.Logger))
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", deps.HealthController.GetHealth)
	r.Get("/swagger", deps.SwaggerController.RedirectToIndex)
	r.Get("/swagger/openapi.yaml", deps.SwaggerController.GetOpenAPISpec)
	r.Get("/swagger/*", deps.SwaggerController.ServeUI)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/deposits", deps.DepositsController.CreateDeposit)
		r.Get("/transactions/{id}", deps.DepositsController.GetTransaction)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/reconciliation/runs", deps.ReconciliationController.TriggerRun)
			r.Get("/rate-limits", deps.ReconciliationController.GetRateLimits)
		})
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startedAt := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(startedAt)),
			)
		})
	}
}
