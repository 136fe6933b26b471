package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"creative-engine/internal/observability"
)

func Router(h *GenerateHandler, requestBudget time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(observability.Measure)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Generation waits on external render jobs; the budget covers the whole
	// batch, not a single proxy hop.
	r.Use(middleware.Timeout(requestBudget))

	r.Post("/v1/generate", h.Generate)
	r.Get("/v1/creative-types", h.CreativeTypes)
	r.Get("/v1/batches", h.Batches)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", observability.MetricsHandler())
	return r
}
