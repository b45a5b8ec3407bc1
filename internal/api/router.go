package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mlenart/diary-insights/internal/api/handler"
	"github.com/mlenart/diary-insights/internal/api/middleware"
	"github.com/mlenart/diary-insights/internal/logging"
)

type Router struct {
	log        logging.Logger
	runHandler *handler.RunHandler
}

func NewRouter(log logging.Logger, runHandler *handler.RunHandler) *Router {
	return &Router{
		log:        log,
		runHandler: runHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recovery(rt.log))
	r.Use(middleware.RequestLogger(rt.log))
	r.Use(middleware.Tracing)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		r.Route("/runs", func(r chi.Router) {
			r.Post("/", rt.runHandler.Create)
			r.Get("/{runId}", rt.runHandler.GetByID)
		})
		r.Get("/snapshot", rt.runHandler.Snapshot)
	})

	return r
}
