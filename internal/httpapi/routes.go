package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/arcade-lobby/internal/power"
)

// Deps is everything the router serves from.
type Deps struct {
	WS      http.Handler
	Power   *power.State
	Clients Counter
	Queue   QueueStats
	Log     *zap.Logger

	// Debug is nil unless debug endpoints are enabled on the host simulator.
	Debug PowerSetter
}

func SetupRoutes(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/status", Status(d.Power, d.Clients, d.Queue))
	r.Handle("/ws", d.WS)

	if d.Debug != nil {
		r.Route("/debug", func(r chi.Router) {
			r.Post("/power", DebugPower(d.Debug, d.Log))
		})
	}
	return r
}
