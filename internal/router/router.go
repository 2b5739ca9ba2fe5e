package router

import (
	"net/http"

	"github.com/comanda-pos/api/internal/config"
	"github.com/comanda-pos/api/internal/handler"
	mw "github.com/comanda-pos/api/internal/middleware"
	"github.com/comanda-pos/api/internal/service"
	"github.com/comanda-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// Services are the application services exposed over HTTP.
type Services struct {
	Orders       *service.OrderService
	CloseOuts    *service.CloseOutService
	Tabs         *service.TabService
	Availability *service.AvailabilityService
	Estimates    *service.EstimateService
}

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, svc Services, hub *ws.Hub, log *logrus.Entry) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(log.WithField("component", "http")))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	r.Get("/ws/establishments/{eid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, w, r)
	})

	r.Route("/establishments/{eid}", func(r chi.Router) {
		r.Use(mw.RequireEstablishment)

		orderHandler := handler.NewOrderHandler(svc.Orders, svc.CloseOuts, log)
		r.Route("/orders", orderHandler.RegisterRoutes)

		tableHandler := handler.NewTableHandler(svc.Tabs, svc.CloseOuts, log)
		r.Route("/tables", tableHandler.RegisterRoutes)

		availabilityHandler := handler.NewAvailabilityHandler(svc.Availability, log)
		r.Route("/availability", availabilityHandler.RegisterRoutes)

		r.Method(http.MethodGet, "/preparation-time", handler.NewEstimateHandler(svc.Estimates, log))
	})

	log.Debug("router initialized")
	return r
}
