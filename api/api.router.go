// FilePath: api/api.router.go
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/telemhub/api/resources"
	"github.com/itsatony/telemhub/internal/config"
	"github.com/itsatony/telemhub/internal/hub"
	"github.com/itsatony/telemhub/internal/service"
)

type Router struct {
	router    *mux.Router
	resources *resources.Resources
	hub       *hub.Hub
	liveCfg   config.LiveConfig
}

func NewRouter(svc *service.TelemetryService, h *hub.Hub, liveCfg config.LiveConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		resources: resources.NewResources(svc),
		hub:       h,
		liveCfg:   liveCfg,
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", r.resources.Devices.Health).Methods(http.MethodGet)

	// Devices
	devices := api.PathPrefix("/devices").Subrouter()
	devices.HandleFunc("", r.resources.Devices.ListDevices).Methods(http.MethodGet)
	devices.HandleFunc("/{id}/readings", r.resources.Devices.GetHistoricalReadings).Methods(http.MethodGet)
	devices.HandleFunc("/{id}/current", r.resources.Devices.GetCurrentReading).Methods(http.MethodGet)
	devices.HandleFunc("/{id}/status", r.resources.Devices.GetDeviceStatus).Methods(http.MethodGet)

	// Live channel
	r.router.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		hub.ServeWS(r.hub, r.liveCfg, w, req)
	})
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
