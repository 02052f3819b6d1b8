package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/kairos/internal/api/v1"
	"github.com/gosuda/kairos/internal/api/ws"
)

func registerAPIRoutes(api huma.API, deps Deps) {
	v1.RegisterCapabilityRoutes(api, deps.Models)
	if deps.Lessons != nil {
		v1.RegisterLessonRoutes(api, deps.Lessons)
	}
	if deps.Store != nil {
		v1.RegisterSessionRoutes(api, deps.Store)
	}
}

func registerSessionRoutes(r chi.Router, sessions *ws.SessionHandler) {
	r.Get("/session", sessions.ServeSession)
	r.Get("/session/{sessionID}", sessions.ServeSession)
}

func registerObserverRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/observe/{sessionID}", hub.ServeObserve)
}
