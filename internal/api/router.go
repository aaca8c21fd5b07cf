package api

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Router builds the full HTTP handler: routes, request id, client address
// resolution, panic recovery, access log and CORS for frontendURL.
func (h *Handlers) Router(frontendURL string) http.Handler {
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(LogMiddleware(h.logger))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{frontendURL},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
