package authority

import (
	"net/http"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// NewServer builds the authority HTTP server: routes, /health, CORS and h2c.
func NewServer(addr string, svc *Service, health http.Handler) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: Handler(svc, health),
	}
}

// Handler returns the full middleware-wrapped handler.
func Handler(svc *Service, health http.Handler) http.Handler {
	mux := http.NewServeMux()

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	svc.RegisterRoutes(mux)
	mux.Handle("GET /health", health)

	return h2c.NewHandler(c.Handler(mux), &http2.Server{})
}
