// Package server provides an HTTP REST server that generates sentences from
// the grammars of a sentgen Engine and keeps the ones it generates.
package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/dekarrin/sentgen"
	"github.com/dekarrin/sentgen/internal/derive"
	"github.com/dekarrin/sentgen/internal/export"
	"github.com/dekarrin/sentgen/server/api"
	"github.com/dekarrin/sentgen/server/middle"
	"github.com/dekarrin/sentgen/server/sgs"
	"github.com/go-chi/chi/v5"
)

//  GET  /info             - get version info on the server and the loaded grammars.
//  GET  /grammars         - get the definitions of the loaded grammars.
//  POST /sentences        - generate and store a batch of sentences, returns a replay token.
//  GET  /sentences        - get all stored sentences, optionally filtered by ?grammar=NAME.
//  GET  /sentences/{id}   - get one stored sentence.
//  POST /replay           - derive the batch of a replay token again.
//  GET  /metrics          - Prometheus metrics (not under the API prefix).

// Server is an HTTP REST server that generates sentences. The zero-value of a
// Server should not be used directly; call New() to get one ready for use.
type Server struct {
	router  chi.Router
	store   export.Store
	metrics *sgs.Metrics
}

// New creates a new Server that generates sentences with eng. The config is
// filled with defaults and validated first.
func New(cfg Config, eng *sentgen.Engine) (Server, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return Server{}, fmt.Errorf("config: %w", err)
	}

	limiter, err := middle.ParseRateLimit(cfg.RateLimit)
	if err != nil {
		return Server{}, fmt.Errorf("rate limit: %w", err)
	}

	store, err := cfg.Dest.OpenStore()
	if err != nil {
		return Server{}, err
	}

	s := Server{
		store:   store,
		metrics: sgs.NewMetrics(),
	}

	a := api.API{
		Backend: sgs.Service{
			Engine:   eng,
			Store:    store,
			Secret:   cfg.TokenSecret,
			Metrics:  s.metrics,
			MaxCount: cfg.MaxCount,
			Seeds:    derive.NewLockedSource(derive.NewSource(time.Now().UnixNano())),
		},
		UnauthDelay: cfg.UnauthDelay(),
	}

	s.router = newRouter(a, s.metrics, middle.RateLimit(limiter))
	return s, nil
}

func newRouter(a api.API, metrics *sgs.Metrics, limit middle.Middleware) chi.Router {
	r := chi.NewRouter()
	r.NotFound(a.HTTPNotFound())
	r.MethodNotAllowed(a.HTTPMethodNotAllowed())

	r.Route(api.PathPrefix, func(r chi.Router) {
		r.Use(limit)

		r.Get("/info", a.HTTPGetInfo())
		r.Get("/grammars", a.HTTPGetGrammars())
		r.Post("/sentences", a.HTTPCreateSentences())
		r.Get("/sentences", a.HTTPGetSentences())
		r.Get("/sentences/{id}", a.HTTPGetSentence())
		r.Post("/replay", a.HTTPReplay())
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

// Handler returns the handler that routes all requests to the server.
func (s Server) Handler() http.Handler {
	return s.router
}

// Close closes the store of the server.
func (s Server) Close() error {
	return s.store.Close()
}

// ServeForever begins listening on the given address and port for HTTP REST
// client requests. If address is kept as "", it will default to "localhost". If
// port is less than 1, it will default to 8080.
func (s Server) ServeForever(address string, port int) {
	if address == "" {
		address = "localhost"
	}
	if port < 1 {
		port = 8080
	}

	listenAddress := fmt.Sprintf("%s:%d", address, port)
	log.Printf("INFO  Listening on %s", listenAddress)
	log.Fatalf("FATAL %v", http.ListenAndServe(listenAddress, s.router))
}
