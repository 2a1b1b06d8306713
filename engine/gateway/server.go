package gateway

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

type route struct {
	Name    string
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

func (g *Gateway) routes() []route {
	return []route{{
		Method:  http.MethodPost,
		Pattern: "/requests",
		Name:    "submitRequest",
		Handler: g.postRequest,
	}, {
		Method:  http.MethodGet,
		Pattern: "/requests/{id}",
		Name:    "getRequest",
		Handler: g.getRequest,
	}, {
		Method:  http.MethodGet,
		Pattern: "/status",
		Name:    "getStatus",
		Handler: g.getStatus,
	}}
}

func newRouter(g *Gateway) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	v1SubRouter := router.PathPrefix("/v1").Subrouter()

	// common middleware for all request
	v1SubRouter.Use(requestIDMiddleware())
	v1SubRouter.Use(loggingMiddleware(g.log, g.metrics))

	for _, r := range g.routes() {
		v1SubRouter.
			Methods(r.Method).
			Path(r.Pattern).
			Name(r.Name).
			Handler(r.Handler)
	}

	return router
}

// newServer returns an HTTP server initialized with the gateway routes.
func newServer(g *Gateway) *http.Server {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
			http.MethodHead},
	})

	return &http.Server{
		Handler:           c.Handler(newRouter(g)),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
