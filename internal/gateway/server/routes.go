package server

import (
	"net/http"

	"go.uber.org/zap"

	"nexa/internal/gateway/handler"
	"nexa/internal/gateway/middleware"
	"nexa/internal/observability"
)

type MuxConfig struct {
	Handler *handler.Handler
	// Auth wraps every API route; nil leaves them open.
	Auth        func(http.Handler) http.Handler
	Metrics     *observability.Metrics
	Log         *zap.Logger
	CORSOrigins []string
}

func NewMux(c MuxConfig) http.Handler {
	mux := http.NewServeMux()

	// API
	c.Handler.Register(mux, c.Auth)

	// Ops
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if c.Metrics != nil {
		mux.Handle("GET /metrics", c.Metrics.Handler())
	}

	// Middleware
	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.AccessLog(c.Log, c.Metrics),
		middleware.CORS(c.CORSOrigins),
	)
}
