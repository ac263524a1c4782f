package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"nexa/internal/types"
	"nexa/internal/whop"
)

// Stages runs the three pipeline stages. *pipeline.Pipeline implements it.
type Stages interface {
	Refine(ctx context.Context, in types.RefineIn) (types.RefineOut, error)
	BuildSpec(ctx context.Context, in types.SpecIn) (types.SpecOut, error)
	Generate(ctx context.Context, in types.GenerateIn) (types.GenerateOut, error)
}

// Platform is the part of the host platform API the account routes use.
type Platform interface {
	RetrieveUser(ctx context.Context, id string) (whop.User, error)
	ListMemberships(ctx context.Context, userID string) ([]whop.Membership, error)
}

// Handler serves the JSON API.
type Handler struct {
	stages       Stages
	platform     Platform
	planID       string
	stageTimeout time.Duration
	log          *zap.Logger
}

type Option func(*Handler)

func WithPlatform(p Platform, planID string) Option {
	return func(h *Handler) { h.platform, h.planID = p, planID }
}

// WithStageTimeout bounds each stage call, retries and backoff included.
func WithStageTimeout(d time.Duration) Option { return func(h *Handler) { h.stageTimeout = d } }

func WithLogger(l *zap.Logger) Option { return func(h *Handler) { h.log = l } }

func New(stages Stages, opts ...Option) *Handler {
	h := &Handler{stages: stages, log: zap.NewNop()}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Register mounts the API routes on mux. wrap, when non-nil, decorates
// every route handler (auth).
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	if wrap == nil {
		wrap = func(next http.Handler) http.Handler { return next }
	}
	routes := []struct {
		pattern string
		fn      http.HandlerFunc
	}{
		{"POST /api/refine-idea", h.RefineIdea},
		{"POST /api/choose-option", h.ChooseOption},
		{"POST /api/build-product-spec", h.BuildProductSpec},
		{"POST /api/generate-product", h.GenerateProduct},
		{"GET /api/auth/embedded-user", h.EmbeddedUser},
		{"GET /api/payment/status", h.PaymentStatus},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, wrap(rt.fn))
	}
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.stageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.stageTimeout)
}
