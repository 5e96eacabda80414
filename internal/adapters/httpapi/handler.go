// Package httpapi serves the duplicate-detection engine over fasthttp.
package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/logger"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/service"
)

// DefaultRequestTimeout bounds a single duplicate search.
const DefaultRequestTimeout = 30 * time.Second

// Options configures a Handler.
type Options struct {
	Matcher        *service.Matcher
	Logger         ports.Logger
	RateLimit      RateLimitConfig
	RequestTimeout time.Duration
}

// Handler routes requests to the matcher and the template store.
type Handler struct {
	matcher *service.Matcher
	logger  ports.Logger
	limiter *IPRateLimiter
	timeout time.Duration
	now     func() time.Time
}

// NewHandler creates a Handler. A nil matcher uses the defaults with no template store.
func NewHandler(opts Options) *Handler {
	h := &Handler{
		matcher: opts.Matcher,
		logger:  opts.Logger,
		limiter: NewIPRateLimiter(opts.RateLimit),
		timeout: opts.RequestTimeout,
		now:     time.Now,
	}
	if h.matcher == nil {
		h.matcher = service.NewMatcher(service.Options{})
	}
	if h.logger == nil {
		h.logger = logger.NewNopLogger()
	}
	if h.timeout <= 0 {
		h.timeout = DefaultRequestTimeout
	}
	return h
}

// Limiter returns the per-IP limiter, nil when limiting is off.
func (h *Handler) Limiter() *IPRateLimiter { return h.limiter }

// ServeFastHTTP is the fasthttp request handler.
func (h *Handler) ServeFastHTTP(ctx *fasthttp.RequestCtx) {
	startTime := h.now()

	// Set common headers
	ctx.Response.Header.Set("Content-Type", "application/json")
	ctx.Response.Header.Set("Server", "DedupeServer")

	if !h.limiter.Allow(ctx.RemoteIP().String()) {
		h.writeError(ctx, fasthttp.StatusTooManyRequests, "Rate limit exceeded")
	} else {
		h.route(ctx)
	}

	h.logger.Info("Request processed",
		"method", string(ctx.Method()),
		"path", string(ctx.Path()),
		"status", ctx.Response.StatusCode(),
		"ip", ctx.RemoteIP().String(),
		"duration", time.Since(startTime),
	)
}

func (h *Handler) route(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/health":
		if !h.allowMethods(ctx, fasthttp.MethodGet, fasthttp.MethodHead) {
			return
		}
		h.handleHealth(ctx)
	case "/similarity":
		if !h.allowMethods(ctx, fasthttp.MethodPost) {
			return
		}
		h.handleSimilarity(ctx)
	case "/score":
		if !h.allowMethods(ctx, fasthttp.MethodPost) {
			return
		}
		h.handleScore(ctx)
	case "/duplicates":
		if !h.allowMethods(ctx, fasthttp.MethodPost) {
			return
		}
		h.handleDuplicates(ctx)
	case "/templates":
		switch {
		case ctx.IsGet():
			h.handleTemplatesGet(ctx)
		case ctx.IsPost():
			h.handleTemplatesPost(ctx)
		case ctx.IsDelete():
			h.handleTemplatesDelete(ctx)
		default:
			h.methodNotAllowed(ctx, fasthttp.MethodGet, fasthttp.MethodPost, fasthttp.MethodDelete)
		}
	default:
		h.writeError(ctx, fasthttp.StatusNotFound, "Not found")
	}
}

func (h *Handler) allowMethods(ctx *fasthttp.RequestCtx, methods ...string) bool {
	method := string(ctx.Method())
	for _, m := range methods {
		if method == m {
			return true
		}
	}
	h.methodNotAllowed(ctx, methods...)
	return false
}

func (h *Handler) methodNotAllowed(ctx *fasthttp.RequestCtx, methods ...string) {
	allow := ""
	for i, m := range methods {
		if i > 0 {
			allow += ", "
		}
		allow += m
	}
	ctx.Response.Header.Set("Allow", allow)
	h.writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
}

// requestContext bounds the work done for one request.
func (h *Handler) requestContext(_ *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.timeout)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fasthttp.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTemplate), errors.Is(err, domain.ErrInvalidWeights):
		return fasthttp.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return fasthttp.StatusGatewayTimeout
	default:
		return fasthttp.StatusInternalServerError
	}
}

func (h *Handler) writeDomainError(ctx *fasthttp.RequestCtx, err error) {
	status := statusFor(err)
	if status == fasthttp.StatusInternalServerError {
		h.logger.Error("Request failed", "path", string(ctx.Path()), "error", err)
		h.writeError(ctx, status, "Internal server error")
		return
	}
	h.writeError(ctx, status, err.Error())
}
