package httpapi

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"tarpitd/internal/pot"
)

// Service defines the methods required by the HTTP dispatch layer.
type Service interface {
	Stream(ctx context.Context, w io.Writer, flush func()) error
	Ready() bool
}

// Options configures the bait mux. Zero values disable the optional parts.
type Options struct {
	Routes          []string
	CatchAll        bool
	ContentType     string
	RateLimit       int           // requests per period per IP, 0 = off
	RateLimitPeriod time.Duration
	CORSEnabled     bool
	CORSOrigins     []string
}

// NewMux builds the bait router. With CatchAll every path and method is
// served; otherwise only the listed routes are, and everything else gets
// chi's stock 404, which conveniently looks like any other Go server.
func NewMux(ctx context.Context, svc Service, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if opts.RateLimit > 0 {
		r.Use(RateLimitByIP(ctx, opts.RateLimit, opts.RateLimitPeriod))
	}
	if opts.CORSEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}))
	}

	bait := baitHandler(svc, opts.ContentType)
	if opts.CatchAll {
		// All methods, all paths, including the root.
		r.Handle("/*", bait)
	} else {
		for _, route := range opts.Routes {
			if !strings.HasPrefix(route, "/") {
				route = "/" + route
			}
			r.Handle(route, bait)
		}
	}
	return r
}

// baitHandler streams honeypot content on every method of a bait route.
func baitHandler(svc Service, contentType string) http.HandlerFunc {
	if contentType == "" {
		contentType = "text/html"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if zlog != nil {
			z := zlog.Info().
				Str("ip", ip).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("user_agent", r.UserAgent())
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("scraper connected")
		}

		w.Header().Set("Content-Type", contentType)
		var flush func()
		if f, ok := w.(http.Flusher); ok {
			flush = f.Flush
		}

		start := time.Now()
		err := svc.Stream(r.Context(), w, flush)
		switch {
		case err == nil:
			// Limit trip or generator exhaustion; response is complete.
		case pot.IsBusy(err):
			// Reject before any body bytes exist: cheap, deterministic,
			// and the scraper learns nothing it can use.
			IncrementRejection("concurrency")
			w.WriteHeader(http.StatusTooManyRequests)
		case pot.IsTransport(err):
			// Scrapers hanging up is the expected end state.
			if zlog != nil {
				zlog.Debug().Str("ip", ip).Err(err).Msg("client dropped mid-stream")
			}
		default:
			if zlog != nil {
				zlog.Error().Str("ip", ip).Err(err).Msg("session failed")
			}
		}
		if zlog != nil {
			zlog.Debug().Str("ip", ip).Dur("dur", time.Since(start)).Msg("request done")
		}
	}
}
