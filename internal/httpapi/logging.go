package httpapi

import (
	"net"
	"net/http"

	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, the HTTP layer is silent.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// proxyHeaders lists headers commonly set by reverse proxies, most
// specific first. A honeypot is almost always deployed behind one, so the
// interesting address lives here rather than in RemoteAddr.
var proxyHeaders = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
	"Client-IP",
	"X-Originating-IP",
	"Forwarded",
}

// clientIP returns the best guess at the scraper's address for logging.
func clientIP(r *http.Request) string {
	for _, h := range proxyHeaders {
		if v := r.Header.Get(h); v != "" {
			return v
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
