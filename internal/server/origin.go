// Package server decides which browser origins may open a relay session.
package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"
)

const anyOrigin = "*"

// originPolicy is the CheckOrigin hook of the WebSocket upgrader.
type originPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
	log      *slog.Logger
}

func newOriginPolicy(origins []string, log *slog.Logger) *originPolicy {
	entries := lo.Compact(lo.Map(origins, func(o string, _ int) string { return strings.TrimSpace(o) }))

	allowed := lo.FilterMap(entries, func(entry string, _ int) (string, bool) {
		if entry == anyOrigin {
			return "", false
		}
		origin, ok := normalizeOrigin(entry)
		if !ok {
			log.Warn("Ignoring invalid origin in configuration", "origin", entry)
		}
		return origin, ok
	})

	return &originPolicy{
		allowAll: lo.Contains(entries, anyOrigin),
		allowed:  lo.SliceToMap(allowed, func(o string) (string, struct{}) { return o, struct{}{} }),
		log:      log,
	}
}

// normalizeOrigin reduces an origin to lower-case scheme://host.
func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme + "://" + parsed.Host), true
}

// isAllowed reports whether the request's Origin header is acceptable. A
// request without one only passes under the wildcard.
func (p *originPolicy) isAllowed(r *http.Request) bool {
	if p.allowAll {
		return true
	}
	origin, ok := normalizeOrigin(r.Header.Get("Origin"))
	if !ok {
		return false
	}
	_, exists := p.allowed[origin]
	return exists
}

func (p *originPolicy) check(r *http.Request) bool {
	allowed := p.isAllowed(r)
	if !allowed {
		p.log.Warn("Blocked WebSocket connection from disallowed origin", "origin", r.Header.Get("Origin"))
	}
	return allowed
}
