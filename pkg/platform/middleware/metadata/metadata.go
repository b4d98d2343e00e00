// Package metadata extracts client metadata (IP, User-Agent, device
// summary) into the request context for audit attribution.
package metadata

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"

	"dossard/pkg/requestcontext"
)

// MaxXFFHeaderLength bounds the X-Forwarded-For header to prevent header
// injection attacks.
const MaxXFFHeaderLength = 500

// Config holds configuration for the metadata middleware.
type Config struct {
	// TrustedProxies lists IP prefixes trusted to set X-Forwarded-For.
	// If empty, XFF is never trusted.
	TrustedProxies []netip.Prefix
}

// Middleware handles client metadata extraction.
type Middleware struct {
	config *Config
}

// NewMiddleware creates a metadata middleware. A nil config trusts no
// proxies.
func NewMiddleware(cfg *Config) *Middleware {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Middleware{config: cfg}
}

// Handler extracts the client IP, User-Agent, and a human-readable device
// summary into the context.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := m.extractClientIP(r)
		ua := r.Header.Get("User-Agent")

		ctx := requestcontext.WithClientMetadata(r.Context(), ip, ua)
		if summary := DeviceSummary(ua); summary != "" {
			ctx = requestcontext.WithDeviceSummary(ctx, summary)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceSummary renders a User-Agent as "Browser on OS" for audit records.
// Registration desks run the strangest browsers; the raw UA string is kept
// alongside, this is just the readable form.
func DeviceSummary(userAgentString string) string {
	if userAgentString == "" {
		return ""
	}

	ua := useragent.New(userAgentString)
	browser, _ := ua.Browser()
	os := ua.OSInfo().Name

	browser = strings.TrimSpace(browser)
	if browser == "" {
		browser = "Unknown"
	}
	os = strings.TrimSpace(os)
	if os == "" {
		return browser
	}
	return browser + " on " + os
}

// extractClientIP resolves the client IP with trusted-proxy validation.
func (m *Middleware) extractClientIP(r *http.Request) string {
	remoteIP := parseRemoteAddr(r.RemoteAddr)
	if remoteIP == "" {
		return "unknown"
	}

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" || !m.isTrustedProxy(remoteIP) || len(xff) > MaxXFFHeaderLength {
		return remoteIP
	}

	clientIP := xff
	if before, _, ok := strings.Cut(xff, ","); ok {
		clientIP = before
	}
	clientIP = strings.TrimSpace(clientIP)

	if _, err := netip.ParseAddr(clientIP); err != nil {
		return remoteIP
	}
	return clientIP
}

func (m *Middleware) isTrustedProxy(ip string) bool {
	if len(m.config.TrustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range m.config.TrustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// parseRemoteAddr extracts the IP from RemoteAddr (strips port).
func parseRemoteAddr(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	if strings.HasPrefix(remoteAddr, "[") {
		if idx := strings.LastIndex(remoteAddr, "]:"); idx != -1 {
			return remoteAddr[1:idx]
		}
		return strings.Trim(strings.Split(remoteAddr, "]:")[0], "[]")
	}
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		return remoteAddr[:idx]
	}
	return remoteAddr
}
