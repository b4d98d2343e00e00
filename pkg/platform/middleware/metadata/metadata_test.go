package metadata

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"dossard/pkg/requestcontext"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestHandler(t *testing.T) {
	t.Run("extracts IP and user agent into context", func(t *testing.T) {
		var gotIP, gotUA string
		m := NewMiddleware(nil)
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotIP = requestcontext.ClientIP(r.Context())
			gotUA = requestcontext.UserAgent(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "203.0.113.7:49152"
		req.Header.Set("User-Agent", chromeUA)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "203.0.113.7", gotIP)
		assert.Equal(t, chromeUA, gotUA)
	})

	t.Run("sets device summary for known browsers", func(t *testing.T) {
		var summary string
		m := NewMiddleware(nil)
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			summary = requestcontext.DeviceSummary(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("User-Agent", chromeUA)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Contains(t, summary, "Chrome")
		assert.Contains(t, summary, " on ")
	})

	t.Run("ignores XFF from untrusted source", func(t *testing.T) {
		var gotIP string
		m := NewMiddleware(nil)
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotIP = requestcontext.ClientIP(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "203.0.113.7:49152"
		req.Header.Set("X-Forwarded-For", "198.51.100.99")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "203.0.113.7", gotIP)
	})

	t.Run("honors XFF from trusted proxy", func(t *testing.T) {
		var gotIP string
		m := NewMiddleware(&Config{
			TrustedProxies: []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")},
		})
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotIP = requestcontext.ClientIP(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.1.2.3:8080"
		req.Header.Set("X-Forwarded-For", "198.51.100.99, 10.1.2.3")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "198.51.100.99", gotIP)
	})

	t.Run("rejects oversized XFF header", func(t *testing.T) {
		var gotIP string
		m := NewMiddleware(&Config{
			TrustedProxies: []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")},
		})
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotIP = requestcontext.ClientIP(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.1.2.3:8080"
		req.Header.Set("X-Forwarded-For", strings.Repeat("1", MaxXFFHeaderLength+1))
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "10.1.2.3", gotIP)
	})

	t.Run("rejects malformed XFF value", func(t *testing.T) {
		var gotIP string
		m := NewMiddleware(&Config{
			TrustedProxies: []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")},
		})
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotIP = requestcontext.ClientIP(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.1.2.3:8080"
		req.Header.Set("X-Forwarded-For", "not-an-ip, 10.1.2.3")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "10.1.2.3", gotIP)
	})
}

func TestDeviceSummary(t *testing.T) {
	t.Run("empty UA yields empty summary", func(t *testing.T) {
		assert.Equal(t, "", DeviceSummary(""))
	})

	t.Run("unparseable UA yields fallback", func(t *testing.T) {
		summary := DeviceSummary("curl/8.4.0")
		assert.NotEmpty(t, summary)
	})
}

func TestParseRemoteAddr(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect string
	}{
		{"ipv4 with port", "192.0.2.1:1234", "192.0.2.1"},
		{"ipv6 with port", "[2001:db8::1]:443", "2001:db8::1"},
		{"bare host", "192.0.2.1", "192.0.2.1"},
		{"empty", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, parseRemoteAddr(tc.input))
		})
	}
}
