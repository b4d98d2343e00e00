// Package transport delivers request envelopes to the federation service.
// The HTTP implementation wraps the call with a client-side rate limiter and
// a circuit breaker; the legacy upstream degrades badly under load and stays
// degraded for minutes once it tips over.
package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"dossard/internal/verify/protocol"
	dErrors "dossard/pkg/domain-errors"
)

//go:generate mockgen -source=transport.go -destination=../mocks/mock_transport.go -package=mocks Transport

// Transport sends a request envelope upstream and returns the raw response
// body. Implementations must not retry; the engine treats every attempt as
// final.
type Transport interface {
	Send(ctx context.Context, envelope string) (string, error)
}

// HTTPDoer is the subset of http.Client the transport needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config tunes the HTTP transport.
type Config struct {
	// URL is the federation service endpoint.
	URL string
	// Timeout bounds a single upstream call.
	Timeout time.Duration
	// RequestsPerSecond caps the outbound call rate. Zero disables limiting.
	RequestsPerSecond float64
	// Burst is the limiter's burst size when limiting is enabled.
	Burst int
	// BreakerFailures is the consecutive-failure count that opens the
	// circuit. Zero disables the breaker.
	BreakerFailures uint32
	// BreakerCooldown is how long the circuit stays open before probing.
	BreakerCooldown time.Duration
}

// maxErrBody bounds the response excerpt attached to non-2xx errors.
const maxErrBody = 200

// HTTPTransport implements Transport over the upstream's HTTP endpoint.
type HTTPTransport struct {
	cfg     Config
	client  HTTPDoer
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     *slog.Logger
}

var _ Transport = (*HTTPTransport)(nil)

// HTTPOption configures the HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client HTTPDoer) HTTPOption {
	return func(t *HTTPTransport) {
		t.client = client
	}
}

// NewHTTPTransport creates a transport for the given endpoint.
func NewHTTPTransport(cfg Config, log *slog.Logger, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	if cfg.BreakerFailures > 0 {
		t.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "federation",
			Timeout: cfg.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerFailures
			},
			OnStateChange: func(_ string, from, to gobreaker.State) {
				log.Warn("federation circuit state change",
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
			},
		})
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send posts the envelope and returns the raw response body.
func (t *HTTPTransport) Send(ctx context.Context, envelope string) (string, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeTransportFailure, "rate limiter wait aborted")
		}
	}

	if t.breaker == nil {
		return t.post(ctx, envelope)
	}

	body, err := t.breaker.Execute(func() (any, error) {
		return t.post(ctx, envelope)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", dErrors.Wrap(err, dErrors.CodeTransportFailure, "federation circuit open")
		}
		return "", err
	}
	return body.(string), nil
}

func (t *HTTPTransport) post(ctx context.Context, envelope string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.URL, strings.NewReader(envelope))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "building upstream request")
	}
	req.Header.Set("Content-Type", protocol.ContentType)
	req.Header.Set("SOAPAction", protocol.Action)

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", dErrors.Wrap(err, dErrors.CodeTimeout, "federation call timed out")
		}
		return "", dErrors.Wrap(err, dErrors.CodeTransportFailure, "federation call failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeTransportFailure, "reading federation response")
	}

	t.log.Debug("federation call",
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := string(raw)
		if len(excerpt) > maxErrBody {
			excerpt = excerpt[:maxErrBody]
		}
		return "", dErrors.New(dErrors.CodeTransportFailure,
			"federation returned HTTP "+resp.Status+": "+excerpt)
	}

	return string(raw), nil
}

// isTimeout covers both context deadlines and the http.Client's own
// Timeout, which surfaces as a url.Error without touching the context.
func isTimeout(ctx context.Context, err error) bool {
	if ctx.Err() == context.DeadlineExceeded {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue) && ue.Timeout()
}
