package transport

import (
	"context"
	"log/slog"
	"regexp"
	"sync/atomic"
	"time"
)

// Mock fixture bodies. The success fixture mirrors a real upstream payload;
// the not-found fixture is what the upstream returns for an unknown relation.
const (
	MockSuccessBody = `<VerifyRelationResult>O,O,N,N,000000,100,200,1756134,ROBERT,JONATHAN,M,23/05/1991,FRA,COMP,31/08/2017,SE,075024,PUC,PARIS UC,,,,075,IDF,OK</VerifyRelationResult>`

	MockNotFoundBody = `<VerifyRelationResult>N,N,N,N,000000,100,200,,,,,,,,,,,,,,,,,,ERREUR E20 aucune relation trouvee</VerifyRelationResult>`
)

var relationNumberRe = regexp.MustCompile(`<RelationNumber>([^<]*)</RelationNumber>`)

// MockTransport serves canned responses keyed by the relation number found
// in the envelope. Used when no federation credentials are configured and in
// tests. A configurable latency mimics the real upstream's response times.
type MockTransport struct {
	fixtures map[string]string
	fallback string
	latency  time.Duration
	calls    atomic.Int64
}

var _ Transport = (*MockTransport)(nil)

// MockOption configures the MockTransport.
type MockOption func(*MockTransport)

// WithFixture maps a relation number to a canned response body.
func WithFixture(relationID, body string) MockOption {
	return func(m *MockTransport) {
		m.fixtures[relationID] = body
	}
}

// WithFallback sets the body served when no fixture matches. Defaults to
// the not-found payload.
func WithFallback(body string) MockOption {
	return func(m *MockTransport) {
		m.fallback = body
	}
}

// WithLatency delays every Send to mimic the real upstream.
func WithLatency(d time.Duration) MockOption {
	return func(m *MockTransport) {
		m.latency = d
	}
}

// NewMockTransport creates a fixture-backed transport. It logs a warning so
// a misconfigured production deployment is visible immediately.
func NewMockTransport(log *slog.Logger, opts ...MockOption) *MockTransport {
	m := &MockTransport{
		fixtures: map[string]string{
			"1756134": MockSuccessBody,
		},
		fallback: MockNotFoundBody,
	}
	for _, opt := range opts {
		opt(m)
	}
	log.Warn("mock federation transport active; verification results are canned")
	return m
}

// Send returns the fixture matching the envelope's relation number, or the
// fallback body.
func (m *MockTransport) Send(ctx context.Context, envelope string) (string, error) {
	m.calls.Add(1)

	if m.latency > 0 {
		select {
		case <-time.After(m.latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if match := relationNumberRe.FindStringSubmatch(envelope); match != nil {
		if body, ok := m.fixtures[match[1]]; ok {
			return body, nil
		}
	}
	return m.fallback, nil
}

// Calls reports how many envelopes were sent. Tests use it to assert
// single-flight behaviour.
func (m *MockTransport) Calls() int64 {
	return m.calls.Load()
}
