package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dossard/internal/verify/protocol"
	dErrors "dossard/pkg/domain-errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPTransport_Send(t *testing.T) {
	var gotContentType, gotAction, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotAction = r.Header.Get("SOAPAction")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(MockSuccessBody))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(Config{URL: srv.URL, Timeout: time.Second}, testLogger())

	body, err := tr.Send(context.Background(), "<envelope/>")

	require.NoError(t, err)
	assert.Equal(t, MockSuccessBody, body)
	assert.Equal(t, protocol.ContentType, gotContentType)
	assert.Equal(t, protocol.Action, gotAction)
	assert.Equal(t, "<envelope/>", gotBody)
}

func TestHTTPTransport_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 5000)))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(Config{URL: srv.URL, Timeout: time.Second}, testLogger())

	_, err := tr.Send(context.Background(), "<envelope/>")

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTransportFailure))
	// body excerpt is bounded
	assert.Less(t, len(err.Error()), 400)
}

func TestHTTPTransport_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	tr := NewHTTPTransport(Config{URL: srv.URL, Timeout: 50 * time.Millisecond}, testLogger())

	_, err := tr.Send(context.Background(), "<envelope/>")

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestHTTPTransport_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	tr := NewHTTPTransport(Config{URL: url, Timeout: time.Second}, testLogger())

	_, err := tr.Send(context.Background(), "<envelope/>")

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTransportFailure))
}

func TestHTTPTransport_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var served int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		served++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := NewHTTPTransport(Config{
		URL:             srv.URL,
		Timeout:         time.Second,
		BreakerFailures: 2,
		BreakerCooldown: time.Minute,
	}, testLogger())

	for i := 0; i < 5; i++ {
		_, err := tr.Send(context.Background(), "<envelope/>")
		require.Error(t, err)
	}

	// the circuit opened after two failures; later calls never hit the server
	assert.Equal(t, 2, served)
}

func TestHTTPTransport_RateLimiterRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(MockSuccessBody))
	}))
	defer srv.Close()

	// one request per minute with burst 1: the second call would block
	tr := NewHTTPTransport(Config{
		URL:               srv.URL,
		Timeout:           time.Second,
		RequestsPerSecond: 1.0 / 60.0,
		Burst:             1,
	}, testLogger())

	_, err := tr.Send(context.Background(), "<envelope/>")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = tr.Send(ctx, "<envelope/>")

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTransportFailure))
}

func TestMockTransport_FixtureByRelationNumber(t *testing.T) {
	m := NewMockTransport(testLogger(),
		WithFixture("999", "<VerifyRelationResult>custom</VerifyRelationResult>"),
	)

	body, err := m.Send(context.Background(), "<RelationNumber>999</RelationNumber>")
	require.NoError(t, err)
	assert.Contains(t, body, "custom")

	body, err = m.Send(context.Background(), "<RelationNumber>1756134</RelationNumber>")
	require.NoError(t, err)
	assert.Equal(t, MockSuccessBody, body)

	assert.Equal(t, int64(2), m.Calls())
}

func TestMockTransport_FallbackIsNotFound(t *testing.T) {
	m := NewMockTransport(testLogger())

	body, err := m.Send(context.Background(), "<RelationNumber>0000000</RelationNumber>")

	require.NoError(t, err)
	assert.Contains(t, body, "E20")
}

func TestMockTransport_LatencyHonorsContext(t *testing.T) {
	m := NewMockTransport(testLogger(), WithLatency(time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.Send(ctx, "<RelationNumber>1756134</RelationNumber>")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
