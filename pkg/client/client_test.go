package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithRetryWait(time.Millisecond, 5*time.Millisecond)}, opts...)
	client, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return client
}

type testLogger struct {
	lastMsg atomic.Value
	count   int32
}

func (l *testLogger) Debugf(format string, args ...interface{}) { l.log(format, args...) }
func (l *testLogger) Infof(format string, args ...interface{})  { l.log(format, args...) }
func (l *testLogger) Errorf(format string, args ...interface{}) { l.log(format, args...) }

func (l *testLogger) log(format string, args ...interface{}) {
	atomic.AddInt32(&l.count, 1)
	l.lastMsg.Store(fmt.Sprintf(format, args...))
}

// ---------------------------------------------------------------------------
// Constructor
// ---------------------------------------------------------------------------

func TestNewClient_Success(t *testing.T) {
	c, err := NewClient("http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.baseURL)
	assert.Equal(t, 3, c.retryMax)
	assert.Contains(t, c.userAgent, "patentnorm-go-sdk/")
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, u := range []string{"", "ftp://host", "invalid-url", "http://"} {
		_, err := NewClient(u)
		assert.True(t, errors.IsCode(err, errors.ErrCodeValidation), u)
	}
}

func TestNewClient_WithOptions(t *testing.T) {
	hc := &http.Client{Timeout: 10 * time.Second}
	logger := &testLogger{}
	c, err := NewClient("http://localhost:8080",
		WithHTTPClient(hc),
		WithLogger(logger),
		WithRetryMax(5),
		WithAPIKey("secret"),
	)
	require.NoError(t, err)
	assert.Same(t, hc, c.httpClient)
	assert.Equal(t, logger, c.logger)
	assert.Equal(t, 5, c.retryMax)
	assert.Equal(t, "secret", c.apiKey)
}

// ---------------------------------------------------------------------------
// do
// ---------------------------------------------------------------------------

func TestClient_Do_RequestHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Contains(t, r.Header.Get("User-Agent"), "patentnorm-go-sdk/")
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.get(context.Background(), "/x", nil, nil))
}

func TestClient_Do_APIKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
	}, WithAPIKey("secret"))
	require.NoError(t, c.get(context.Background(), "x", nil, nil))
}

func TestClient_Do_4xxError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"code":"DOCID_001","message":"no number","detail":"USABC"}`))
	})
	err := c.get(context.Background(), "/x", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "DOCID_001", apiErr.Code)
	assert.Equal(t, "no number", apiErr.Message)
	assert.Equal(t, "USABC", apiErr.Detail)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Do_NonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("nope"))
	})
	err := c.get(context.Background(), "/x", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsDisabled())
	assert.Equal(t, "nope", apiErr.Message)
}

func TestClient_Do_Retries5xx(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"format":"sgml","method":"content","known":true}`))
	})
	var d Detection
	require.NoError(t, c.get(context.Background(), "/x", nil, &d))
	assert.Equal(t, "sgml", d.Format)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Do_RetriesExhausted(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}, WithRetryMax(2))
	err := c.get(context.Background(), "/x", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Do_RateLimited(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.get(context.Background(), "/x", nil, nil))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Do_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, WithRetryWait(time.Second, time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.get(ctx, "/x", nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Do_BadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{"))
	})
	var d Detection
	err := c.get(context.Background(), "/x", nil, &d)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}

func TestClient_Do_LogsRequests(t *testing.T) {
	logger := &testLogger{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, WithLogger(logger))
	require.NoError(t, c.get(context.Background(), "/x", nil, nil))
	assert.Equal(t, int32(1), atomic.LoadInt32(&logger.count))
	assert.Contains(t, logger.lastMsg.Load(), "GET /x 200")
}

func TestCalculateBackoff(t *testing.T) {
	c := &Client{retryWaitMin: 100 * time.Millisecond, retryWaitMax: 300 * time.Millisecond}
	b := c.calculateBackoff(1)
	assert.GreaterOrEqual(t, b, 100*time.Millisecond)
	assert.Less(t, b, 125*time.Millisecond)

	b = c.calculateBackoff(5)
	assert.GreaterOrEqual(t, b, 300*time.Millisecond)
	assert.Less(t, b, 375*time.Millisecond)
}

func TestEscapePath(t *testing.T) {
	assert.Equal(t, "D07B2201/2051", escapePath("D07B2201/2051"))
	assert.Equal(t, "US%202005/0123456%20A1", escapePath("US 2005/0123456 A1"))
	assert.Equal(t, "A%23B", escapePath("A#B"))
}

//Personal.AI order the ending
