package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patent-normalizer/internal/config"
	"github.com/turtacn/patent-normalizer/internal/interfaces/http/handlers"
	"github.com/turtacn/patent-normalizer/internal/testutil"
)

func TestNewServer(t *testing.T) {
	s := NewServer(config.ServerConfig{Port: 8080}, http.NewServeMux(), nil)
	assert.Equal(t, ":8080", s.Addr())
	assert.Equal(t, 30*time.Second, s.shutdownTimeout)
}

func TestServer_ServeAndStop(t *testing.T) {
	logger := testutil.NewMockLogger()
	router := NewRouter(RouterConfig{HealthHandler: handlers.NewHealthHandler("test")})
	s := NewServer(config.ServerConfig{ShutdownTimeout: time.Second}, router, logger)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- s.Serve(l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"alive"`)

	require.NoError(t, s.Stop(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
	assert.True(t, logger.HasMessage("info", "HTTP server stopped"))
}

//Personal.AI order the ending
