package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/spams12/gege/internal/cfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerServeAndStop(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	srv := NewServer(handler, &cfg.HTTPConfig{Port: "0", ReadTimeout: time.Second, WriteTimeout: time.Second})

	served := make(chan error, 1)
	go func() { served <- srv.Serve(lis) }()

	res, err := http.Get("http://" + lis.Addr().String())
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, res.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	// Остановка через Stop не считается ошибкой Serve
	assert.NoError(t, <-served)
}

func TestNewServerAddr(t *testing.T) {
	srv := NewServer(http.NotFoundHandler(), &cfg.HTTPConfig{Port: "8080"})
	assert.Equal(t, ":8080", srv.httpServer.Addr)
	assert.Equal(t, readHeaderTimeout, srv.httpServer.ReadHeaderTimeout)
}
