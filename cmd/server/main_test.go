package main

import (
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestServe(t *testing.T) {
	t.Run("returns listener error instead of exiting", func(t *testing.T) {
		taken, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer taken.Close()

		core, logs := observer.New(zapcore.InfoLevel)
		srv := &http.Server{Addr: taken.Addr().String(), Handler: http.NotFoundHandler()}

		err = serve(srv, make(chan os.Signal), zap.New(core))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "server failed")
		assert.Equal(t, 1, logs.FilterMessage("Server failed").Len())
	})

	t.Run("shuts down on signal", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

		quit := make(chan os.Signal, 1)
		quit <- syscall.SIGTERM

		require.NoError(t, serve(srv, quit, zap.New(core)))
		assert.Equal(t, 1, logs.FilterMessage("Server exited").Len())
	})
}
