package transport

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"embermoo/internal/config"
	"embermoo/internal/engine"
)

func TestServerAcceptsConnectionAndSendsWelcome(t *testing.T) {
	world := engine.NewWorld(zap.NewNop().Sugar())
	cfg := config.Server{ListenAddress: "127.0.0.1", ListenPort: 0, OpCommandPrefix: "@"}
	srv := New(cfg, world, zap.NewNop().Sugar())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv.listener = ln
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		srv.handle(conn)
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	reader := bufio.NewReader(client)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "Welcome.")
}

func TestServerShutdownStopsAcceptLoop(t *testing.T) {
	world := engine.NewWorld(zap.NewNop().Sugar())
	cfg := config.Server{ListenAddress: "127.0.0.1", ListenPort: 0}
	srv := New(cfg, world, zap.NewNop().Sugar())

	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe()
	}()

	// give ListenAndServe a moment to bind before shutting down
	deadline := time.Now().Add(2 * time.Second)
	for srv.listener == nil && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.NotNil(t, srv.listener)

	require.NoError(t, srv.Shutdown())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ListenAndServe did not return after Shutdown")
	}
}
