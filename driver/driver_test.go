package driver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftmongo/corewire/connection"
)

func TestNewAppliesDefaults(t *testing.T) {
	d := New(Config{})
	require.Equal(t, 10, d.cfg.MaxConnectionsPerEndpoint)
	require.Equal(t, 5*time.Second, d.cfg.ConnectTimeout)
	require.Equal(t, 30*time.Second, d.cfg.RequestTimeout)
	require.Equal(t, 5*time.Second, d.cfg.ShutdownTimeout)
	require.Equal(t, 100*time.Millisecond, d.cfg.ReconnectBase)
	require.Equal(t, 30*time.Second, d.cfg.ReconnectCap)
	require.Equal(t, 0.2, d.cfg.ReconnectJitter)
	require.Equal(t, 5, d.cfg.MaxConsecutiveFailures)
}

func TestNewPreservesExplicitConfig(t *testing.T) {
	d := New(Config{MaxConnectionsPerEndpoint: 3, RequestTimeout: time.Minute})
	require.Equal(t, 3, d.cfg.MaxConnectionsPerEndpoint)
	require.Equal(t, time.Minute, d.cfg.RequestTimeout)
}

func TestConnectReturnsUsableSupervisor(t *testing.T) {
	serverCh := make(chan net.Conn, 1)
	dialer := connection.DialerFunc(func(ctx context.Context, network, address string) (net.Conn, error) {
		client, server := net.Pipe()
		serverCh <- server
		return client, nil
	})

	d := New(Config{MaxConnectionsPerEndpoint: 1, Dialer: dialer})
	sup := d.Connect("test-endpoint")
	defer sup.Shutdown(context.Background())

	connCh := make(chan error, 1)
	go func() {
		_, err := sup.Acquire(context.Background())
		connCh <- err
	}()

	select {
	case server := <-serverCh:
		server.Close()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dial")
	}

	select {
	case err := <-connCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Acquire")
	}
}
