package ipxsp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opd-ai/ipxsp/ipx"
	simtest "github.com/opd-ai/ipxsp/testing"
)

const testTimeout = 2 * time.Second

type testEnv struct {
	network *simtest.SimulatedNetwork
	host    *simtest.SimulatedHost
	conn    *Connection
	sock    *simtest.SimulatedSocket
}

// newTestEnv initializes a provider on a fresh simulated network.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	network := simtest.NewSimulatedNetwork(nil)
	return newTestEnvOn(t, network)
}

func newTestEnvOn(t *testing.T, network *simtest.SimulatedNetwork) *testEnv {
	t.Helper()
	host := simtest.NewSimulatedHost()

	res, err := Init(&InitData{GUID: ProviderGUID, Host: host, Opener: network})
	require.NoError(t, err)

	conn := res.Provider.(*Connection)
	env := &testEnv{
		network: network,
		host:    host,
		conn:    conn,
		sock:    conn.state.socket.(*simtest.SimulatedSocket),
	}
	t.Cleanup(func() {
		if !env.sock.Closed() {
			_ = conn.ShutdownEx()
		}
	})
	return env
}

// openPeer opens a bare socket on the same network to observe traffic.
func (e *testEnv) openPeer(t *testing.T) *simtest.SimulatedSocket {
	t.Helper()
	sock, err := e.network.Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sock.Close() })
	return sock.(*simtest.SimulatedSocket)
}

// hostMessage prefixes payload with the space the host reserves for the
// address header.
func hostMessage(payload string) []byte {
	return append(make([]byte, HeaderSize), payload...)
}

// recvPeer reads one datagram from sock or fails the test.
func recvPeer(t *testing.T, sock ipx.Socket) (string, ipx.Addr) {
	t.Helper()
	type result struct {
		data string
		from ipx.Addr
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		buf := make([]byte, 2048)
		n, from, err := sock.RecvFrom(buf)
		ch <- result{string(buf[:n]), from, err}
	}()

	select {
	case r := <-ch:
		require.NoError(t, r.err)
		return r.data, r.from
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for datagram")
		return "", ipx.Addr{}
	}
}

// worker returns the current worker handle.
func (e *testEnv) worker() *receiveWorker {
	var w *receiveWorker
	_ = e.conn.withLock(func(s *connState) error {
		w = s.worker
		return nil
	})
	return w
}

func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(testTimeout):
		t.Fatalf("timed out waiting for %s", what)
	}
}
