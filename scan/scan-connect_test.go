package scan

import (
	"context"
	"errors"
	"net"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/phayes/freeport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startListener(t *testing.T) int {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	return listener.Addr().(*net.TCPAddr).Port
}

type trackedConn struct {
	net.Conn
	closed *atomic.Bool
}

func (c trackedConn) Close() error {
	c.closed.Store(true)
	return c.Conn.Close()
}

type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

func (f dialFunc) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return f(ctx, network, address)
}

func TestProbeOpenPort(t *testing.T) {
	port := startListener(t)

	prober := NewConnectProber(DefaultTimeout, FoldErrors)
	state, err := prober.Probe(context.Background(), "127.0.0.1", port)
	require.NoError(t, err)
	assert.Equal(t, PortOpen, state)
}

func TestProbeClosedPort(t *testing.T) {
	port, err := freeport.GetFreePort()
	require.NoError(t, err)

	prober := NewConnectProber(DefaultTimeout, FoldErrors)
	state, err := prober.Probe(context.Background(), "127.0.0.1", port)
	require.NoError(t, err)
	assert.Equal(t, PortClosed, state)
}

func TestProbeIsRepeatable(t *testing.T) {
	open := startListener(t)
	closed, err := freeport.GetFreePort()
	require.NoError(t, err)

	prober := NewConnectProber(DefaultTimeout, FoldErrors)
	for i := 0; i < 3; i++ {
		state, err := prober.Probe(context.Background(), "127.0.0.1", open)
		require.NoError(t, err)
		assert.Equal(t, PortOpen, state)

		state, err = prober.Probe(context.Background(), "127.0.0.1", closed)
		require.NoError(t, err)
		assert.Equal(t, PortClosed, state)
	}
}

func TestProbeLateConnectIsClosed(t *testing.T) {
	closed := &atomic.Bool{}

	prober := NewConnectProber(400*time.Millisecond, FoldErrors)
	prober.SetDialer(dialFunc(func(ctx context.Context, network, address string) (net.Conn, error) {
		// completes the handshake after the budget, ignoring cancellation
		time.Sleep(500 * time.Millisecond)
		client, server := net.Pipe()
		_ = server.Close()
		return trackedConn{Conn: client, closed: closed}, nil
	}))

	state, err := prober.Probe(context.Background(), "127.0.0.1", 5000)
	require.NoError(t, err)
	assert.Equal(t, PortClosed, state)
	assert.True(t, closed.Load(), "late connection should be released before the probe returns")
}

func TestProbeTimeoutCancelsDial(t *testing.T) {
	prober := NewConnectProber(50*time.Millisecond, StrictErrors)
	prober.SetDialer(dialFunc(func(ctx context.Context, network, address string) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	start := time.Now()
	state, err := prober.Probe(context.Background(), "127.0.0.1", 5000)
	require.NoError(t, err)
	assert.Equal(t, PortClosed, state)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestProbeClosesOpenConnection(t *testing.T) {
	closed := &atomic.Bool{}

	prober := NewConnectProber(DefaultTimeout, FoldErrors)
	prober.SetDialer(dialFunc(func(ctx context.Context, network, address string) (net.Conn, error) {
		assert.Equal(t, "tcp", network)
		assert.Equal(t, "localhost:7000", address)
		client, server := net.Pipe()
		_ = server.Close()
		return trackedConn{Conn: client, closed: closed}, nil
	}))

	state, err := prober.Probe(context.Background(), "", 7000)
	require.NoError(t, err)
	assert.Equal(t, PortOpen, state)
	assert.True(t, closed.Load())
}

func TestProbeErrorPolicies(t *testing.T) {
	resolveErr := &net.DNSError{Err: "no such host", Name: "nowhere.invalid", IsNotFound: true}
	refusedErr := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

	tests := []struct {
		name      string
		policy    ErrorPolicy
		dialErr   error
		wantState PortState
		wantErr   bool
	}{
		{name: "fold resolution failure", policy: FoldErrors, dialErr: resolveErr, wantState: PortClosed},
		{name: "fold refusal", policy: FoldErrors, dialErr: refusedErr, wantState: PortClosed},
		{name: "strict resolution failure", policy: StrictErrors, dialErr: resolveErr, wantState: PortUnknown, wantErr: true},
		{name: "strict refusal", policy: StrictErrors, dialErr: refusedErr, wantState: PortClosed},
		{name: "strict deadline", policy: StrictErrors, dialErr: context.DeadlineExceeded, wantState: PortClosed},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			prober := NewConnectProber(DefaultTimeout, test.policy)
			prober.SetDialer(dialFunc(func(ctx context.Context, network, address string) (net.Conn, error) {
				return nil, test.dialErr
			}))

			state, err := prober.Probe(context.Background(), "nowhere.invalid", 80)
			assert.Equal(t, test.wantState, state)
			if !test.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var probeErr *ProbeError
			require.True(t, errors.As(err, &probeErr))
			assert.Equal(t, "nowhere.invalid", probeErr.Host)
			assert.Equal(t, 80, probeErr.Port)
			assert.True(t, errors.Is(err, test.dialErr))
		})
	}
}

func TestProbeIgnoresCallerCancellation(t *testing.T) {
	port := startListener(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prober := NewConnectProber(DefaultTimeout, FoldErrors)
	state, err := prober.Probe(ctx, "127.0.0.1", port)
	require.NoError(t, err)
	assert.Equal(t, PortOpen, state)
}
