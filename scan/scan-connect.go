package scan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"
)

type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// ProbeError is returned by a strict prober when a connection attempt fails
// for a reason other than a timeout or a refusal.
type ProbeError struct {
	Host string
	Port int
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe of %s failed: %s", net.JoinHostPort(e.Host, strconv.Itoa(e.Port)), e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

type dialResult struct {
	conn net.Conn
	err  error
}

// ConnectProber classifies a port by attempting a full TCP handshake.
type ConnectProber struct {
	timeout time.Duration
	policy  ErrorPolicy
	dialer  Dialer
}

func NewConnectProber(timeout time.Duration, policy ErrorPolicy) *ConnectProber {
	return &ConnectProber{
		timeout: timeout,
		policy:  policy,
		dialer:  &net.Dialer{KeepAlive: -1},
	}
}

func (p *ConnectProber) SetDialer(dialer Dialer) {
	p.dialer = dialer
}

// Probe makes one connection attempt and reports PortOpen only if the
// handshake completes within the timeout. It returns once the connection,
// if any, has been closed.
func (p *ConnectProber) Probe(ctx context.Context, host string, port int) (PortState, error) {

	if host == "" {
		host = DefaultHost
	}
	address := net.JoinHostPort(host, strconv.Itoa(port))

	// cancelling the caller's context must not interrupt an attempt in flight
	dialCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	dialed := make(chan dialResult, 1)
	go func() {
		conn, err := p.dialer.DialContext(dialCtx, "tcp", address)
		dialed <- dialResult{conn: conn, err: err}
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case result := <-dialed:
		if result.err != nil {
			return p.classify(host, port, result.err)
		}
		shutdown(result.conn)
		return PortOpen, nil
	case <-timer.C:
		cancel()
		if result := <-dialed; result.err == nil {
			abort(result.conn)
		}
		return PortClosed, nil
	}
}

func (p *ConnectProber) classify(host string, port int, err error) (PortState, error) {
	if p.policy != StrictErrors || isTimeout(err) || isRefused(err) {
		return PortClosed, nil
	}
	return PortUnknown, &ProbeError{
		Host: host,
		Port: port,
		Err:  err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	return strings.Contains(err.Error(), "refused")
}

func shutdown(conn net.Conn) {
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}
	_ = conn.Close()
}

// abort drops the connection with a RST instead of a FIN.
func abort(conn net.Conn) {
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetLinger(0)
	}
	_ = conn.Close()
}
