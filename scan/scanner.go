package scan

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// NotFound is the port returned alongside found == false.
const NotFound = -1

type Prober interface {
	Probe(ctx context.Context, host string, port int) (PortState, error)
}

// Scanner probes the ports of a single host, one at a time, in ascending
// order. It holds no state between calls and is safe for concurrent use.
type Scanner struct {
	prober  Prober
	host    string
	log     logrus.FieldLogger
	onProbe func(port int, state PortState)
}

func NewScanner(config Config) (*Scanner, error) {
	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return NewScannerWithProber(NewConnectProber(config.Timeout, config.ErrorPolicy), config.Host), nil
}

func NewScannerWithProber(prober Prober, host string) *Scanner {
	if host == "" {
		host = DefaultHost
	}

	silent := logrus.New()
	silent.SetOutput(io.Discard)

	return &Scanner{
		prober: prober,
		host:   host,
		log:    silent,
	}
}

func (s *Scanner) SetLogger(logger logrus.FieldLogger) {
	s.log = logger
}

// OnProbe registers a function called after every successful probe. It must
// be set before the scanner is used.
func (s *Scanner) OnProbe(fn func(port int, state PortState)) {
	s.onProbe = fn
}

func (s *Scanner) Host() string {
	return s.host
}

func (s *Scanner) CheckPortStatus(ctx context.Context, port int) (PortState, error) {
	if err := ValidatePort(port); err != nil {
		return PortUnknown, err
	}
	return s.probe(ctx, port)
}

// FindPortInUse returns the first open port in the range.
func (s *Scanner) FindPortInUse(ctx context.Context, ports PortRange) (int, bool, error) {
	return s.FindPortWithState(ctx, PortOpen, ports)
}

// FindPortNotInUse returns the first closed port in the range.
func (s *Scanner) FindPortNotInUse(ctx context.Context, ports PortRange) (int, bool, error) {
	return s.FindPortWithState(ctx, PortClosed, ports)
}

// FindPortWithState probes the range in ascending order and stops at the
// first port whose state matches. If the range is exhausted it returns
// NotFound and false. A probe error or a cancelled context aborts the scan
// and no port is returned. The context is only checked between probes.
func (s *Scanner) FindPortWithState(ctx context.Context, state PortState, ports PortRange) (int, bool, error) {

	if state != PortOpen && state != PortClosed {
		return NotFound, false, fmt.Errorf("%w: cannot search for %s ports", ErrUnknownState, state)
	}

	if err := ports.Validate(); err != nil {
		return NotFound, false, err
	}

	total := ports.Size()
	logger := s.log.WithFields(logrus.Fields{
		"host":   s.host,
		"range":  ports.String(),
		"target": state.String(),
	})
	logger.Debugf("Scanning %d ports...", total)

	port := ports.Start
	checked := 0
	found := false

	for !found && checked < total {
		if err := ctx.Err(); err != nil {
			return NotFound, false, err
		}

		current, err := s.probe(ctx, port)
		checked++
		if err != nil {
			return NotFound, false, fmt.Errorf("scan of %s on %s stopped at port %d: %w", ports, s.host, port, err)
		}

		if current == state {
			found = true
		} else {
			port++
		}
	}

	if !found {
		logger.Debugf("No matching port after %d probes", checked)
		return NotFound, false, nil
	}

	logger.Debugf("Found port %d after %d probes", port, checked)
	return port, true, nil
}

func (s *Scanner) probe(ctx context.Context, port int) (PortState, error) {

	logger := s.log.WithFields(logrus.Fields{
		"host": s.host,
		"port": port,
	})

	state, err := s.prober.Probe(ctx, s.host, port)
	if err != nil {
		logger.WithError(err).Debug("Probe failed")
		return PortUnknown, err
	}

	logger.WithField("state", state.String()).Debug("Probed port")
	if s.onProbe != nil {
		s.onProbe(port, state)
	}

	return state, nil
}

func newHostScanner(host string) (*Scanner, error) {
	config := DefaultConfig()
	if host != "" {
		config.Host = host
	}
	return NewScanner(config)
}

// CheckPortStatus probes a single port with the default configuration. An
// empty host means DefaultHost.
func CheckPortStatus(ctx context.Context, port int, host string) (PortState, error) {
	scanner, err := newHostScanner(host)
	if err != nil {
		return PortUnknown, err
	}
	return scanner.CheckPortStatus(ctx, port)
}

// FindAPortInUse returns the first open port between start and end inclusive.
func FindAPortInUse(ctx context.Context, start, end int, host string) (int, bool, error) {
	scanner, err := newHostScanner(host)
	if err != nil {
		return NotFound, false, err
	}
	return scanner.FindPortInUse(ctx, NewPortRange(start, end))
}

// FindAPortNotInUse returns the first closed port between start and end inclusive.
func FindAPortNotInUse(ctx context.Context, start, end int, host string) (int, bool, error) {
	scanner, err := newHostScanner(host)
	if err != nil {
		return NotFound, false, err
	}
	return scanner.FindPortNotInUse(ctx, NewPortRange(start, end))
}
