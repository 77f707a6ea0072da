package scan

import (
	"strings"

	"github.com/google/gopacket/layers"
)

const (
	MinPort = 0
	MaxPort = 65535
)

// DescribePort returns the IANA service name registered for a TCP port, or
// an empty string if there is none.
func DescribePort(port int) string {
	if port < MinPort || port > MaxPort {
		return ""
	}

	// TCPPort renders as "80(http)" when the port has a registered name
	described := layers.TCPPort(port).String()
	start := strings.IndexByte(described, '(')
	if start < 0 || !strings.HasSuffix(described, ")") {
		return ""
	}

	return described[start+1 : len(described)-1]
}
