package scan

import (
	"fmt"
	"time"
)

// Result describes the outcome of a single port check.
type Result struct {
	Host    string
	Port    int
	State   PortState
	Latency time.Duration
}

func (r Result) String() string {
	return fmt.Sprintf(
		"%s%s%s",
		pad(fmt.Sprintf("%d/tcp", r.Port), 12),
		pad(r.State.String(), 10),
		DescribePort(r.Port),
	)
}

func ResultHeader() string {
	return fmt.Sprintf("%s%s%s", pad("PORT", 12), pad("STATE", 10), "SERVICE")
}

// SearchResult describes the outcome of a range scan.
type SearchResult struct {
	Host    string
	Target  PortState
	Range   PortRange
	Port    int
	Found   bool
	Checked int
	Elapsed time.Duration
}

func NewSearchResult(host string, target PortState, ports PortRange) SearchResult {
	return SearchResult{
		Host:   host,
		Target: target,
		Range:  ports,
		Port:   NotFound,
	}
}

func (r SearchResult) String() string {

	if !r.Found {
		return fmt.Sprintf("No %s port on %s in range %s (%d checked)", r.Target, r.Host, r.Range, r.Checked)
	}

	text := fmt.Sprintf("First %s port on %s in range %s: %d", r.Target, r.Host, r.Range, r.Port)
	if service := DescribePort(r.Port); service != "" {
		text = fmt.Sprintf("%s (%s)", text, service)
	}
	return text
}

func pad(input string, length int) string {
	for len(input) < length {
		input += " "
	}
	return input
}
