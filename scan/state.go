package scan

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownState = errors.New("unknown port state")

type PortState uint8

const (
	// PortUnknown is only ever returned alongside an error.
	PortUnknown PortState = iota
	PortOpen
	PortClosed
)

func (s PortState) String() string {
	switch s {
	case PortOpen:
		return "open"
	case PortClosed:
		return "closed"
	}
	return "unknown"
}

// ParsePortState accepts "open"/"in-use" and "closed"/"free", case-insensitively.
func ParsePortState(input string) (PortState, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "open", "in-use", "inuse", "used":
		return PortOpen, nil
	case "closed", "free", "not-in-use", "unused":
		return PortClosed, nil
	}
	return PortUnknown, fmt.Errorf("%w: '%s'", ErrUnknownState, input)
}
