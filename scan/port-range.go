package scan

import (
	"errors"
	"fmt"
)

var ErrInvalidPort = errors.New("invalid port")

// PortRange is an inclusive range of ports. A range whose Start is greater
// than its End is valid and contains no ports.
type PortRange struct {
	Start int
	End   int
}

func NewPortRange(start, end int) PortRange {
	return PortRange{
		Start: start,
		End:   end,
	}
}

// RangeFrom returns the range from start up to MaxPort.
func RangeFrom(start int) PortRange {
	return NewPortRange(start, MaxPort)
}

func (r PortRange) Size() int {
	if r.Start > r.End {
		return 0
	}
	return r.End - r.Start + 1
}

func (r PortRange) Validate() error {
	if err := ValidatePort(r.Start); err != nil {
		return err
	}
	return ValidatePort(r.End)
}

func (r PortRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

func ValidatePort(port int) error {
	if port < MinPort || port > MaxPort {
		return fmt.Errorf("%w: %d is outside %d-%d", ErrInvalidPort, port, MinPort, MaxPort)
	}
	return nil
}
