package scan

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHost    = "localhost"
	DefaultTimeout = 400 * time.Millisecond
)

var ErrInvalidTimeout = errors.New("timeout must be greater than zero")

// ErrorPolicy decides what a probe does with connection errors other than
// a timeout or a refusal.
type ErrorPolicy string

const (
	// FoldErrors reports every failed connection attempt as PortClosed.
	FoldErrors ErrorPolicy = "fold"

	// StrictErrors reports timeouts and refusals as PortClosed and returns
	// every other failure (resolution, unreachable network...) as a *ProbeError.
	StrictErrors ErrorPolicy = "strict"
)

type Config struct {
	Host        string        `yaml:"host"`
	Timeout     time.Duration `yaml:"timeout"`
	ErrorPolicy ErrorPolicy   `yaml:"errors"`
}

func DefaultConfig() Config {
	return Config{
		Host:        DefaultHost,
		Timeout:     DefaultTimeout,
		ErrorPolicy: FoldErrors,
	}
}

// LoadConfig reads a YAML file over the defaults. Missing keys keep their
// default values.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	content, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(content, &config); err != nil {
		return config, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	config.setDefaults()

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

func (c *Config) setDefaults() {
	if strings.TrimSpace(c.Host) == "" {
		c.Host = DefaultHost
	}
	if c.ErrorPolicy == "" {
		c.ErrorPolicy = FoldErrors
	}
}

func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.Timeout)
	}
	switch c.ErrorPolicy {
	case FoldErrors, StrictErrors:
	default:
		return fmt.Errorf("unknown error policy '%s': must be one of %s, %s", c.ErrorPolicy, FoldErrors, StrictErrors)
	}
	return nil
}
