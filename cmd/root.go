package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/liamg/portfinder/scan"
	"github.com/liamg/portfinder/version"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var debug bool
var timeoutMS int
var host string
var configPath string
var strict bool
var showProgress bool
var noColor bool
var versionRequested bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&versionRequested, "version", "", versionRequested, "Output version information and exit")
	rootCmd.PersistentFlags().BoolVarP(&debug, "verbose", "v", debug, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&host, "host", "H", host, "Host to scan (default \"localhost\")")
	rootCmd.PersistentFlags().IntVarP(&timeoutMS, "timeout-ms", "t", timeoutMS, "Per-port timeout in MS (default 400)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&strict, "strict", "", strict, "Fail on connection errors other than timeouts and refusals")
	rootCmd.PersistentFlags().BoolVarP(&showProgress, "progress", "P", showProgress, "Show a progress bar while scanning a range")
	rootCmd.PersistentFlags().BoolVarP(&noColor, "no-color", "", noColor, "Disable coloured output")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(findOpenCmd)
	rootCmd.AddCommand(findClosedCmd)
}

var rootCmd = &cobra.Command{
	Use:   "portfinder",
	Short: "Portfinder finds open and closed TCP ports",
	Long:  `Checks the status of TCP ports and finds the first open or closed port in a range.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			log.SetLevel(log.DebugLevel)
		}
		if noColor {
			color.NoColor = true
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if versionRequested {
			v := version.Version
			if v == "" {
				v = "development version"
			}
			fmt.Printf("portfinder %s\n", v)
			return
		}
		_ = cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func buildConfig() (scan.Config, error) {

	config := scan.DefaultConfig()

	if configPath != "" {
		loaded, err := scan.LoadConfig(configPath)
		if err != nil {
			return config, err
		}
		config = loaded
	}

	if host != "" {
		config.Host = host
	}

	if timeoutMS < 0 {
		return config, fmt.Errorf("Invalid timeout: %dms", timeoutMS)
	} else if timeoutMS > 0 {
		config.Timeout = time.Millisecond * time.Duration(timeoutMS)
	}

	if strict {
		config.ErrorPolicy = scan.StrictErrors
	}

	return config, config.Validate()
}

func createScanner() (*scan.Scanner, error) {
	config, err := buildConfig()
	if err != nil {
		return nil, err
	}

	scanner, err := scan.NewScanner(config)
	if err != nil {
		return nil, err
	}
	scanner.SetLogger(log.StandardLogger())

	log.Debugf("Using host %s with a %s timeout (%s errors)", config.Host, config.Timeout, config.ErrorPolicy)
	return scanner, nil
}

// scanContext is cancelled on interrupt; a scan stops before its next probe.
func scanContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func parsePort(input string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("Invalid port number: '%s'", input)
	}
	if err := scan.ValidatePort(port); err != nil {
		return 0, err
	}
	return port, nil
}

// parseRange reads START [END]; END defaults to the highest port. "START-END"
// is accepted as a single argument.
func parseRange(args []string) (scan.PortRange, error) {

	if len(args) == 1 && strings.Contains(args[0], "-") {
		parts := strings.Split(args[0], "-")
		if len(parts) != 2 {
			return scan.PortRange{}, fmt.Errorf("Invalid port range: '%s'", args[0])
		}
		args = parts
	}

	if len(args) == 0 || len(args) > 2 {
		return scan.PortRange{}, fmt.Errorf("Expected START [END], got %d arguments", len(args))
	}

	start, err := parsePort(args[0])
	if err != nil {
		return scan.PortRange{}, err
	}

	if len(args) == 1 {
		return scan.RangeFrom(start), nil
	}

	end, err := parsePort(args[1])
	if err != nil {
		return scan.PortRange{}, err
	}

	return scan.NewPortRange(start, end), nil
}
