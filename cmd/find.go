package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/liamg/portfinder/scan"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// exitNotFound lets scripts tell an exhausted range from a failure.
const exitNotFound = 2

var targetState = "open"

func init() {
	findCmd.Flags().StringVarP(&targetState, "state", "s", targetState, "State to search for. Must be one of open, closed")
}

var findCmd = &cobra.Command{
	Use:   "find START [END]",
	Short: "Find the first port in a range with the given state",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		state, err := scan.ParsePortState(targetState)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		runFind(state, args)
	},
}

var findOpenCmd = &cobra.Command{
	Use:     "find-open START [END]",
	Aliases: []string{"in-use"},
	Short:   "Find the first open port in a range",
	Args:    cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		runFind(scan.PortOpen, args)
	},
}

var findClosedCmd = &cobra.Command{
	Use:     "find-closed START [END]",
	Aliases: []string{"not-in-use", "free"},
	Short:   "Find the first closed port in a range",
	Args:    cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		runFind(scan.PortClosed, args)
	},
}

func runFind(state scan.PortState, args []string) {

	ports, err := parseRange(args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	scanner, err := createScanner()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	result := scan.NewSearchResult(scanner.Host(), state, ports)

	bar := newProgressBar(ports.Size())
	scanner.OnProbe(func(port int, _ scan.PortState) {
		result.Checked++
		if bar != nil {
			_ = bar.Add(1)
		}
	})

	ctx, cancel := scanContext()
	defer cancel()

	startTime := time.Now()
	log.Debugf("Searching %s for a %s port...", ports, state)

	port, found, err := scanner.FindPortWithState(ctx, state, ports)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	result.Port = port
	result.Found = found
	result.Elapsed = time.Since(startTime)

	outputSearchResult(result)
	log.Debugf("Search complete in %s.", result.Elapsed)

	if !found {
		os.Exit(exitNotFound)
	}
}
