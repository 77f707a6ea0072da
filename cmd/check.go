package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/liamg/portfinder/scan"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check PORT [PORT...]",
	Short: "Check whether ports are open or closed",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {

		ports := []int{}
		for _, arg := range args {
			port, err := parsePort(arg)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			ports = append(ports, port)
		}

		scanner, err := createScanner()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		ctx, cancel := scanContext()
		defer cancel()

		fmt.Printf("Port status for host %s\n", scanner.Host())
		fmt.Println(scan.ResultHeader())

		for _, port := range ports {
			if ctx.Err() != nil {
				break
			}

			startTime := time.Now()
			state, err := scanner.CheckPortStatus(ctx, port)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}

			result := scan.Result{
				Host:    scanner.Host(),
				Port:    port,
				State:   state,
				Latency: time.Since(startTime),
			}
			log.Debugf("Checked port %d in %s", port, result.Latency)
			outputResult(result)
		}
	},
}
