package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/liamg/portfinder/scan"
	"github.com/schollz/progressbar/v3"
)

func outputResult(result scan.Result) {
	switch result.State {
	case scan.PortOpen:
		color.Green("%s", result.String())
	default:
		color.Red("%s", result.String())
	}
}

func outputSearchResult(result scan.SearchResult) {
	if result.Found {
		color.Green("%s", result.String())
		return
	}
	color.Yellow("%s", result.String())
}

// newProgressBar returns nil unless --progress was given.
func newProgressBar(total int) *progressbar.ProgressBar {
	if !showProgress || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
