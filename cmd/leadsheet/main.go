// Command leadsheet runs, validates and replays leadsheet edit scenarios.
package main

import (
	"fmt"
	"os"

	"github.com/jjazzboss/JJazzLab-sub029/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
