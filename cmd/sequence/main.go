// Command sequence compiles and plays nested interval schedules.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/sequence/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
