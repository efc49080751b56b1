// Command ittm runs populations of machines under a dovetail schedule and
// classifies each one as halted, looped or faulted.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/ittm/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ittm: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
