// Command fractal plays Fractal Flow from the terminal and serves its HTTP
// API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/fractalflow/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "fractal:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
