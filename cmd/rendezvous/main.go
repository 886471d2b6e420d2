// Command rendezvous compiles, validates and runs join declarations.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/rendezvous/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.GetExitCode(err))
}
