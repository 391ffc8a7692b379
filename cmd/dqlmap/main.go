// Command dqlmap compiles object query trees into Documentum DQL.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/dqlmap/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
