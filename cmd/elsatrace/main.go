// Command elsatrace reconstructs execution traces of Elsa workflow instances.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/elsatrace/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
