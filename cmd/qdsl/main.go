// Command qdsl builds, compiles and runs quantum circuit files.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/qdsl/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
