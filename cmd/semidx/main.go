// Command semidx is the local semantic code index CLI.
package main

import (
	"os"

	"github.com/codex-agentic/semidx/cmd/semidx/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
