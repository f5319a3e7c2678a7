// Command queryops answers free-text questions from free public APIs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonwraymond/queryops/internal/cli"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd := cli.NewRootCommand(cli.AppOptions{Version: version})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
