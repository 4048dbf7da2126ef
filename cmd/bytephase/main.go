package main

import (
	"context"

	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cobra.CheckErr(NewCLI().ExecuteContext(context.Background()))
}
