package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tphakala/tagtrack/cmd"
	"github.com/tphakala/tagtrack/internal/conf"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	settings := &conf.Settings{}

	rootCmd := cmd.RootCommand(settings, version)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
