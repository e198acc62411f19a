// Package main is the entry point for the weblog CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dfryer1193/weblog/blog/persistence"
	"github.com/dfryer1193/weblog/internal/cli"
)

// Version is injected at build time.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	root := cli.NewRootCmd(persistence.NewFileDocumentStore(), cli.Open)
	root.Version = Version

	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
