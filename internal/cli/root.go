// Package cli implements the weblog command line.
package cli

import (
	"fmt"
	"time"

	"github.com/dfryer1193/weblog/blog/domain"
	"github.com/dfryer1193/weblog/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	open       Opener
}

// app opens the configured environment. Commands that only touch local files never call it.
func (o *rootOptions) app() (*App, error) {
	path := config.ResolvePath(o.configPath)
	app, err := o.open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if app.Config != nil {
		zerolog.SetGlobalLevel(app.Config.Level())
	}
	return app, nil
}

// NewRootCmd creates the weblog command with all subcommands registered.
func NewRootCmd(docs domain.DocumentStore, open Opener) *cobra.Command {
	opts := &rootOptions{open: open}

	root := &cobra.Command{
		Use:           "weblog",
		Short:         "weblog - keep post metadata inside markdown and publish over MetaWeblog",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			log.Logger = zerolog.New(zerolog.ConsoleWriter{
				Out:        cmd.ErrOrStderr(),
				TimeFormat: time.Kitchen,
			}).With().Timestamp().Logger()
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $WEBLOG_CONFIG or "+config.DefaultPath+")")

	root.AddCommand(newNewCmd(docs))
	root.AddCommand(newMetaCmd(docs, opts))
	root.AddCommand(newPublishCmd(opts))
	root.AddCommand(newWeblogsCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newServeCmd(opts))
	return root
}
