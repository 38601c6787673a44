package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	profile     string
	verbose     bool
	noColor     bool
	metricsAddr string
}

func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "guacc",
		Short:         "Guacamole console CLI (guacc): pool images and display statistics",
		Long:          "guacc talks to a Guacamole deployment from the terminal: it keeps connection profiles and sessions, fetches and uploads the pool image of the current user, and renders remote display statistics.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.profile, "profile", "p", "", "connection profile to use (defaults to the configured profile)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored log output")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")

	app, err := wireApp(opts)
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return app.start(cmd)
	}
	rootCmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		app.finish()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newProfileCmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newPoolImageCmd(app),
		newStatsCmd(app),
	)

	return rootCmd
}
