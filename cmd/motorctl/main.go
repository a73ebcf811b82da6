// Command motorctl identifies motor descriptions and manages the catalog
// from the shell.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"motorhub/pkg/config"
	"motorhub/pkg/logging"
)

type globals struct {
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	cfg config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "motorctl",
		Short: "Outboard motor identity and catalog tool",
		Long: `motorctl turns free-form outboard descriptions into catalog keys and
manages the local motor catalog.

The key, parse, classify and format commands work offline. sync and export
use the configured database; watch follows a running api-server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.noColor {
				color.NoColor = true
			}
			cfg, err := config.Load(g.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			g.cfg = cfg

			lc := cfg.LogConfig("motorctl")
			lc.Output = cmd.ErrOrStderr()
			if g.verbose {
				lc.Level = "debug"
			}
			g.log = logging.New(lc)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&g.cfgFile, "config", "c", "", "config file path (default: env vars)")
	root.PersistentFlags().BoolVar(&g.outputJSON, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newKeyCmd(g),
		newParseCmd(g),
		newClassifyCmd(g),
		newFormatCmd(g),
		newSyncCmd(g),
		newExportCmd(g),
		newWatchCmd(g),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
