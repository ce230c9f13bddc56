package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/tradeflow/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tradeflow",
	Short: "Trade-finance operation tracker",
	Long: "Parses exported operation sheets (CSV or XLSX), derives phase progress, timelines, " +
		"validations and alerts per operation, and serves them read-only over HTTP.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "tradeflow: load config")
		}
		if err := applyOverrides(cmd, c); err != nil {
			return err
		}
		if err := config.InitLogger(c.Log); err != nil {
			return eris.Wrap(err, "tradeflow: init logger")
		}
		cfg = c

		zap.L().Debug("configuration loaded",
			zap.String("command", cmd.Name()),
			zap.Int("sources", len(c.Source.Files)),
			zap.Uint64("seed", c.Timeline.Seed),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	addGlobalFlags(rootCmd)
}

// addGlobalFlags registers the flags every subcommand inherits.
func addGlobalFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.String("log-level", "", "override log.level (debug, info, warn, error)")
	pf.String("log-format", "", "override log.format (json, console)")
	pf.Uint64("seed", 0, "override timeline.seed used for date synthesis")
}

// applyOverrides copies explicitly set global flags onto c. Flags left at
// their defaults never replace file or environment values.
func applyOverrides(cmd *cobra.Command, c *config.Config) error {
	fs := cmd.Flags()
	if fs.Changed("log-level") {
		v, err := fs.GetString("log-level")
		if err != nil {
			return eris.Wrap(err, "tradeflow: --log-level")
		}
		c.Log.Level = v
	}
	if fs.Changed("log-format") {
		v, err := fs.GetString("log-format")
		if err != nil {
			return eris.Wrap(err, "tradeflow: --log-format")
		}
		c.Log.Format = v
	}
	if fs.Changed("seed") {
		v, err := fs.GetUint64("seed")
		if err != nil {
			return eris.Wrap(err, "tradeflow: --seed")
		}
		c.Timeline.Seed = v
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
