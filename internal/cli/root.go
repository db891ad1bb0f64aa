package cli

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	def := DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "plctl",
		Short: "CLI tool for the D&D points API",
		Long: `plctl manages players and PL (points) through the points bot HTTP API.

Configuration is read from flags, PLCTL_* environment variables and
~/.plctl.yaml, in that order of precedence.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := LoadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			cfg = loaded
			if cfg.NoColor {
				color.NoColor = true
			}

			client = NewClient(cfg.ServerURL, cfg.Token)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String(keyServer, def.ServerURL, "Server URL (env: PLCTL_SERVER)")
	rootCmd.PersistentFlags().String(keyToken, "", "API token for mutating commands (env: PLCTL_TOKEN)")
	rootCmd.PersistentFlags().StringP(keyOutput, "o", def.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolP(keyVerbose, "v", false, "Verbose output")
	rootCmd.PersistentFlags().Bool(keyNoColor, false, "Disable colored output")
	rootCmd.PersistentFlags().String(keyConfig, "", "Config file (default ~/.plctl.yaml)")

	// Add subcommands
	rootCmd.AddCommand(newPlayersCmd())
	rootCmd.AddCommand(newPointsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newRankingsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newHashTokenCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// output returns a formatter writing to the command's stdout
func output(cmd *cobra.Command) *Output {
	return NewOutput(cfg.Output, cmd.OutOrStdout())
}
