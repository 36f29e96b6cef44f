package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "shopcli",
		Short: "CLI client for the credit shop server",
		Long: `shopcli talks to the credit shop over its TCP session protocol.

Every command opens a connection and logs in as --nickname first, which
grants the usual login bonus. Use "shopcli shell" to keep one session open
and issue several commands.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Nickname == "" {
				return fmt.Errorf("--nickname is required (env: SHOP_NICKNAME)")
			}

			c, err := Dial(cmd.Context(), cfg.ServerAddr, cfg.Timeout)
			if err != nil {
				return err
			}
			client = c
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerAddr, "server", cfg.ServerAddr, "Server address host:port (env: SHOP_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Nickname, "nickname", "n", cfg.Nickname, "Nickname to log in as (env: SHOP_NICKNAME)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newBalanceCmd())
	rootCmd.AddCommand(newItemsCmd())
	rootCmd.AddCommand(newBuyCmd())
	rootCmd.AddCommand(newSellCmd())
	rootCmd.AddCommand(newShellCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newOutput(cmd *cobra.Command) *Output {
	return NewOutput(cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())
}
