package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-auth-resolver"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	debug      bool

	opts   auth.Options
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "authresolve",
	Short: "Resolve request credentials against the user directory",
	Long: `authresolve runs the request authentication chain (reverse proxy header,
reverse proxy token, HTTP basic) against a configured user database. It is
meant for checking proxy and JWKS setups without deploying the application.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if logger, err = newLogger(debug); err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		opts, err = auth.LoadOptions(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (env: AUTH_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
