package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagLogLevel string
	log          zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "minimint",
	Short: "Run a member of a federated mint",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(flagLogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", flagLogLevel, err)
		}
		log = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagLogLevel, "loglevel", "l", "info",
		"log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(keygenCmd)
}
