package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/gestos/internal/config"
	"github.com/ayusman/gestos/internal/logging"
)

// Global flag values.
var (
	flagConfig   string
	flagLogLevel string
)

// cfg is loaded by PersistentPreRunE for every command except version.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "gestos",
	Short: "Gesture-controlled pointer and event relay",
	Long: `gestos watches a webcam for hand gestures and turns them into mouse
actions. Recognition and input can run in one process (run) or be split
across processes connected by the relay (detect, act, relay).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}

		c, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if flagLogLevel != "" {
			c.Log.Level = flagLogLevel
		}
		if err := logging.Init(logging.Options{Level: c.Log.Level, File: c.Log.File}); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ~/.gestos/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(actCmd)
	rootCmd.AddCommand(relayCmd)
	rootCmd.AddCommand(monitorCmd)
}
