package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/ayusman/gestos/internal/logging"
	"github.com/ayusman/gestos/internal/monitor"
	"github.com/ayusman/gestos/internal/relay"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch relay traffic in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		// Log lines would tear the full-screen view.
		if cfg.Log.File == "" {
			if err := logging.Init(logging.Options{Level: cfg.Log.Level, Output: io.Discard}); err != nil {
				return err
			}
		}

		name := cfg.Relay.Name
		if name == "" {
			name = "gestos-monitor"
		}
		return monitor.Run(ctx, relay.ClientConfig{
			Addr:  cfg.Relay.Addr,
			Name:  name,
			Retry: cfg.Relay.Retry,
		})
	},
}
