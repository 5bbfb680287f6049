package main

import (
	"github.com/spf13/cobra"

	"github.com/ayusman/gestos/internal/metrics"
	"github.com/ayusman/gestos/internal/relay"
)

var relayAddr string

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the event hub that connects detectors, actors and renderers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		addr := cfg.Relay.Addr
		if relayAddr != "" {
			addr = relayAddr
		}
		return relay.NewHub(addr, metrics.New()).ListenAndServe(ctx)
	},
}

func init() {
	relayCmd.Flags().StringVar(&relayAddr, "addr", "", "listen address (default: relay.addr)")
}
