package main

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/gestos/internal/app"
	"github.com/ayusman/gestos/internal/metrics"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Recognize gestures and publish them to the relay",
	Long: `detect runs the camera pipeline without touching the mouse. Every
emitted gesture is sent to the relay, rotations as renderer events and
pointing positions as rate limited cursor messages.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		m := metrics.New()
		client := newRelayClient(m)
		a, err := app.New(app.Config{
			Settings: cfg,
			Relay:    client,
			Metrics:  m,
		})
		if err != nil {
			return err
		}

		g, ctx := errgroup.WithContext(ctx)
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		g.Go(func() error { return client.Run(ctx) })
		g.Go(func() error {
			defer cancel()
			return a.Run(ctx)
		})
		return g.Wait()
	},
}
