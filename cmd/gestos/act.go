package main

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/gestos/internal/app"
	"github.com/ayusman/gestos/internal/dispatch"
	"github.com/ayusman/gestos/internal/input"
	"github.com/ayusman/gestos/internal/metrics"
)

var actDryRun bool

var actCmd = &cobra.Command{
	Use:   "act",
	Short: "Perform gestures received from the relay on this machine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		if actDryRun {
			cfg.Input.Provider = input.ProviderDryRun
		}
		provider, err := newProvider()
		if err != nil {
			return err
		}

		m := metrics.New()
		client := newRelayClient(m)
		d := dispatch.New(provider, dispatch.Config{
			Screen:     provider.ScreenSize(),
			Smoothing:  cfg.Cursor.Smoothing,
			ScrollStep: cfg.ScrollStep,
			Metrics:    m,
		})
		actor := app.NewActor(d, nil)

		g, ctx := errgroup.WithContext(ctx)
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		g.Go(func() error { return client.Run(ctx) })
		g.Go(func() error {
			defer cancel()
			return actor.Run(ctx, client.Messages())
		})
		return g.Wait()
	},
}

func init() {
	actCmd.Flags().BoolVar(&actDryRun, "dry-run", false, "log actions instead of performing them")
}
