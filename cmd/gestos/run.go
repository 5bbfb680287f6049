package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/gestos/internal/app"
	"github.com/ayusman/gestos/internal/events"
	"github.com/ayusman/gestos/internal/input"
	"github.com/ayusman/gestos/internal/logging"
	"github.com/ayusman/gestos/internal/metrics"
	"github.com/ayusman/gestos/internal/server"
	"github.com/ayusman/gestos/internal/tray"
)

var (
	runHTTP   bool
	runAddr   string
	runTray   bool
	runRelay  bool
	runDryRun bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Recognize gestures and control the mouse in one process",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runHTTP, "http", false, "serve the status page, event stream and metrics")
	runCmd.Flags().StringVar(&runAddr, "addr", "", "status server address (default: http.addr)")
	runCmd.Flags().BoolVar(&runTray, "tray", false, "show a system tray icon")
	runCmd.Flags().BoolVar(&runRelay, "relay", false, "also publish gestures to the relay")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "log actions instead of performing them")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if runDryRun {
		cfg.Input.Provider = input.ProviderDryRun
	}
	if runAddr != "" {
		cfg.HTTPAddr = runAddr
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	provider, err := newProvider()
	if err != nil {
		return err
	}

	m := metrics.New()
	appCfg := app.Config{
		Settings: cfg,
		Provider: provider,
		Store:    st,
		Metrics:  m,
	}

	var preview *server.Preview
	if runHTTP {
		preview = server.NewPreview()
		appCfg.Preview = preview
	}

	g, ctx := errgroup.WithContext(ctx)
	if runRelay {
		client := newRelayClient(m)
		appCfg.Relay = client
		g.Go(func() error { return client.Run(ctx) })
	}

	a, err := app.New(appCfg)
	if err != nil {
		return err
	}

	if runHTTP {
		srv := server.New(server.Config{
			StaticDir: findWebDir(),
			Store:     st,
			Stats:     a,
			Tuner:     a,
			Preview:   preview,
			Metrics:   m,
		})
		a.Forward(srv.Events())
		g.Go(func() error {
			if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer cancel()
		return a.Run(ctx)
	})

	if runTray {
		runTrayIcon(ctx, cancel, a)
	}

	err = g.Wait()
	logging.Info("gestos stopped")
	return err
}

// runTrayIcon blocks on the main goroutine until the tray quits or ctx ends.
func runTrayIcon(ctx context.Context, cancel context.CancelFunc, a *app.App) {
	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnQuit(cancel)
	if runHTTP {
		url := "http://" + cfg.HTTPAddr
		t.OnSettings(func() {
			if err := openBrowser(url); err != nil {
				logging.Warn("open status page", "url", url, "err", err)
			}
		})
	}

	a.Bus().Subscribe(events.KindGesture, t.HandleEvent)
	a.Bus().Subscribe(events.KindState, t.HandleEvent)
	t.RunContext(ctx)
}
