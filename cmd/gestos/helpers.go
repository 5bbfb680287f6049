package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/gestos/internal/input"
	"github.com/ayusman/gestos/internal/logging"
	"github.com/ayusman/gestos/internal/metrics"
	"github.com/ayusman/gestos/internal/relay"
	"github.com/ayusman/gestos/internal/store"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// openStore opens the settings database and applies persisted overrides to cfg.
func openStore() (*store.Store, error) {
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	overrides, err := st.Settings().All()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := cfg.Apply(overrides); err != nil {
		logging.Warn("ignoring stored settings", "err", err)
	} else if len(overrides) > 0 {
		logging.Info("applied stored settings", "count", len(overrides))
	}
	return st, nil
}

func newProvider() (input.Provider, error) {
	p, err := input.New(input.Config{
		Provider:  cfg.Input.Provider,
		Plugin:    cfg.Input.Plugin,
		PluginDir: cfg.Input.PluginDir,
		Timeout:   cfg.Input.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("input provider: %w", err)
	}
	logging.Info("input provider ready", "provider", p.Name(), "screen", p.ScreenSize())
	return p, nil
}

func newRelayClient(m *metrics.Metrics) *relay.Client {
	return relay.NewClient(relay.ClientConfig{
		Addr:    cfg.Relay.Addr,
		Name:    cfg.Relay.Name,
		Retry:   cfg.Relay.Retry,
		Metrics: m,
	})
}

// findWebDir searches for the status page assets in common locations.
// It checks "web", "../web" and <config dir>/web.
func findWebDir() string {
	candidates := []string{"web", filepath.Join("..", "web"), filepath.Join(cfg.Dir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

// openBrowser opens url with the desktop's default handler.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
