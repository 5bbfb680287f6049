package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single plugin run.
const DefaultTimeout = 2 * time.Second

var (
	// ErrTimeout is returned when a plugin does not answer in time.
	ErrTimeout = errors.New("plugin timed out")
	// ErrUnsupportedAction is returned for actions missing from the manifest.
	ErrUnsupportedAction = errors.New("action not supported by plugin")
)

// Executor runs plugins with a per-run timeout.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates an Executor. A non-positive timeout uses DefaultTimeout.
func NewExecutor(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{timeout: timeout}
}

// Timeout returns the per-run timeout.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Execute sends req to plugin and returns its response. A response with
// Success false is returned as-is; callers decide whether that is an error.
func (e *Executor) Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error) {
	if len(plugin.Manifest.Actions) > 0 && !plugin.Supports(req.Action) {
		return nil, fmt.Errorf("%s: %w: %s", plugin.Manifest.Name, ErrUnsupportedAction, req.Action)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Dir = plugin.Path
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%s %s after %v: %w", plugin.Manifest.Name, req.Action, e.timeout, ErrTimeout)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("run %s: %w: %s", plugin.Manifest.Name, err, msg)
		}
		return nil, fmt.Errorf("run %s: %w", plugin.Manifest.Name, err)
	}

	var response Response
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("parse %s response: %w, stdout: %s", plugin.Manifest.Name, err, stdout.String())
	}
	return &response, nil
}

// Run executes req and turns an unsuccessful response into an error.
func (e *Executor) Run(ctx context.Context, plugin *Plugin, req *Request) error {
	resp, err := e.Execute(ctx, plugin, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		if resp.Error == "" {
			resp.Error = "unknown error"
		}
		return fmt.Errorf("%s %s: %s", plugin.Manifest.Name, req.Action, resp.Error)
	}
	return nil
}
