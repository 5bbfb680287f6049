package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// scriptPlugin writes a shell script plugin and returns it.
func scriptPlugin(t *testing.T, script string, actions ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "plugin.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return &Plugin{
		Manifest:   Manifest{Name: "test-plugin", Executable: "plugin.sh", Actions: actions},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	p := scriptPlugin(t, `echo '{"success":true,"data":{"message":"moved"}}'`+"\n")

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Action: "move"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true, got false")
	}

	var data map[string]any
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "moved" {
		t.Errorf("message = %v, want moved", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	p := scriptPlugin(t, `INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`)

	req := &Request{Action: "move", Gesture: "pointing", Params: Params{X: 640, Y: 360}}
	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, req)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data.Received.Action != "move" || data.Received.Gesture != "pointing" {
		t.Errorf("received %+v", data.Received)
	}
	if data.Received.Params != req.Params {
		t.Errorf("params = %+v, want %+v", data.Received.Params, req.Params)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	p := scriptPlugin(t, "sleep 10\necho '{\"success\":true}'\n")

	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), p, &Request{Action: "click"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Execute() error = %v, want ErrTimeout", err)
	}
}

func TestExecutor_ParentCancel(t *testing.T) {
	p := scriptPlugin(t, "sleep 10\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewExecutor(5*time.Second).Execute(ctx, p, &Request{Action: "click"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestExecutor_UnsupportedAction(t *testing.T) {
	p := scriptPlugin(t, "echo '{\"success\":true}'\n", "click")

	_, err := NewExecutor(0).Execute(context.Background(), p, &Request{Action: "scroll"})
	if !errors.Is(err, ErrUnsupportedAction) {
		t.Errorf("Execute() error = %v, want ErrUnsupportedAction", err)
	}
}

func TestExecutor_Failures(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantErr string
	}{
		{"invalid JSON", "echo 'not valid json'\n", "parse"},
		{"non-zero exit", "echo 'no display' >&2\nexit 1\n", "no display"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := scriptPlugin(t, tt.script)
			_, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Action: "click"})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestExecutor_Run(t *testing.T) {
	t.Run("error response becomes error", func(t *testing.T) {
		p := scriptPlugin(t, `echo '{"success":false,"error":"xdotool missing"}'`+"\n")
		err := NewExecutor(5*time.Second).Run(context.Background(), p, &Request{Action: "click"})
		if err == nil || !strings.Contains(err.Error(), "xdotool missing") {
			t.Errorf("Run() error = %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		p := scriptPlugin(t, `echo '{"success":true}'`+"\n")
		if err := NewExecutor(5*time.Second).Run(context.Background(), p, &Request{Action: "click"}); err != nil {
			t.Errorf("Run() error = %v", err)
		}
	})
}

func TestNewExecutor(t *testing.T) {
	if got := NewExecutor(3 * time.Second).Timeout(); got != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", got)
	}
	if got := NewExecutor(0).Timeout(); got != DefaultTimeout {
		t.Errorf("Timeout() = %v, want %v", got, DefaultTimeout)
	}
}
