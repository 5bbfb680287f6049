// Package plugin discovers and runs external input plugins.
//
// A plugin is a directory holding a plugin.json manifest and an executable.
// Each action runs the executable once: the request is written as JSON to its
// stdin and a JSON response is read from its stdout.
package plugin

import "encoding/json"

// ManifestFile is the manifest name inside a plugin directory.
const ManifestFile = "plugin.json"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Params carries the arguments of an input action.
type Params struct {
	X     int `json:"x,omitempty"`
	Y     int `json:"y,omitempty"`
	Delta int `json:"delta,omitempty"`
}

// Request represents a request sent to a plugin for execution.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`
	Params  Params          `json:"params"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Supports reports whether the manifest lists action.
func (p *Plugin) Supports(action string) bool {
	for _, a := range p.Manifest.Actions {
		if a == action {
			return true
		}
	}
	return false
}
