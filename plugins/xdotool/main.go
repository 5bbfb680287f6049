// Package main provides a mouse input plugin for X11.
// It performs pointer actions by running xdotool.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
	Params  Params          `json:"params"`
}

// Params are the action arguments.
type Params struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Delta int `json:"delta"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// wheelNotch is the scroll delta of one button 4/5 press.
const wheelNotch = 120

// actionHandler builds the xdotool arguments for an action.
type actionHandler func(p Params) [][]string

var actionHandlers = map[string]actionHandler{
	"click":        func(Params) [][]string { return [][]string{{"click", "1"}} },
	"right-click":  func(Params) [][]string { return [][]string{{"click", "3"}} },
	"double-click": func(Params) [][]string { return [][]string{{"click", "--repeat", "2", "1"}} },
	"mouse-down":   func(Params) [][]string { return [][]string{{"mousedown", "1"}} },
	"mouse-up":     func(Params) [][]string { return [][]string{{"mouseup", "1"}} },
	"move": func(p Params) [][]string {
		return [][]string{{"mousemove", strconv.Itoa(p.X), strconv.Itoa(p.Y)}}
	},
	"scroll": scrollArgs,
}

// scrollArgs converts a wheel delta into button presses; positive scrolls up.
func scrollArgs(p Params) [][]string {
	if p.Delta == 0 {
		return nil
	}
	button := "4"
	n := p.Delta
	if n < 0 {
		button = "5"
		n = -n
	}
	notches := n / wheelNotch
	if notches == 0 {
		notches = 1
	}
	return [][]string{{"click", "--repeat", strconv.Itoa(notches), button}}
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	for _, args := range handler(req.Params) {
		if err := runXdotool(args...); err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
	}

	writeSuccessResponse()
}

// runXdotool executes xdotool and returns any error with its output.
func runXdotool(args ...string) error {
	output, err := exec.Command("xdotool", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}
