// Command gestos drives the mouse with hand gestures seen by a webcam and
// relays recognized gestures to other processes.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
