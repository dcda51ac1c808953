package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pterm/pterm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

// exitError ends the process with code after the command printed its own
// report.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
