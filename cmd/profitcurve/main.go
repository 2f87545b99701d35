package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess     = 0 // A best model was selected
	ExitModelFailed = 1 // Every candidate model failed
	ExitError       = 2 // Configuration or runtime error
)

// ModelsFailedError indicates that the run completed and reports were
// written, but no model produced a profit curve.
type ModelsFailedError struct {
	Failed int
}

func (e *ModelsFailedError) Error() string {
	return fmt.Sprintf("all %d models failed", e.Failed)
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var failed *ModelsFailedError
		if errors.As(err, &failed) {
			os.Exit(ExitModelFailed)
		}
		os.Exit(ExitError)
	}
}
