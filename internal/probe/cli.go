package probe

import (
	"fmt"
	"os"

	"github.com/okian/sway/pkg/logger"
)

// SetupLogging initializes the global logger on stdout in format.
func SetupLogging(format string) error {
	if err := logger.InitWithWriter(os.Stdout, format); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// ShowHelp prints usage information for the probe.
func ShowHelp() {
	os.Stdout.WriteString(`Sway Evaluator Probe
====================

Submits a mix of payloads to a running evaluator and checks that every
response is HTTP 200 with two integer scores in [0,5], and that blank or
unreadable payloads score zero.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the evaluator (default "http://localhost:8080")
  -requests int
        Number of evaluations to submit (default 60)
  -workers int
        Number of concurrent senders (default 4)
  -timeout duration
        HTTP request timeout (default 90s)
  -log-format string
        text or json (default "text")
  -verbose
        Log every response
  -help
        Show this help message
`)
}
