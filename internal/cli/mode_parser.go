package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeLifecycle = "lifecycle-service"
	ModeAutopilot = "autopilot-service"
)

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeLifecycle, "lifecycle", "l":
		return ModeLifecycle, true
	case ModeAutopilot, "autopilot", "a":
		return ModeAutopilot, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `lifecycle-service --max-concurrent=100`
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for i := range args {
		arg := args[i]
		if after, ok := strings.CutPrefix(arg, "--mode="); ok {
			mode = after
			continue
		}

		if mode == "" {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return "", out, errors.New("no mode specified: use --mode=<service>")
	}

	if m, ok := isKnownMode(mode); ok {
		mode = m
	}

	return mode, out, nil
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, "\033[36m") // cyan

	fmt.Fprintln(w, `Usage:
  ./ridesync --mode=<service> [flags]

Services (modes):
  lifecycle-service            HTTP API owning ride status transitions and sync
  autopilot-service            Time-based auto-advancer for stalled rides

Examples:
  ./ridesync --mode=lifecycle-service --max-concurrent=150
  ./ridesync --mode=autopilot-service --scan-interval=15`)

	fmt.Fprint(w, "\033[0m") // reset
}

// AttachUsage wires a concise per-mode usage to a FlagSet.
func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ./ridesync --mode=%s [flags]\n", mode)
		fs.PrintDefaults()
	}
}
