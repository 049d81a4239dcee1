package tui

import (
	"os"

	"golang.org/x/term"
)

// Mode represents how pgload talks to the terminal.
type Mode int

const (
	// ModePlain is used for schedulers, CI, log files and pipes: no color, no progress bars.
	ModePlain Mode = iota
	// ModeInteractive is used when a human watches stderr.
	ModeInteractive
)

// DetectMode determines whether output on stderr may be styled.
//
// Returns ModePlain if:
//   - PGLOAD_PLAIN=1 is set
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set (https://no-color.org)
//   - stderr is not a terminal (scheduler, container logs, redirection)
//
// Returns ModeInteractive otherwise.
func DetectMode() Mode {
	if os.Getenv("PGLOAD_PLAIN") == "1" {
		return ModePlain
	}
	if os.Getenv("CI") != "" {
		return ModePlain
	}
	if os.Getenv("NO_COLOR") != "" {
		return ModePlain
	}

	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return ModePlain
	}

	return ModeInteractive
}

// IsInteractive is a convenience function that returns true if stderr may be styled.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}
