package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/vvka-141/pgload/internal/tui"
)

// ConsoleLogger writes log messages to stderr.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	out     io.Writer
	verbose bool
	color   bool
	mu      sync.Mutex
}

// NewConsoleLogger creates a new ConsoleLogger writing to stderr.
// If verbose is true, Verbose() calls will produce output.
// If verbose is false, Verbose() calls are no-ops.
// Lines are styled only when stderr is an interactive terminal.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleLoggerTo(os.Stderr, verbose, tui.IsInteractive())
}

// NewConsoleLoggerTo creates a ConsoleLogger writing to w.
func NewConsoleLoggerTo(w io.Writer, verbose, color bool) *ConsoleLogger {
	if w == nil {
		panic("w cannot be nil")
	}
	return &ConsoleLogger{
		out:     w,
		verbose: verbose,
		color:   color,
	}
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write(tui.MutedStyle, "[VERBOSE] ", format, args)
}

// Info logs informational messages about normal operations.
// Lines starting with a check mark are styled as success.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	style := lipgloss.NewStyle()
	switch {
	case strings.HasPrefix(format, tui.SymbolCheck):
		style = tui.SuccessStyle
	case strings.HasPrefix(format, tui.SymbolWarning):
		style = tui.WarningStyle
	}
	l.write(style, "", format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.write(tui.ErrorStyle, "[ERROR] ", format, args)
}

func (l *ConsoleLogger) write(style lipgloss.Style, prefix, format string, args []interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	line := prefix + msg
	if l.color {
		line = style.Render(line)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.out, line+"\n")
}
