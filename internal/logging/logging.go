package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"charm.land/lipgloss/v2"
)

// Logger is a small prefix logger shared by the internal packages.
// When Writer is nil, logging is disabled.
//
// The output format is:
//
//	<time> <Prefix> [req=<id>] <formattedMessage>\n
type Logger struct {
	Writer io.Writer

	PrefixText  string
	PrefixColor string

	// Verbose gates Debugf output.
	Verbose bool

	mu sync.Mutex
}

var noColor atomic.Bool

// SetColor toggles prefix styling for every Logger.
func SetColor(on bool) { noColor.Store(!on) }

func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	l.Writer = w
	l.mu.Unlock()
}

func (l *Logger) SetVerbose(v bool) {
	l.mu.Lock()
	l.Verbose = v
	l.mu.Unlock()
}

func (l *Logger) Enabled() bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Writer != nil
}

// Logf writes one line tagged with reqID. An empty reqID omits the field.
func (l *Logger) Logf(reqID string, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Writer == nil {
		return
	}

	prefix := l.PrefixText
	if prefix == "" {
		prefix = "Log:"
	}
	if !noColor.Load() && l.PrefixColor != "" {
		prefix = lipgloss.NewStyle().Foreground(lipgloss.Color(l.PrefixColor)).Render(prefix)
	}
	ts := time.Now().Format("2006/01/02 15:04:05")
	msg := fmt.Sprintf(format, args...)

	id := strings.TrimSpace(reqID)
	if id == "" {
		fmt.Fprintf(l.Writer, "%s %s %s\n", ts, prefix, msg)
		return
	}
	fmt.Fprintf(l.Writer, "%s %s req=%s %s\n", ts, prefix, id, msg)
}

// Debugf is Logf gated on Verbose.
func (l *Logger) Debugf(reqID string, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	verbose := l.Verbose
	l.mu.Unlock()
	if verbose {
		l.Logf(reqID, format, args...)
	}
}
