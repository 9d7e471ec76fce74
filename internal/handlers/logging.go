package handlers

import (
	"io"

	"github.com/Brownie44l1/croprec-api/internal/logging"
)

var logger = &logging.Logger{PrefixText: "HTTP:", PrefixColor: "#06B6D4"}

// SetLogger sets an optional destination for request logs.
func SetLogger(w io.Writer, verbose bool) {
	logger.SetWriter(w)
	logger.SetVerbose(verbose)
}

func logf(reqID string, format string, args ...any) {
	logger.Logf(reqID, format, args...)
}

func debugf(reqID string, format string, args ...any) {
	logger.Debugf(reqID, format, args...)
}
