package model

import (
	"io"

	"github.com/Brownie44l1/croprec-api/internal/logging"
)

var logger = &logging.Logger{PrefixText: "Model:", PrefixColor: "#7C3AED"}

// SetLogger sets an optional destination for model logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }
