package tools

import (
	"fmt"
	"log"
)

// logger is the package-level logger. If nil, logging is a no-op. The serve
// command points it at stderr, since stdout carries the MCP protocol.
var logger *log.Logger

// SetLogger sets the logger for the tools package.
func SetLogger(l *log.Logger) {
	logger = l
}

// Log writes a formatted message. No-op if no logger is set.
func Log(format string, args ...any) {
	if logger != nil {
		logger.Output(2, fmt.Sprintf(format, args...))
	}
}
