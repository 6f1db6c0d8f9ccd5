package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger provides component-tagged structured logging
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

// Config selects level and output format
type Config struct {
	Level string
	JSON  bool
}

// New builds the application logger. Output goes to stdout so that stderr
// only ever carries the startup failure line.
func New(cfg Config) *ZerologAdapter {
	level := ParseLevel(cfg.Level)
	if cfg.JSON {
		return NewZerolog(os.Stdout, level)
	}
	return NewConsoleLogger(level)
}

// ParseLevel falls back to info for empty or unknown names
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Nop discards everything
func Nop() *ZerologAdapter {
	return NewZerolog(io.Discard, zerolog.Disabled)
}
