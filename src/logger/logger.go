// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/helper/gc"
)

// Logger defines the interface for logging operations.
//
// The CLI uses the human-readable [CLILogger]; the HTTP and [MCP] servers use
// [JSONLogger] so that log lines never mix with protocol output.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type Logger interface {
	// Printf formats and prints a log message.
	Printf(format string, v ...any)
	// Println prints a log message with a newline.
	Println(v ...any)
	// SetOutput sets the output destination for the logger.
	SetOutput(w io.Writer)
}

// LevelLogger is implemented by loggers that record the severity of each entry.
// [Scoped] prefers it over plain Printf when the underlying logger supports it.
type LevelLogger interface {
	Logf(level Level, format string, v ...any)
}

// CLILogger implements Logger using the standard log package.
// It's designed for command-line interface output with human-readable formatting.
type CLILogger struct{ logger *log.Logger }

// NewCLILogger creates a new CLI logger with timestamps disabled.
func NewCLILogger() *CLILogger {
	l := log.New(os.Stdout, "", 0)
	return &CLILogger{logger: l}
}

// Printf formats and prints a log message using fmt.Printf semantics.
func (c *CLILogger) Printf(format string, v ...any) { c.logger.Printf(format, v...) }

// Println prints a log message with a newline.
func (c *CLILogger) Println(v ...any) { c.logger.Println(v...) }

// SetOutput sets the output destination for the CLI logger.
func (c *CLILogger) SetOutput(w io.Writer) { c.logger.SetOutput(w) }

// JSONLogger writes one JSON object per line with "level", "component" and
// "message" fields. Entries are encoded through the shared [gc.Default] pool.
//
// JSONLogger is safe for concurrent use by multiple goroutines.
type JSONLogger struct {
	mu        sync.Mutex
	writer    io.Writer
	component string
	silent    bool
}

type jsonEntry struct {
	Level     string `json:"level"`
	Component string `json:"component,omitempty"`
	Message   string `json:"message"`
}

// NewJSONLogger creates a structured logger.
//
// Parameters:
//   - writer: Destination; nil is treated as [io.Discard]
//   - component: Value of the "component" field, omitted when empty
//   - silent: Suppress all output, used when stdout carries a protocol
//
// Returns:
//   - *JSONLogger: Ready to use logger
func NewJSONLogger(writer io.Writer, component string, silent bool) *JSONLogger {
	if writer == nil {
		writer = io.Discard
	}
	return &JSONLogger{
		writer:    writer,
		component: component,
		silent:    silent,
	}
}

// Printf logs an info-level entry.
func (j *JSONLogger) Printf(format string, v ...any) { j.Logf(LevelInfo, format, v...) }

// Println logs an info-level entry built with fmt.Sprint semantics.
func (j *JSONLogger) Println(v ...any) {
	if j.silent {
		return
	}
	j.write(LevelInfo, fmt.Sprint(v...))
}

// Logf logs an entry at the given level.
func (j *JSONLogger) Logf(level Level, format string, v ...any) {
	if j.silent {
		return
	}
	j.write(level, fmt.Sprintf(format, v...))
}

func (j *JSONLogger) write(level Level, msg string) {
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	if err := json.NewEncoder(buf).Encode(jsonEntry{
		Level:     level.String(),
		Component: j.component,
		Message:   msg,
	}); err != nil {
		return
	}

	j.mu.Lock()
	j.writer.Write(buf.Bytes())
	j.mu.Unlock()
}

// SetOutput sets the output destination. A nil writer discards output.
func (j *JSONLogger) SetOutput(w io.Writer) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if w == nil {
		j.writer = io.Discard
	} else {
		j.writer = w
	}
}
