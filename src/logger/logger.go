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

	"github.com/H0llyW00dzZ/tls-trust-resolver/src/internal/helper/gc"
)

// Level names written by [JSONLogger].
const (
	LevelInfo = "info"
	LevelWarn = "warn"
)

// Logger defines the interface for logging operations.
//
// Chain building and credential resolution report advisory conditions
// (duplicate identity keys, chains without a key pair) through Warnf and
// never fail because of them.
type Logger interface {
	// Printf formats and prints a log message.
	Printf(format string, v ...any)
	// Println prints a log message with a newline.
	Println(v ...any)
	// Warnf formats and prints an advisory message.
	Warnf(format string, v ...any)
	// SetOutput sets the output destination for the logger.
	SetOutput(w io.Writer)
}

// CLILogger implements Logger using the standard log package.
// It's designed for command-line interface output with human-readable formatting.
type CLILogger struct{ logger *log.Logger }

// NewCLILogger creates a new CLI logger writing to stdout with timestamps disabled.
func NewCLILogger() *CLILogger {
	l := log.New(os.Stdout, "", 0)
	return &CLILogger{logger: l}
}

// Printf formats and prints a log message using fmt.Printf semantics.
func (c *CLILogger) Printf(format string, v ...any) { c.logger.Printf(format, v...) }

// Println prints a log message with a newline.
func (c *CLILogger) Println(v ...any) { c.logger.Println(v...) }

// Warnf prints a message prefixed with "warning: ".
func (c *CLILogger) Warnf(format string, v ...any) {
	c.logger.Print("warning: " + fmt.Sprintf(format, v...))
}

// SetOutput sets the output destination for the CLI logger.
func (c *CLILogger) SetOutput(w io.Writer) { c.logger.SetOutput(w) }

// JSONLogger implements Logger with one JSON object per line, carrying a
// "level" and a "message" field. The MCP server uses it so that log lines
// never interleave with the stdio protocol stream.
//
// JSONLogger is safe for concurrent use by multiple goroutines.
type JSONLogger struct {
	mu     sync.Mutex
	writer io.Writer
	silent bool
}

// NewJSONLogger creates a structured logger. A nil writer discards output.
// When silent is true nothing is written regardless of the writer.
func NewJSONLogger(writer io.Writer, silent bool) *JSONLogger {
	if writer == nil {
		writer = io.Discard
	}
	return &JSONLogger{
		writer: writer,
		silent: silent,
	}
}

// Discard returns a logger that drops every message. It is the default for
// library components that were given no logger.
func Discard() Logger { return NewJSONLogger(io.Discard, true) }

// Printf logs an info entry.
func (m *JSONLogger) Printf(format string, v ...any) {
	if m.silent {
		return
	}
	m.write(LevelInfo, fmt.Sprintf(format, v...))
}

// Println logs an info entry. Operands are joined like [fmt.Sprint].
func (m *JSONLogger) Println(v ...any) {
	if m.silent {
		return
	}
	m.write(LevelInfo, fmt.Sprint(v...))
}

// Warnf logs a warn entry.
func (m *JSONLogger) Warnf(format string, v ...any) {
	if m.silent {
		return
	}
	m.write(LevelWarn, fmt.Sprintf(format, v...))
}

// SetOutput sets the output destination for the logger.
//
// SetOutput is safe for concurrent use by multiple goroutines.
func (m *JSONLogger) SetOutput(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	m.writer = w
}

// write encodes the entry into a pooled buffer and emits it with a single
// Write so concurrent entries never interleave.
func (m *JSONLogger) write(level, msg string) {
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	// Marshalling a string cannot fail.
	quoted, _ := json.Marshal(msg)

	buf.WriteString(`{"level":"`)
	buf.WriteString(level)
	buf.WriteString(`","message":`)
	buf.Write(quoted)
	buf.WriteString("}\n")

	m.mu.Lock()
	m.writer.Write(buf.Bytes())
	m.mu.Unlock()
}
