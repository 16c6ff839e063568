// Package logger provides a small leveled, component-scoped logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Field is a key-value pair appended to a log line.
type Field struct {
	Key   string
	Value any
}

// F builds a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Err builds an error Field.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Logger writes timestamped lines of the form
// "[15:04:05.000] LEVEL [component] message key=value".
// Debug and Info are only written when verbose is enabled.
type Logger struct {
	component string
	verbose   bool
	mu        *sync.Mutex
	writer    io.Writer
}

// New creates a logger writing to w. A nil writer means stderr.
func New(component string, w io.Writer, verbose bool) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		component: component,
		verbose:   verbose,
		mu:        &sync.Mutex{},
		writer:    w,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New("", io.Discard, false)
}

// WithComponent returns a logger sharing the writer under another component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		component: component,
		verbose:   l.verbose,
		mu:        l.mu,
		writer:    l.writer,
	}
}

// Debug logs when verbose.
func (l *Logger) Debug(msg string, fields ...Field) {
	if l != nil && l.verbose {
		l.log("DEBUG", msg, fields)
	}
}

// Info logs when verbose.
func (l *Logger) Info(msg string, fields ...Field) {
	if l != nil && l.verbose {
		l.log("INFO", msg, fields)
	}
}

// Warn always logs.
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log("WARN", msg, fields)
}

// Error always logs.
func (l *Logger) Error(msg string, fields ...Field) {
	l.log("ERROR", msg, fields)
}

func (l *Logger) log(level, msg string, fields []Field) {
	if l == nil {
		return
	}
	component := l.component
	if component == "" {
		component = "main"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s [%s] %s", time.Now().Format("15:04:05.000"), level, component, msg)
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	b.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.writer, b.String())
}
