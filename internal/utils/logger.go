package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// Logger writes timestamped lines to a log file, or to stdout when no file
// could be opened.
type Logger struct {
	mu        sync.Mutex
	writeFile *os.File
	out       io.Writer
}

// NewLogger opens logFile for appending. Failure to open falls back to stdout
// and the failure itself is the first line written.
func NewLogger(logFile string) *Logger {
	logger := &Logger{out: os.Stdout}
	if logFile == "" {
		return logger
	}
	_ = os.MkdirAll(filepath.Dir(logFile), 0o755)

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.Write(fmt.Sprintf("Error opening log file (%s): %v", logFile, err))
		return logger
	}
	logger.writeFile = f
	logger.out = f
	return logger
}

// NewWriterLogger logs to an arbitrary writer; tests pass io.Discard or a buffer.
func NewWriterLogger(w io.Writer) *Logger {
	if w == nil {
		w = io.Discard
	}
	return &Logger{out: w}
}

// Write appends a timestamped message to the log.
func (l *Logger) Write(message string) {
	if l == nil {
		return
	}
	line := fmt.Sprintf("%s: %s\n", time.Now().Format(timestampLayout), message)
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, line)
	if l.writeFile != nil {
		_ = l.writeFile.Sync()
	}
}

// Writef formats and appends a message.
func (l *Logger) Writef(format string, args ...any) {
	if l == nil {
		return
	}
	l.Write(fmt.Sprintf(format, args...))
}

// Close closes the underlying file handle.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writeFile != nil {
		_ = l.writeFile.Close()
		l.writeFile = nil
		l.out = io.Discard
	}
}

// File returns the underlying write file handle when available.
func (l *Logger) File() *os.File {
	if l == nil {
		return nil
	}
	return l.writeFile
}

// Slog returns a structured logger whose records land in the same log.
func (l *Logger) Slog() *slog.Logger {
	return slog.New(&lineHandler{logger: l})
}

// lineHandler renders slog records as "LEVEL message key=value" lines.
type lineHandler struct {
	logger *Logger
	attrs  []slog.Attr
	group  string
}

func (h *lineHandler) Enabled(context.Context, slog.Level) bool { return h.logger != nil }

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Level.String())
	b.WriteByte(' ')
	b.WriteString(r.Message)
	write := func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		fmt.Fprintf(&b, " %s=%v", key, a.Value.Any())
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)
	h.logger.Write(b.String())
	return nil
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	next := *h
	if next.group != "" {
		name = next.group + "." + name
	}
	next.group = name
	return &next
}
