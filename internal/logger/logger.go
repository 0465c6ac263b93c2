// Package logger provides structured logging with file rotation support.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the logger configuration.
type Config struct {
	Level      string `yaml:"level"`
	FilePath   string `yaml:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
	Console    bool   `yaml:"console"`
	Format     string `yaml:"format"` // File output format: "text" (fixed columns) or "json"
}

// DefaultConfig returns sensible defaults for logging.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		FilePath:   "log/nssmexec/nssm_exec.log",
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 30,
		Compress:   true,
		Console:    true,
		Format:     "text",
	}
}

// closeGrace bounds how long Close waits for queued console messages.
// A console stuck in Quick-Edit selection must not hold the process open.
var closeGrace = 2 * time.Second

// asyncWriter decouples log calls from a console that may stop accepting
// writes (Windows Quick-Edit selection blocks stdout, which would stall
// the batch mid-step). Writes never block: messages are queued and
// delivered by a background goroutine, and dropped when the queue is full.
type asyncWriter struct {
	ch     chan []byte
	w      io.Writer
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

func newAsyncWriter(w io.Writer, queueSize int) *asyncWriter {
	aw := &asyncWriter{
		ch:   make(chan []byte, queueSize),
		w:    w,
		done: make(chan struct{}),
	}
	go aw.drain()
	return aw
}

func (aw *asyncWriter) Write(p []byte) (int, error) {
	aw.mu.RLock()
	defer aw.mu.RUnlock()
	if aw.closed {
		return len(p), nil
	}

	cp := make([]byte, len(p))
	copy(cp, p)
	select {
	case aw.ch <- cp:
	default:
		// Queue full, drop rather than block the caller.
	}
	return len(p), nil
}

func (aw *asyncWriter) drain() {
	defer close(aw.done)
	for p := range aw.ch {
		aw.w.Write(p)
	}
}

// Close stops accepting messages and waits up to closeGrace for the
// queue to drain. The process is about to exit; the tail of the batch
// summary should reach the console first, but a stuck console must not
// keep the process alive.
func (aw *asyncWriter) Close() {
	aw.once.Do(func() {
		aw.mu.Lock()
		aw.closed = true
		aw.mu.Unlock()
		close(aw.ch)

		select {
		case <-aw.done:
		case <-time.After(closeGrace):
		}
	})
}

// outputs tracks the writers owned by the current Init so a re-Init or
// process exit can release them.
type outputs struct {
	file    io.Closer
	console *asyncWriter
}

func (o *outputs) close() {
	if o.console != nil {
		o.console.Close()
		o.console = nil
	}
	if o.file != nil {
		o.file.Close()
		o.file = nil
	}
}

var (
	globalLogger zerolog.Logger
	active       outputs
)

// Init initializes the global logger with the given configuration.
// Calling it again (logging config hot reload) releases the writers of
// the previous call first.
func Init(cfg Config) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	active.close()

	var writers []io.Writer

	// File output with rotation.
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return err
		}

		fileWriter := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		active.file = fileWriter

		if cfg.Format == "json" {
			writers = append(writers, fileWriter)
		} else {
			writers = append(writers, NewFixedFormatWriter(fileWriter))
		}
	}

	if cfg.Console {
		console := newAsyncWriter(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}, 1000)
		active.console = console
		writers = append(writers, console)
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	var output io.Writer
	if len(writers) == 1 {
		output = writers[0]
	} else {
		output = zerolog.MultiLevelWriter(writers...)
	}

	globalLogger = zerolog.New(output).With().Timestamp().Caller().Logger()
	return nil
}

// Close flushes queued console output and closes the log file. Called
// once before the process exits.
func Close() {
	active.close()
}

// Logger returns the global logger instance.
func Logger() *zerolog.Logger {
	return &globalLogger
}

// Debug logs a debug message.
func Debug() *zerolog.Event {
	return globalLogger.Debug()
}

// Info logs an info message.
func Info() *zerolog.Event {
	return globalLogger.Info()
}

// Warn logs a warning message.
func Warn() *zerolog.Event {
	return globalLogger.Warn()
}

// Error logs an error message.
func Error() *zerolog.Event {
	return globalLogger.Error()
}

// WithComponent returns a logger with component field.
func WithComponent(component string) zerolog.Logger {
	return globalLogger.With().Str("component", component).Logger()
}
