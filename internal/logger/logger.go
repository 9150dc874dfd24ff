// Package logger provides structured logging with file rotation support.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// asyncWriter wraps an io.Writer to make writes non-blocking.
// If the underlying writer blocks (e.g., Windows cmd Quick Edit mode),
// the caller's Write returns immediately. Messages are buffered and
// delivered by a background goroutine. If the buffer is full, messages are dropped.
type asyncWriter struct {
	ch     chan []byte
	w      io.Writer
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

func newAsyncWriter(w io.Writer, bufSize int) *asyncWriter {
	aw := &asyncWriter{
		ch:   make(chan []byte, bufSize),
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
		// buffer full, drop
	}
	return len(p), nil
}

func (aw *asyncWriter) drain() {
	defer close(aw.done)
	for p := range aw.ch {
		aw.w.Write(p)
	}
}

func (aw *asyncWriter) Close() error {
	aw.once.Do(func() {
		aw.mu.Lock()
		aw.closed = true
		aw.mu.Unlock()
		close(aw.ch)
		<-aw.done
	})
	return nil
}

// Config holds the logger configuration (the "Logging" section of appsettings.json).
type Config struct {
	Level      string `json:"Level"`
	FilePath   string `json:"FilePath"`
	Format     string `json:"Format"` // "text" (fixed columns) or "json"
	MaxSizeMB  int    `json:"MaxSizeMB"`
	MaxBackups int    `json:"MaxBackups"`
	MaxAgeDays int    `json:"MaxAgeDays"`
	Compress   bool   `json:"Compress"`
	Console    bool   `json:"Console"`
}

// DefaultConfig returns sensible defaults for logging.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		FilePath:   "logs/log.txt",
		Format:     "text",
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 30,
		Compress:   true,
		Console:    true,
	}
}

// Option customizes a Logger created by New.
type Option func(*Logger)

// WithServiceMode suppresses console output. A service has no attached console
// and writes to a missing stdout can block or fail.
func WithServiceMode(enabled bool) Option {
	return func(l *Logger) { l.serviceMode = enabled }
}

// WithOutput sends raw JSON log lines to w instead of the configured file and
// console writers.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) { l.override = w }
}

// Logger is an explicitly constructed log pipeline. Component loggers obtained
// from WithComponent write through a writer that Reload swaps, so they stay
// valid across reloads.
type Logger struct {
	out         *switchWriter
	root        zerolog.Logger
	serviceMode bool
	override    io.Writer

	mu      sync.Mutex
	closers []io.Closer
}

// New builds a Logger from cfg.
func New(cfg Config, opts ...Option) (*Logger, error) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	l := &Logger{out: &switchWriter{}}
	for _, opt := range opts {
		opt(l)
	}
	l.root = zerolog.New(l.out).With().Timestamp().Caller().Logger()

	if err := l.Reload(cfg); err != nil {
		return nil, err
	}
	return l, nil
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	l, _ := New(Config{Level: "disabled"}, WithOutput(io.Discard))
	return l
}

// Reload replaces the writers and level with those described by cfg and
// closes the writers of the previous configuration.
func (l *Logger) Reload(cfg Config) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var (
		writers []io.Writer
		closers []io.Closer
	)

	if l.override != nil {
		writers = append(writers, l.override)
	} else {
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
			closers = append(closers, fileWriter)
			if cfg.Format == "json" {
				writers = append(writers, fileWriter)
			} else {
				writers = append(writers, NewFixedFormatWriter(fileWriter))
			}
		}

		// Console output goes through an async writer so a blocked stdout
		// never stalls file writes.
		if cfg.Console && !l.serviceMode {
			aw := newAsyncWriter(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}, 1000)
			closers = append(closers, aw)
			writers = append(writers, aw)
		}

		if len(writers) == 0 && !l.serviceMode {
			writers = append(writers, os.Stdout)
		}
	}

	var output io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		output = writers[0]
	default:
		output = zerolog.MultiLevelWriter(writers...)
	}

	l.out.swap(output, level)

	l.mu.Lock()
	prev := l.closers
	l.closers = closers
	l.mu.Unlock()
	for _, c := range prev {
		c.Close()
	}
	return nil
}

// WithComponent returns a child logger tagged with the component field.
func (l *Logger) WithComponent(component string) zerolog.Logger {
	return l.root.With().Str("component", component).Logger()
}

// Level reports the currently effective minimum level.
func (l *Logger) Level() zerolog.Level {
	return zerolog.Level(l.out.level.Load())
}

// Close flushes and closes all writers. Logging after Close is discarded.
func (l *Logger) Close() error {
	l.out.swap(io.Discard, zerolog.Disabled)

	l.mu.Lock()
	prev := l.closers
	l.closers = nil
	l.mu.Unlock()

	var firstErr error
	for _, c := range prev {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// switchWriter is a zerolog.LevelWriter whose destination and minimum level
// can be replaced at runtime.
type switchWriter struct {
	mu    sync.RWMutex
	w     io.Writer
	level atomic.Int32
}

func (s *switchWriter) swap(w io.Writer, level zerolog.Level) {
	s.mu.Lock()
	s.w = w
	s.level.Store(int32(level))
	s.mu.Unlock()
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.w == nil {
		return len(p), nil
	}
	return s.w.Write(p)
}

func (s *switchWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.Level(s.level.Load()) {
		return len(p), nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.w == nil {
		return len(p), nil
	}
	if lw, ok := s.w.(zerolog.LevelWriter); ok {
		return lw.WriteLevel(level, p)
	}
	return s.w.Write(p)
}
