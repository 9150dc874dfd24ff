package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"workerservice/internal/config"
	"workerservice/internal/heartbeat"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("publisher is closed")

// FilePublisher appends beats as JSON lines to a rotating file.
type FilePublisher struct {
	filePath string
	writer   *lumberjack.Logger
	mu       sync.Mutex
	closed   bool
}

// NewFilePublisher creates a FilePublisher with the given configuration.
func NewFilePublisher(cfg config.FileConfig) (*FilePublisher, error) {
	if cfg.FilePath == "" {
		return nil, errors.New("file publisher requires a FilePath")
	}
	if dir := filepath.Dir(cfg.FilePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create heartbeat directory: %w", err)
		}
	}

	return &FilePublisher{
		filePath: cfg.FilePath,
		writer: &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		},
	}, nil
}

// Publish writes one line.
func (p *FilePublisher) Publish(_ context.Context, beat *heartbeat.Beat) error {
	data, err := json.Marshal(beat)
	if err != nil {
		return fmt.Errorf("failed to marshal heartbeat: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if _, err := p.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write heartbeat to %s: %w", p.filePath, err)
	}
	return nil
}

// Close closes the underlying file.
func (p *FilePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}
