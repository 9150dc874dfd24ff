package publisher

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"workerservice/internal/config"
)

func TestNew_LogOnly(t *testing.T) {
	p, err := New(config.PublisherConfig{Types: []string{"log"}}, time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected no publisher for log-only config, got %T", p)
	}
}

func TestNew_SinglePublisher(t *testing.T) {
	cfg := config.PublisherConfig{Types: []string{"File"}, File: tempFileConfig(t)}
	p, err := New(cfg, time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()
	if _, ok := p.(*FilePublisher); !ok {
		t.Errorf("expected *FilePublisher, got %T", p)
	}
}

func TestNew_MultiplePublishers(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.PublisherConfig{
		Types: []string{"log", "file", "redis"},
		File:  tempFileConfig(t),
		Redis: config.RedisConfig{Address: mr.Addr(), KeyPrefix: "HEARTBEAT:"},
	}
	p, err := New(cfg, time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()
	m, ok := p.(Multi)
	if !ok {
		t.Fatalf("expected Multi, got %T", p)
	}
	if len(m) != 2 {
		t.Errorf("expected 2 sinks, got %d", len(m))
	}
}

func TestNew_UnknownType(t *testing.T) {
	cfg := config.PublisherConfig{Types: []string{"file", "mqtt"}, File: tempFileConfig(t)}
	if _, err := New(cfg, time.Second, zerolog.Nop()); err == nil {
		t.Error("expected error for unknown publisher type")
	}
}

func TestNew_InvalidFileConfig(t *testing.T) {
	cfg := config.PublisherConfig{Types: []string{"file"}}
	if _, err := New(cfg, time.Second, zerolog.Nop()); err == nil {
		t.Error("expected error for file publisher without a path")
	}
}
