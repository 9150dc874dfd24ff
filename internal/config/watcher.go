package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"workerservice/internal/logger"
)

// debounce collapses the burst of events editors produce for a single save.
const debounce = 200 * time.Millisecond

// FileWatcher monitors a set of files in one directory and invokes a callback
// when any of them is written or created.
type FileWatcher struct {
	dir      string
	names    map[string]bool
	watcher  *fsnotify.Watcher
	onChange func()
	log      zerolog.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{}
}

// NewFileWatcher creates a watcher for paths, which must share a directory.
func NewFileWatcher(log zerolog.Logger, onChange func(), paths ...string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		names:    make(map[string]bool),
		watcher:  w,
		onChange: onChange,
		log:      log,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, p := range paths {
		fw.dir = filepath.Dir(p)
		fw.names[filepath.Base(p)] = true
	}
	return fw, nil
}

// Start begins watching for file changes.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.running {
		return nil
	}

	if err := fw.watcher.Add(fw.dir); err != nil {
		return err
	}
	fw.running = true

	fw.log.Info().Str("dir", fw.dir).Msg("Started watching configuration")
	go fw.watch()
	return nil
}

// Stop stops watching and waits for the watch goroutine to exit.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return fw.watcher.Close()
	}
	fw.running = false
	fw.mu.Unlock()

	close(fw.stopChan)
	err := fw.watcher.Close()
	<-fw.done
	return err
}

// IsRunning returns whether the watcher is currently running.
func (fw *FileWatcher) IsRunning() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.running
}

func (fw *FileWatcher) watch() {
	defer close(fw.done)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-fw.stopChan:
			fw.log.Info().Str("dir", fw.dir).Msg("Configuration watcher stopped")
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.names[filepath.Base(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			fw.log.Debug().
				Str("path", event.Name).
				Str("event", event.Op.String()).
				Msg("Configuration file changed")
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if fw.onChange != nil {
				fw.onChange()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Error().Err(err).Str("dir", fw.dir).Msg("Configuration watcher error")
		}
	}
}

// NewLoggingWatcher reloads the Logging section of path (and of its
// environment overlay) on change and hands it to callback. The worker
// interval is read once at startup and never reloaded.
func NewLoggingWatcher(path string, lookup LookupFunc, log zerolog.Logger, callback func(logger.Config)) (*FileWatcher, error) {
	overlay := OverlayPath(path, EnvironmentName(lookup))
	return NewFileWatcher(log, func() {
		lc, err := LoadLogging(path, lookup)
		if err != nil {
			log.Error().Err(err).Msg("Failed to reload logging configuration")
			return
		}
		log.Info().Str("level", lc.Level).Msg("Logging configuration reloaded")
		if callback != nil {
			callback(lc)
		}
	}, path, overlay)
}
