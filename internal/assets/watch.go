package assets

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounce = 100 * time.Millisecond

// Watcher reports changed asset files under a directory tree. Events
// carry slash separated paths relative to the root.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher watches root and every directory below it.
func NewWatcher(root string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return nil, err
	}

	watcher := &Watcher{
		root:    root,
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops watching. Events and Errors are closed once the watcher
// goroutine exits.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer func() {
		close(w.Events)
		close(w.Errors)
		close(w.done)
	}()

	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 && isDir(event.Name) {
				_ = w.watcher.Add(event.Name)
				continue
			}
			if !isAssetFile(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < debounce {
				continue
			}
			last[event.Name] = now

			rel, err := filepath.Rel(w.root, event.Name)
			if err != nil {
				continue
			}
			select {
			case w.Events <- filepath.ToSlash(rel):
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func isAssetFile(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".png", ".bmp", ".ogg", ".wav", ".mp3", ".yaml", ".yml":
		return true
	}
	return false
}

// Watch invalidates cached assets as they change on disk and calls
// onChange, if set, with each changed path.
func (m *Manager) Watch(onChange func(path string)) (*Watcher, error) {
	w, err := NewWatcher(m.dir)
	if err != nil {
		return nil, err
	}
	go func() {
		for {
			select {
			case p, ok := <-w.Events:
				if !ok {
					return
				}
				m.Invalidate(p)
				m.log.Debug("asset changed", zap.String("path", p))
				if onChange != nil {
					onChange(p)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				m.log.Warn("asset watcher error", zap.Error(err))
			}
		}
	}()
	return w, nil
}
