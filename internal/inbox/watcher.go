// Package inbox watches a drop directory and reports PDFs that land
// in it so the page controller can run its normal upload workflow on
// them. Anything that is not a PDF is ignored without comment.
package inbox

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event names one dropped PDF.
type Event struct {
	Path string
}

// Watcher owns the fsnotify loop for one directory.
type Watcher struct {
	fsw    *fsnotify.Watcher
	events chan Event
	log    *zap.Logger
	once   sync.Once
}

// Watch starts watching dir. Close must be called on teardown.
func Watch(dir string, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w := &Watcher{
		fsw:    fsw,
		events: make(chan Event, 16),
		log:    log,
	}
	go w.run()
	log.Info("watching inbox", zap.String("dir", dir))
	return w, nil
}

// Events delivers dropped PDFs. The channel closes when the watcher
// shuts down.
func (w *Watcher) Events() <-chan Event { return w.events }

// Close stops the watcher and closes the event channel.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.events)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".pdf") {
				continue
			}
			w.log.Info("inbox pdf detected", zap.String("path", ev.Name))
			select {
			case w.events <- Event{Path: ev.Name}:
			default:
				// A full buffer means the UI is far behind; dropping
				// is safer than blocking the notify loop.
				w.log.Warn("inbox event dropped", zap.String("path", ev.Name))
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("inbox watch error", zap.Error(err))
		}
	}
}
