// Package watch enqueues documents dropped into a local intake folder.
// Layout is one subdirectory per deal: <watch_dir>/<deal_id>/<file>.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gmsas95/dealintake/internal/artifact"
	"github.com/gmsas95/dealintake/internal/store"
)

const sourceTable = "dropfolder"

// Watcher turns file-creation events in the drop folder into enqueued
// artifacts.
type Watcher struct {
	dir    string
	queue  *artifact.Queue
	store  *store.Store
	logger *zap.Logger
}

// New creates a drop-folder watcher.
func New(dir string, queue *artifact.Queue, s *store.Store, logger *zap.Logger) *Watcher {
	return &Watcher{dir: dir, queue: queue, store: s, logger: logger}
}

// Run watches the drop folder until the context is cancelled. Existing files
// are enqueued on startup, so drops that happened while the service was down
// are not lost.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(w.dir, e.Name())
		if err := fw.Add(sub); err != nil {
			w.logger.Warn("failed to watch deal folder", zap.String("dir", sub), zap.Error(err))
			continue
		}
		w.sweepDir(sub)
	}

	w.logger.Info("drop folder watcher started", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				// New deal folder: watch it and pick up anything already inside.
				if filepath.Dir(event.Name) == w.dir {
					if err := fw.Add(event.Name); err != nil {
						w.logger.Warn("failed to watch deal folder", zap.String("dir", event.Name), zap.Error(err))
					} else {
						w.sweepDir(event.Name)
					}
				}
				continue
			}
			w.enqueueFile(event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) sweepDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.Warn("failed to sweep deal folder", zap.String("dir", dir), zap.Error(err))
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		w.enqueueFile(filepath.Join(dir, e.Name()))
	}
}

// enqueueFile maps a dropped file to its deal by parent directory and
// enqueues it. Enqueue is idempotent, so double events and restart sweeps
// are harmless.
func (w *Watcher) enqueueFile(path string) {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return
	}
	parts := strings.SplitN(filepath.ToSlash(rel), "/", 2)
	if len(parts) != 2 {
		// Files at the top level have no deal to belong to.
		w.logger.Warn("ignoring file outside a deal folder", zap.String("path", path))
		return
	}
	dealID, filename := parts[0], filepath.Base(path)
	if strings.HasPrefix(filename, ".") {
		return
	}

	deal, err := w.store.GetDeal(dealID)
	if err != nil {
		w.logger.Warn("dropped file for unknown deal", zap.String("deal_id", dealID), zap.String("file", filename))
		return
	}

	res, err := w.queue.Enqueue(deal.ID, deal.BankID, sourceTable, rel, filename)
	if err != nil {
		w.logger.Error("failed to enqueue dropped file", zap.String("path", path), zap.Error(err))
		return
	}
	if !res.AlreadyQueued {
		w.logger.Info("dropped file enqueued",
			zap.String("deal_id", deal.ID),
			zap.String("file", filename),
			zap.String("artifact_id", res.Artifact.ID))
	}
}
