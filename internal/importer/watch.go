package importer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch re-syncs an entry whenever its workbook is written or recreated.
// Errors are flushed to the logger after every re-sync. It returns when ctx
// is done.
func (im *Importer) Watch(ctx context.Context, errs *ErrorLog) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify.NewWatcher failed: %w", err)
	}
	defer w.Close()

	entriesByPath := make(map[string][]int)
	dirs := make(map[string]struct{})
	for i, entry := range im.conf.Entries {
		path := entry.XlsxAbsolutePath(im.conf.ProjectDir)
		if path == "" {
			continue
		}
		entriesByPath[path] = append(entriesByPath[path], i)
		dirs[filepath.Dir(path)] = struct{}{}
	}

	// Watching directories catches editors that save by rename.
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s failed: %w", dir, err)
		}
	}
	im.logger.Info("watching workbooks", zap.Int("files", len(entriesByPath)))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			indexes, ok := entriesByPath[filepath.Clean(event.Name)]
			if !ok {
				continue
			}
			im.logger.Info("workbook changed", zap.String("path", event.Name))
			for _, i := range indexes {
				im.SyncEntry(i, errs)
			}
			errs.Flush()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			im.logger.Warn("watch error", zap.Error(err))
		}
	}
}
