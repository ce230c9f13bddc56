package service

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Watch invalidates a source's cache slot whenever its file is written,
// created, renamed or removed. Directories are watched rather than files so
// that editors which replace the file are still seen. Setup happens before
// Watch returns; events are handled in a goroutine until ctx is cancelled.
func (s *Service) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "service: create watcher")
	}

	byPath := make(map[string]string, len(s.sources))
	dirs := make(map[string]bool)
	for _, src := range s.sources {
		abs, err := filepath.Abs(src.Path)
		if err != nil {
			w.Close() //nolint:errcheck
			return eris.Wrapf(err, "service: resolve %s", src.Path)
		}
		byPath[abs] = src.Path
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close() //nolint:errcheck
			return eris.Wrapf(err, "service: watch %s", dir)
		}
	}

	log := s.log.With(zap.String("component", "service.watch"))
	log.Info("watching sources", zap.Int("dirs", len(dirs)))

	go func() {
		defer w.Close() //nolint:errcheck
		for {
			select {
			case <-ctx.Done():
				log.Info("source watch stopped")
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				path, tracked := byPath[filepath.Clean(ev.Name)]
				if !tracked || ev.Op == fsnotify.Chmod {
					continue
				}
				log.Debug("source changed", zap.String("source", path), zap.String("op", ev.Op.String()))
				s.InvalidateSource(path)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("service: watch error", zap.Error(err))
			}
		}
	}()
	return nil
}

// RunRefresher reloads every source on each tick. It blocks until ctx is
// cancelled.
func (s *Service) RunRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	log := s.log.With(zap.String("component", "service.refresher"))
	log.Info("starting source refresher", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("source refresher stopped")
			return
		case <-ticker.C:
			snaps, err := s.Refresh(ctx)
			if err != nil {
				log.Warn("service: refresh failed", zap.Error(err))
				continue
			}
			unavailable := 0
			for _, snap := range snaps {
				if !snap.Available || snap.Stale {
					unavailable++
				}
			}
			log.Debug("service: refresh complete",
				zap.Int("sources", len(snaps)),
				zap.Int("unavailable", unavailable),
			)
		}
	}
}
