package config

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/technosupport/ts-crimewatch/internal/engine"
)

const pollInterval = 60 * time.Second

// WatchEngineConfig reloads the engine threshold file on change and
// hands the parsed config to onReload. A file that fails to parse or
// validate is logged and skipped; the previous config stays active.
// Falls back to polling when fsnotify is unavailable, and polls slowly
// alongside the watcher as a safety net either way.
func WatchEngineConfig(ctx context.Context, path string, onReload func(engine.Config)) {
	if path == "" {
		log.Println("[Config Watcher] No engine config file set, hot reload disabled")
		return
	}

	reload := func(source string) {
		cfg, err := LoadEngineConfig(path)
		if err != nil {
			log.Printf("[Config Watcher] Reload skipped (%s): %v", source, err)
			return
		}
		log.Printf("[Config Watcher] Engine config reloaded (%s), version %s", source, cfg.Version)
		onReload(cfg)
	}

	watcher, err := fsnotify.NewWatcher()
	usePolling := false

	if err != nil {
		log.Printf("[Config Watcher] fsnotify failed (%v), falling back to polling", err)
		usePolling = true
	} else {
		if err := watcher.Add(path); err != nil {
			log.Printf("[Config Watcher] Failed to watch file %s (%v), falling back to polling", path, err)
			usePolling = true
			watcher.Close()
		}
	}

	if !usePolling {
		go func() {
			defer watcher.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case event, ok := <-watcher.Events:
					if !ok {
						return
					}
					if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
						// Debounce: editors often write in bursts.
						time.Sleep(100 * time.Millisecond)
						reload("fsnotify")
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return
					}
					log.Printf("[Config Watcher] Error: %v", err)
				}
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		var lastMtime time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				mtime, ok := fileMtime(path)
				if !ok {
					continue
				}
				if !lastMtime.IsZero() && mtime.After(lastMtime) {
					reload("poll")
				}
				lastMtime = mtime
			}
		}
	}()
}

func fileMtime(path string) (time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}
