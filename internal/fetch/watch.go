package fetch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 500 * time.Millisecond

// Watch observes a local reports tree and invokes onChange with the affected
// tournament folder whenever its files change ("" for the top-level
// tournament list). Bursts of events for the same folder are debounced.
// Blocks until ctx is canceled.
func Watch(ctx context.Context, root string, onChange func(folder string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	reportsDir := filepath.Join(root, "reports")
	if err := watcher.Add(reportsDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", reportsDir, err)
	}
	entries, err := os.ReadDir(reportsDir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", reportsDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := watcher.Add(filepath.Join(reportsDir, entry.Name())); err != nil {
				log.Printf("watch: skipping %s: %v", entry.Name(), err)
			}
		}
	}

	pending := map[string]bool{}
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			folder := folderOf(reportsDir, event.Name)
			pending[folder] = true
			// Newly created tournament directories need their own watch.
			if event.Has(fsnotify.Create) && folder != "" {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						log.Printf("watch: failed to add %s: %v", event.Name, err)
					}
				}
			}
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)

		case <-timer.C:
			for folder := range pending {
				onChange(folder)
			}
			pending = map[string]bool{}
		}
	}
}

// folderOf maps an event path to its tournament folder, or "" for files at
// the reports root (tournaments.json).
func folderOf(reportsDir, path string) string {
	rel, err := filepath.Rel(reportsDir, path)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	if i := strings.Index(rel, "/"); i >= 0 {
		return rel[:i]
	}
	return ""
}
