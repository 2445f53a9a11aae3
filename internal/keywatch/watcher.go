// ABOUTME: Watches a keypair file and reloads the signer when it changes
// ABOUTME: Rapid successive writes are debounced into a single reload

package keywatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/2389/searcher-auth/pkg/auth"
)

// DefaultDebounce is how long the file must stay quiet before a reload.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports keypair rotations.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher for the keypair at path. The optional logger receives
// reload failures.
func New(path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		path:     path,
		debounce: DefaultDebounce,
		logger:   logger.With("component", "keywatch", "path", path),
	}
}

// Run blocks until ctx is done, calling onChange with the new signer each time
// the file settles on a key with a different identity. Unreadable or invalid
// intermediate contents are logged and skipped.
func (w *Watcher) Run(ctx context.Context, onChange func(auth.Signer)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("keywatch: create watcher: %w", err)
	}
	defer fsw.Close()

	// Watch the directory so editors that replace the file by rename are seen.
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("keywatch: watch %s: %w", dir, err)
	}

	var current string
	if signer, err := auth.LoadSigner(w.path); err == nil {
		current = signer.Identity()
	}

	base := filepath.Base(w.path)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("keypair watcher error", "error", err)

		case <-timer.C:
			signer, err := auth.LoadSigner(w.path)
			if err != nil {
				w.logger.Warn("keypair reload failed", "error", err)
				continue
			}
			if signer.Identity() == current {
				continue
			}
			current = signer.Identity()
			w.logger.Info("keypair rotated", "identity", current)
			onChange(signer)
		}
	}
}
