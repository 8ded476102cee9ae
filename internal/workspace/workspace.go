// Package workspace owns the single shared mmdb.Database a running
// language server validates worksheets against, reloading it when the
// underlying .mm file changes on disk.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"

	"github.com/tirix/metamath-vspa/internal/config"
	"github.com/tirix/metamath-vspa/internal/mmdb"
)

// ErrLockPoisoned is returned once a Workspace's guard has been poisoned
// by a panic during a previous load: rather than silently serving a
// database left in a partially-mutated state, every subsequent access
// fails until the process restarts. This is the explicit surface the
// design calls for in place of Go's usual "a poisoned mutex just stays
// locked forever" behavior (Go mutexes don't poison themselves the way
// Rust's do, so the workspace tracks it itself).
var ErrLockPoisoned = errors.New("workspace: guard poisoned by a previous panic, restart required")

// Workspace holds the process-wide database singleton plus the
// machinery to keep it current: a debounced fsnotify watch on the
// database file, retried with backoff on transient read failures, and
// deduplicated via singleflight so a burst of filesystem events
// triggers at most one reload in flight at a time.
type Workspace struct {
	cfg    config.Config
	logger *slog.Logger

	mu       sync.Mutex
	poisoned bool
	db       *mmdb.Database
	loadErr  error

	group singleflight.Group
}

// New returns a Workspace configured per cfg. The database is not loaded
// until Load is called explicitly, so construction never fails on I/O.
func New(cfg config.Config, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{cfg: cfg, logger: logger}
}

// Database returns the currently loaded database. It fails with
// ErrLockPoisoned if a previous Load panicked, and with the last load
// error if no database has ever loaded successfully.
func (w *Workspace) Database() (*mmdb.Database, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.poisoned {
		return nil, ErrLockPoisoned
	}
	if w.db == nil {
		if w.loadErr != nil {
			return nil, w.loadErr
		}
		return nil, errors.New("workspace: database not loaded yet")
	}
	return w.db, nil
}

// Load (re)reads the database file, retrying transient failures with
// exponential backoff up to cfg.MaxReloadRetries times after the first
// attempt. Concurrent
// calls collapse into a single underlying load via singleflight.
func (w *Workspace) Load(ctx context.Context) (err error) {
	_, err, _ = w.group.Do("load", func() (any, error) {
		return nil, w.load(ctx)
	})
	return err
}

func (w *Workspace) load(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.mu.Lock()
			w.poisoned = true
			w.mu.Unlock()
			err = fmt.Errorf("workspace: panic while loading database: %v", r)
		}
	}()

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(max(w.cfg.MaxReloadRetries, 0)))
	bo2 := backoff.WithContext(bo, ctx)

	var db *mmdb.Database
	op := func() error {
		f, openErr := os.Open(w.cfg.DatabasePath)
		if openErr != nil {
			return openErr
		}
		defer f.Close()

		loaded, parseErr := mmdb.Load(f)
		if parseErr != nil {
			// A parse failure is not transient: retrying won't fix a
			// malformed .mm file, so mark it permanent.
			return backoff.Permanent(parseErr)
		}
		db = loaded
		return nil
	}

	if err := backoff.Retry(op, bo2); err != nil {
		w.mu.Lock()
		w.loadErr = err
		w.mu.Unlock()
		w.logger.Error("database load failed", "path", w.cfg.DatabasePath, "error", err)
		return err
	}

	w.mu.Lock()
	w.db = db
	w.loadErr = nil
	w.mu.Unlock()
	w.logger.Info("database loaded", "path", w.cfg.DatabasePath)
	return nil
}

// Watch runs until ctx is canceled, reloading the database (debounced)
// whenever its file is written. It blocks; callers typically run it in
// its own goroutine alongside the server loop.
func (w *Workspace) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("workspace: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.cfg.DatabasePath); err != nil {
		return fmt.Errorf("workspace: watch %s: %w", w.cfg.DatabasePath, err)
	}

	debounce := w.cfg.WatchDebounce
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			if err := w.Load(ctx); err != nil {
				w.logger.Warn("debounced reload failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}
