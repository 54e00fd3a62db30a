// Package maintain implements the maintenance orchestrator: a first-run
// build when no index exists, and a periodic rebuild triggered by
// detected VCS changes. Everything is gated on CODEX_INDEXING and runs
// with a single fixed parameter set. No finer-grained incremental
// update is attempted; rebuild-on-any-change keeps the build lock as
// the only serialization point.
package maintain

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codex-agentic/semidx/internal/chunk"
	"github.com/codex-agentic/semidx/internal/embed"
	"github.com/codex-agentic/semidx/internal/store"
	"github.com/codex-agentic/semidx/internal/vcsinfo"
)

// DefaultParams is the fixed build configuration both first-run and
// periodic maintenance use.
var DefaultParams = store.BuildParams{
	Model:   embed.ModelBgeSmall,
	Chunk:   chunk.ModeAuto,
	Lines:   chunk.DefaultTarget,
	Overlap: chunk.DefaultOverlap,
}

// PeriodicInterval is the fixed tick between VCS-change checks.
const PeriodicInterval = 300 * time.Second

// IndexingEnvVar disables both first-run and periodic maintenance when
// set to "0" or "off" (case-insensitive).
const IndexingEnvVar = "CODEX_INDEXING"

var periodicStarted sync.Once

// Enabled reports whether maintenance is permitted to run at all.
func Enabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(IndexingEnvVar)))
	return v != "0" && v != "off"
}

// FirstRun spawns one background build if the index has never been
// built, swallowing any error. It returns immediately; the build
// runs in its own goroutine.
func FirstRun(root string) {
	if !Enabled() {
		return
	}
	paths := store.NewPaths(root)
	if _, err := os.Stat(paths.Manifest); err == nil {
		return // manifest already exists, nothing to do
	}

	go func() {
		if _, err := store.Build(context.Background(), root, DefaultParams); err != nil {
			slog.Warn("first_run_build_failed", slog.String("error", err.Error()))
		}
	}()
}

// StartPeriodic starts the singleton periodic maintenance loop for
// root. Safe to call more than once per process; only the first call
// has any effect.
func StartPeriodic(ctx context.Context, root string) {
	if !Enabled() {
		return
	}
	periodicStarted.Do(func() {
		go runPeriodic(ctx, root)
	})
}

func runPeriodic(ctx context.Context, root string) {
	wake := make(chan struct{}, 1)
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		defer watcher.Close()
		if err := watcher.Add(root); err == nil {
			go debounceEvents(ctx, watcher, wake)
		}
	}

	ticker := time.NewTicker(PeriodicInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			attempt(root)
		case <-wake:
			// An fsnotify event only accelerates the next check; the
			// decision to rebuild still goes through the same VCS
			// consultation as the timer-driven tick.
			attempt(root)
			ticker.Reset(PeriodicInterval)
		}
	}
}

func debounceEvents(ctx context.Context, watcher *fsnotify.Watcher, wake chan<- struct{}) {
	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-watcher.Events:
			if !ok {
				return
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(2*time.Second, func() {
				select {
				case wake <- struct{}{}:
				default:
				}
			})
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func attempt(root string) {
	paths := store.NewPaths(root)
	analytics, _ := store.LoadAnalytics(paths.Analytics)
	analytics.LastAttemptTS = time.Now().UTC().Format(time.RFC3339)
	_ = store.WriteAnalytics(paths.Analytics, analytics)

	if !vcsinfo.HasChanges(root) {
		return
	}

	if _, err := store.Build(context.Background(), root, DefaultParams); err != nil {
		slog.Warn("periodic_build_failed", slog.String("error", err.Error()))
	}
}
