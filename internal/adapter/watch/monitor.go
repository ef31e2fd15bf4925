package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/EricA1019/Godot-MCP/internal/adapter/fs"
	"github.com/EricA1019/Godot-MCP/internal/domain"
	"github.com/EricA1019/Godot-MCP/internal/port"
)

// DefaultDebounce coalesces editor save storms: within the window only
// the last effective state per path is applied.
const DefaultDebounce = 200 * time.Millisecond

// flushInterval is how often the pending buffer is checked for entries
// older than the debounce window.
const flushInterval = 50 * time.Millisecond

type eventKind int

const (
	evUpsert eventKind = iota
	evDelete
)

type pendingEvent struct {
	kind eventKind
	at   time.Time
}

// Monitor keeps the index convergent with on-disk state by applying
// debounced differential batches for filesystem events under root.
// Exactly one watch goroutine runs at a time; Start and Stop are
// idempotent and safe for concurrent use.
type Monitor struct {
	store    port.Store
	root     string
	debounce time.Duration
	logger   *slog.Logger

	// mu guards the lifecycle; pmu guards the pending buffer so the
	// flush loop never contends with Start/Stop.
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	pmu     sync.Mutex
	pending map[string]pendingEvent
}

// NewMonitor creates a Monitor over root. A zero debounce selects
// DefaultDebounce.
func NewMonitor(store port.Store, root string, debounce time.Duration, logger *slog.Logger) *Monitor {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	root, err := filepath.Abs(root)
	if err == nil {
		if resolved, rerr := filepath.EvalSymlinks(root); rerr == nil {
			root = resolved
		}
	}
	return &Monitor{
		store:    store,
		root:     root,
		debounce: debounce,
		logger:   logger,
	}
}

// Start begins watching. Returns domain.WatchAlreadyRunning without
// side effects when a watcher is already live.
func (m *Monitor) Start() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return domain.WatchAlreadyRunning, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return "", err
	}
	if err := addRecursive(watcher, m.root); err != nil {
		watcher.Close()
		return "", err
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.pmu.Lock()
	m.pending = make(map[string]pendingEvent)
	m.pmu.Unlock()

	go m.run(ctx, watcher)

	m.logger.Info("watcher started", "root", m.root)
	return domain.WatchStarted, nil
}

// Stop signals the watch goroutine and waits for it to unwind. The
// pending debounce buffer is dropped; the index stays valid, possibly
// stale.
func (m *Monitor) Stop() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel == nil {
		return domain.WatchNotRunning
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
	m.pmu.Lock()
	m.pending = nil
	m.pmu.Unlock()

	m.logger.Info("watcher stopped", "root", m.root)
	return domain.WatchStopped
}

// addRecursive registers root and every non-ignored subdirectory.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		if path != root && fs.Ignored(info.Name()) {
			return filepath.SkipDir
		}
		// Per-directory add failures are non-fatal; the tree stays
		// partially watched rather than not at all.
		_ = watcher.Add(path)
		return nil
	})
}

func (m *Monitor) run(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(m.done)
	defer watcher.Close()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			m.intake(watcher, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("watch error", "error", err)

		case <-ticker.C:
			m.flush()
		}
	}
}

// intake classifies one raw event and records it in the pending buffer.
// Renames expand to a delete of the old name; fsnotify reports the new
// name as a separate Create.
func (m *Monitor) intake(watcher *fsnotify.Watcher, event fsnotify.Event) {
	rel, err := filepath.Rel(m.root, event.Name)
	if err != nil || fs.Ignored(rel) {
		return
	}

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		m.record(event.Name, evDelete)

	case event.Op&fsnotify.Create != 0:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addRecursive(watcher, event.Name); err != nil {
				m.logger.Warn("watch add failed", "dir", event.Name, "error", err)
			}
			return
		}
		m.record(event.Name, evUpsert)

	case event.Op&fsnotify.Write != 0:
		m.record(event.Name, evUpsert)
	}
}

func (m *Monitor) record(path string, kind eventKind) {
	m.pmu.Lock()
	defer m.pmu.Unlock()
	if m.pending == nil {
		return
	}
	m.pending[path] = pendingEvent{kind: kind, at: time.Now()}
}

// flush drains pending entries older than the debounce window and
// applies them as one batch, deletes first.
func (m *Monitor) flush() {
	now := time.Now()

	m.pmu.Lock()
	var ripe map[string]pendingEvent
	for path, ev := range m.pending {
		if now.Sub(ev.at) >= m.debounce {
			if ripe == nil {
				ripe = make(map[string]pendingEvent)
			}
			ripe[path] = ev
			delete(m.pending, path)
		}
	}
	m.pmu.Unlock()

	if len(ripe) == 0 {
		return
	}

	ops := m.buildOps(ripe)
	if len(ops) == 0 {
		return
	}
	if _, err := m.store.ApplyBatch(ops); err != nil {
		m.logger.Error("watch batch failed", "ops", len(ops), "error", err)
		return
	}
	m.logger.Debug("watch batch applied", "ops", len(ops))
}

// buildOps turns ripe events into index operations. Deletes precede
// upserts so a rapid delete-then-recreate of a path lands correctly
// regardless of observation order.
func (m *Monitor) buildOps(ripe map[string]pendingEvent) []domain.Op {
	var deletes, upserts []domain.Op

	// Stable order keeps batches deterministic for a given event set.
	paths := make([]string, 0, len(ripe))
	for path := range ripe {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		ev := ripe[path]
		normalized := fs.NormalizePath(m.root, path)

		if ev.kind == evDelete {
			deletes = append(deletes, domain.Delete(normalized))
			continue
		}

		data, ok, err := fs.ReadIndexable(path)
		if err != nil {
			// Gone or unreadable between event and flush: demote.
			deletes = append(deletes, domain.Delete(normalized))
			continue
		}
		if !ok {
			// No longer indexable (oversize or binary); drop any
			// previously indexed version.
			if stored, err := m.store.Hash(normalized); err == nil && stored != "" {
				deletes = append(deletes, domain.Delete(normalized))
			}
			continue
		}

		hash := fs.HashContent(data)
		if stored, err := m.store.Hash(normalized); err == nil && stored == hash {
			continue
		}

		upserts = append(upserts, domain.Upsert(domain.Document{
			Path:    normalized,
			Content: string(data),
			Kind:    fs.DetectKind(path),
			Hash:    hash,
		}))
	}

	return append(deletes, upserts...)
}
