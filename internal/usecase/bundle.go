package usecase

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/EricA1019/Godot-MCP/internal/adapter/fs"
	"github.com/EricA1019/Godot-MCP/internal/domain"
	"github.com/EricA1019/Godot-MCP/internal/port"
)

// Bundler defaults.
const (
	DefaultBundleLimit = 32
	DefaultBundleCap   = 64 * 1024
)

// BundleUseCase assembles a ranked, deduplicated, byte-capped set of
// file contents for a query. For a fixed index and filesystem state the
// output is byte-identical across runs.
type BundleUseCase struct {
	store  port.Store
	root   string
	logger *slog.Logger
}

// NewBundleUseCase creates a bundle use case reading file contents from
// disk under root.
func NewBundleUseCase(store port.Store, root string, logger *slog.Logger) *BundleUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err == nil {
		if resolved, rerr := filepath.EvalSymlinks(abs); rerr == nil {
			abs = resolved
		}
		root = abs
	}
	return &BundleUseCase{store: store, root: root, logger: logger}
}

// quantizeScore collapses floating-point jitter so ordering is stable
// across runs.
func quantizeScore(score float64) int {
	return int(math.Round(score * 1000))
}

type candidate struct {
	hit    domain.AdvancedHit
	score  int
	mtime  int64
	abs    string
	family string
}

// Bundle ranks index hits for q, keeps the first hit per file family,
// then re-reads survivors from disk in order until adding the next file
// would exceed capBytes. A non-positive limit selects the default;
// capBytes is taken literally, so zero yields an empty bundle. Callers
// substitute DefaultBundleCap when the cap was not supplied.
func (u *BundleUseCase) Bundle(q string, limit, capBytes int, kind string) (*domain.Bundle, error) {
	if limit <= 0 {
		limit = DefaultBundleLimit
	}
	if capBytes < 0 {
		capBytes = 0
	}

	hits, err := u.store.SearchAdvanced(q, kind, limit, false)
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(hits))
	for _, hit := range hits {
		c := candidate{
			hit:    hit,
			score:  quantizeScore(hit.Score),
			abs:    fs.AbsolutePath(u.root, hit.Path),
			family: fs.FamilyKey(hit.Path),
		}
		// Recency bias inside a quantized tie band: filesystem mtime,
		// deterministic for a fixed tree.
		if info, err := os.Stat(c.abs); err == nil {
			c.mtime = info.ModTime().Unix()
		}
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.mtime != b.mtime {
			return a.mtime > b.mtime
		}
		return a.hit.Path < b.hit.Path
	})

	seen := make(map[string]struct{}, len(candidates))
	bundle := &domain.Bundle{Query: q, Items: []domain.BundleItem{}}
	if capBytes == 0 {
		return bundle, nil
	}

	for _, c := range candidates {
		if _, dup := seen[c.family]; dup {
			continue
		}
		seen[c.family] = struct{}{}

		// Fresh read so the bundle reflects the current filesystem, not
		// the indexed copy.
		data, err := os.ReadFile(c.abs)
		if err != nil {
			u.logger.Warn("bundle read failed", "path", c.hit.Path, "error", err)
			continue
		}

		if bundle.SizeBytes+len(data) > capBytes {
			// The ordering is the contract: no mid-file truncation, no
			// substitution of later smaller files.
			break
		}

		bundle.Items = append(bundle.Items, domain.BundleItem{
			Path:    c.hit.Path,
			Kind:    c.hit.Kind,
			Score:   c.score,
			Content: string(data),
		})
		bundle.SizeBytes += len(data)
	}

	return bundle, nil
}
