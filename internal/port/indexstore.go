package port

import "github.com/EricA1019/Godot-MCP/internal/domain"

// Store is the persistent full-text index over documents.
type Store interface {
	// ApplyBatch applies an ordered sequence of deletes and upserts as a
	// single atomic commit and returns the number of operations applied.
	// Upserts whose content hash matches the stored document are no-ops.
	ApplyBatch(ops []domain.Op) (int, error)

	// Search returns up to limit hits ordered by descending score, ties
	// broken by ascending path.
	Search(query string, limit int) ([]domain.Hit, error)

	// SearchAdvanced is Search restricted to an optional kind and
	// optionally carrying a short snippet excerpt per hit.
	SearchAdvanced(query, kind string, limit int, wantSnippet bool) ([]domain.AdvancedHit, error)

	// Health reports document and term counts.
	Health() (domain.Stats, error)

	// Paths lists every indexed path.
	Paths() ([]string, error)

	// Hash returns the stored content hash for a path, or "" if the
	// path is not indexed.
	Hash(path string) (string, error)

	Close() error
}
