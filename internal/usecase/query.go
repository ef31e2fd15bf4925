package usecase

import (
	"github.com/EricA1019/Godot-MCP/internal/domain"
	"github.com/EricA1019/Godot-MCP/internal/port"
)

// Query limits accepted from external callers.
const (
	DefaultQueryLimit = 10
	MaxQueryLimit     = 100
)

// ResolveLimit normalizes a caller-supplied limit. An absent limit
// (nil) selects DefaultQueryLimit; a supplied value is capped at
// MaxQueryLimit. Zero and negative values pass through untouched so an
// explicit limit of 0 returns empty hits.
func ResolveLimit(limit *int) int {
	if limit == nil {
		return DefaultQueryLimit
	}
	if *limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return *limit
}

// QueryUseCase answers free-text searches against the index.
type QueryUseCase struct {
	store port.Store
}

// NewQueryUseCase creates a query use case.
func NewQueryUseCase(store port.Store) *QueryUseCase {
	return &QueryUseCase{store: store}
}

// Query returns ranked hits for a free-text query.
func (u *QueryUseCase) Query(q string, limit int) ([]domain.Hit, error) {
	return u.store.Search(q, limit)
}

// QueryAdvanced adds kind filtering and optional snippets.
func (u *QueryUseCase) QueryAdvanced(q, kind string, limit int, snippet bool) ([]domain.AdvancedHit, error) {
	return u.store.SearchAdvanced(q, kind, limit, snippet)
}
