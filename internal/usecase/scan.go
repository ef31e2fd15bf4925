package usecase

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/EricA1019/Godot-MCP/internal/adapter/fs"
	"github.com/EricA1019/Godot-MCP/internal/domain"
	"github.com/EricA1019/Godot-MCP/internal/port"
)

// ScanUseCase bulk-loads the index from a directory tree.
type ScanUseCase struct {
	store  port.Store
	walker *fs.Walker
	logger *slog.Logger
}

// NewScanUseCase creates a scan use case.
func NewScanUseCase(store port.Store, walker *fs.Walker, logger *slog.Logger) *ScanUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanUseCase{store: store, walker: walker, logger: logger}
}

// ScanResult reports the outcome of a scan or reconcile pass.
type ScanResult struct {
	Indexed int
	Skipped int
	Deleted int
}

// ProgressFunc receives (processed, total) while files are read.
type ProgressFunc func(processed, total int)

// Scan walks root, classifies and hashes every surviving file, and
// submits all upserts as a single batch. Additive only: vanished files
// are Reconcile's job. Returns the number of upserts submitted.
func (u *ScanUseCase) Scan(root string, progress ProgressFunc) (*ScanResult, error) {
	ops, result, err := u.collect(root, progress)
	if err != nil {
		return nil, err
	}
	if _, err := u.store.ApplyBatch(ops); err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return result, nil
}

// Reconcile is Scan plus deletion of indexed paths that no longer exist
// on disk. Deletes precede upserts in the single batch.
func (u *ScanUseCase) Reconcile(root string, progress ProgressFunc) (*ScanResult, error) {
	ops, result, err := u.collect(root, progress)
	if err != nil {
		return nil, err
	}

	live := make(map[string]struct{}, len(ops))
	for _, op := range ops {
		live[op.Doc.Path] = struct{}{}
	}

	indexed, err := u.store.Paths()
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", root, err)
	}

	var deletes []domain.Op
	for _, path := range indexed {
		if _, ok := live[path]; !ok {
			deletes = append(deletes, domain.Delete(path))
		}
	}
	result.Deleted = len(deletes)

	if _, err := u.store.ApplyBatch(append(deletes, ops...)); err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", root, err)
	}
	return result, nil
}

// collect walks root and builds the upsert list. Per-file read errors
// are logged and skipped, never propagated.
func (u *ScanUseCase) collect(root string, progress ProgressFunc) ([]domain.Op, *ScanResult, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	// An ignored root is an empty result, never an error.
	if fs.Ignored(filepath.Base(root)) {
		return nil, &ScanResult{}, nil
	}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", root, err)
	}

	result := &ScanResult{}
	ops := make([]domain.Op, 0, len(files))

	for i, file := range files {
		if progress != nil {
			progress(i+1, len(files))
		}

		data, ok, err := fs.ReadIndexable(file.Path)
		if err != nil {
			u.logger.Warn("scan read failed", "path", file.Path, "error", err)
			result.Skipped++
			continue
		}
		if !ok {
			result.Skipped++
			continue
		}

		ops = append(ops, domain.Upsert(domain.Document{
			Path:    fs.NormalizePath(root, file.Path),
			Content: string(data),
			Kind:    fs.DetectKind(file.Path),
			Hash:    fs.HashContent(data),
		}))
	}

	result.Indexed = len(ops)
	return ops, result, nil
}
