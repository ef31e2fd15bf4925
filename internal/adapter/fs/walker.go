package fs

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

// MaxFileSize is the largest file the index will accept. Files one byte
// over are skipped silently.
const MaxFileSize = 1 << 20

// ignoreSet is the fixed set of directory names excluded from both the
// initial scan and change monitoring, matched against any path
// component: version-control metadata, build output, backups, engine
// import caches, dependency caches and the index's own data directory.
var ignoreSet = map[string]struct{}{
	".git":         {},
	".godot":       {},
	".import":      {},
	".index_data":  {},
	".backups":     {},
	".rag":         {},
	"node_modules": {},
	"target":       {},
	"build":        {},
	"dist":         {},
	"vendor":       {},
	"__pycache__":  {},
}

// Ignored reports whether any component of path is in the ignore set.
func Ignored(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if _, ok := ignoreSet[part]; ok {
			return true
		}
	}
	return false
}

// FileInfo describes one file surviving the walk.
type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// Walker enumerates regular files under a root, applying the fixed
// ignore set plus user-configured exclude globs.
type Walker struct {
	excludes []string
}

// NewWalker creates a Walker with extra doublestar exclude patterns
// matched against root-relative slash paths.
func NewWalker(excludes []string) *Walker {
	return &Walker{excludes: excludes}
}

// Walk returns the surviving files under root in walk order.
func (w *Walker) Walk(root string) ([]FileInfo, error) {
	var files []FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if _, ok := ignoreSet[info.Name()]; ok && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if w.excluded(rel) {
			return nil
		}

		files = append(files, FileInfo{
			Path:    path,
			ModTime: info.ModTime().Unix(),
			Size:    info.Size(),
		})
		return nil
	})

	return files, err
}

func (w *Walker) excluded(rel string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, rel)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// ReadIndexable reads a file and reports whether its content is
// acceptable for indexing: within MaxFileSize and valid UTF-8. The
// second return is false for files that must be skipped silently.
func ReadIndexable(path string) ([]byte, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, err
	}
	if !info.Mode().IsRegular() || info.Size() > MaxFileSize {
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	if len(data) > MaxFileSize || !utf8.Valid(data) {
		return nil, false, nil
	}
	return data, true, nil
}
