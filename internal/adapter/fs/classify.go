package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// DetectKind classifies a file by extension into a coarse tag used for
// exact-match filtering: md, code, scene, config, asset or other.
func DetectKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "md"
	case ".gd", ".go", ".rs", ".py", ".js", ".ts", ".c", ".h", ".cpp", ".hpp", ".cs", ".java", ".sh", ".gdshader":
		return "code"
	case ".tscn", ".tres", ".scn":
		return "scene"
	case ".toml", ".yaml", ".yml", ".json", ".cfg", ".ini", ".godot", ".csproj", ".editorconfig":
		return "config"
	case ".svg", ".obj", ".mtl", ".import", ".translation":
		return "asset"
	default:
		return "other"
	}
}

// HashContent returns the sha256 hex digest of content.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// NormalizePath converts an absolute or root-relative path to the
// canonical index key: "./"-prefixed, forward slashes, relative to root.
// Paths outside the root are returned slash-normalized as-is.
func NormalizePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return "./" + filepath.ToSlash(rel)
}

// AbsolutePath converts a normalized index path back to a filesystem
// path under root.
func AbsolutePath(root, normalized string) string {
	if stripped, ok := strings.CutPrefix(normalized, "./"); ok {
		return filepath.Join(root, filepath.FromSlash(stripped))
	}
	if !filepath.IsAbs(normalized) {
		return filepath.Join(root, filepath.FromSlash(normalized))
	}
	return filepath.FromSlash(normalized)
}

// FamilyKey collapses near-duplicate file variants: two paths share a
// family when they live in the same directory and have the same stem
// (base name without extension).
func FamilyKey(normalized string) string {
	dir, base := filepath.Split(normalized)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return dir + "\x00" + stem
}
