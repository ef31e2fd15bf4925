package fs

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func walkPaths(t *testing.T, root string, excludes []string) map[string]bool {
	t.Helper()
	files, err := NewWalker(excludes).Walk(root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	got := make(map[string]bool, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f.Path)
		if err != nil {
			t.Fatal(err)
		}
		got[filepath.ToSlash(rel)] = true
	}
	return got
}

func TestWalkSkipsIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.gd"), []byte("extends Node"))
	writeFile(t, filepath.Join(root, ".git", "HEAD"), []byte("ref"))
	writeFile(t, filepath.Join(root, ".godot", "imported", "x"), []byte("cache"))
	writeFile(t, filepath.Join(root, "addons", "node_modules", "pkg", "index.js"), []byte("js"))
	writeFile(t, filepath.Join(root, ".index_data", "index.db"), []byte("db"))

	got := walkPaths(t, root, nil)
	if !got["main.gd"] {
		t.Error("main.gd missing from walk")
	}
	for path := range got {
		if path != "main.gd" {
			t.Errorf("ignored path surfaced: %s", path)
		}
	}
}

func TestWalkAppliesExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.md"), []byte("keep"))
	writeFile(t, filepath.Join(root, "docs", "generated", "skip.md"), []byte("skip"))

	got := walkPaths(t, root, []string{"docs/generated/**"})
	if !got["keep.md"] {
		t.Error("keep.md missing")
	}
	if got["docs/generated/skip.md"] {
		t.Error("excluded glob path surfaced")
	}
}

func TestIgnoredMatchesAnyComponent(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"a/.git/config", true},
		{"deep/nested/node_modules/x.js", true},
		{".godot/editor/cache", true},
		{"src/main.gd", false},
		{"gitlog.md", false},
		{"builds/out.txt", false},
	}
	for _, c := range cases {
		if got := Ignored(c.path); got != c.want {
			t.Errorf("Ignored(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestReadIndexableSizeBoundary(t *testing.T) {
	root := t.TempDir()

	atLimit := filepath.Join(root, "at.txt")
	writeFile(t, atLimit, bytes.Repeat([]byte("a"), MaxFileSize))
	overLimit := filepath.Join(root, "over.txt")
	writeFile(t, overLimit, bytes.Repeat([]byte("a"), MaxFileSize+1))

	if _, ok, err := ReadIndexable(atLimit); err != nil || !ok {
		t.Errorf("file at limit: ok=%v err=%v, want indexable", ok, err)
	}
	if _, ok, err := ReadIndexable(overLimit); err != nil || ok {
		t.Errorf("file over limit: ok=%v err=%v, want silently skipped", ok, err)
	}
}

func TestReadIndexableRejectsNonUTF8(t *testing.T) {
	root := t.TempDir()
	binary := filepath.Join(root, "sprite.bin")
	writeFile(t, binary, []byte{0xff, 0xfe, 0x00, 0x42})

	if _, ok, err := ReadIndexable(binary); err != nil || ok {
		t.Errorf("non-UTF-8 file: ok=%v err=%v, want silently skipped", ok, err)
	}
}

func TestDetectKind(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"README.md", "md"},
		{"player.gd", "code"},
		{"main.rs", "code"},
		{"level.tscn", "scene"},
		{"theme.tres", "scene"},
		{"project.godot", "config"},
		{"export.cfg", "config"},
		{"icon.svg", "asset"},
		{"notes.txt", "other"},
	}
	for _, c := range cases {
		if got := DetectKind(c.path); got != c.want {
			t.Errorf("DetectKind(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}

func TestNormalizeAndAbsolutePath(t *testing.T) {
	root := filepath.FromSlash("/repo")

	norm := NormalizePath(root, filepath.FromSlash("/repo/scenes/main.tscn"))
	if norm != "./scenes/main.tscn" {
		t.Errorf("NormalizePath = %q, want ./scenes/main.tscn", norm)
	}

	abs := AbsolutePath(root, "./scenes/main.tscn")
	if abs != filepath.FromSlash("/repo/scenes/main.tscn") {
		t.Errorf("AbsolutePath = %q", abs)
	}
}

func TestFamilyKeyCollapsesVariants(t *testing.T) {
	a := FamilyKey("./docs/x.md")
	b := FamilyKey("./docs/x.html")
	if a != b {
		t.Errorf("same-stem variants differ: %q vs %q", a, b)
	}

	other := FamilyKey("./other/x.md")
	if a == other {
		t.Error("different directories share a family key")
	}

	stem := FamilyKey("./docs/y.md")
	if a == stem {
		t.Error("different stems share a family key")
	}
}

func TestHashContentStable(t *testing.T) {
	a := HashContent([]byte("hello godot"))
	b := HashContent([]byte("hello godot"))
	c := HashContent([]byte("hello world"))
	if a != b {
		t.Error("hash not stable for identical content")
	}
	if a == c {
		t.Error("hash collision for different content")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}
