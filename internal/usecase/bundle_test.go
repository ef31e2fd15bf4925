package usecase

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/EricA1019/Godot-MCP/internal/adapter/analyzer"
	"github.com/EricA1019/Godot-MCP/internal/adapter/fs"
	"github.com/EricA1019/Godot-MCP/internal/adapter/store"
	"github.com/EricA1019/Godot-MCP/internal/domain"
)

func newBundleFixture(t *testing.T) (*BundleUseCase, *ScanUseCase, string) {
	t.Helper()
	root := t.TempDir()
	st, err := store.Open(t.TempDir(), analyzer.NewTokenizer(false))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	scanUC := NewScanUseCase(st, fs.NewWalker(nil), nil)
	return NewBundleUseCase(st, root, nil), scanUC, root
}

func TestBundleCapEnforcement(t *testing.T) {
	bundler, scanUC, root := newBundleFixture(t)

	// Three ~30 KiB files all matching the query: a 64 KiB cap fits
	// exactly two.
	filler := strings.Repeat("lorem ipsum filler text ", 1250)
	for _, name := range []string{"one.md", "two.md", "three.md"} {
		writeFile(t, filepath.Join(root, name), "foo about foo\n"+filler)
	}
	if _, err := scanUC.Scan(root, nil); err != nil {
		t.Fatal(err)
	}

	bundle, err := bundler.Bundle("foo", 10, 65536, "")
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if len(bundle.Items) != 2 {
		t.Errorf("items = %d, want 2", len(bundle.Items))
	}
	if bundle.SizeBytes > 65536 {
		t.Errorf("size_bytes = %d, exceeds cap", bundle.SizeBytes)
	}

	total := 0
	for _, item := range bundle.Items {
		total += len(item.Content)
	}
	if total != bundle.SizeBytes {
		t.Errorf("size_bytes = %d, sum of contents = %d", bundle.SizeBytes, total)
	}
}

func TestBundleFamilyDedup(t *testing.T) {
	bundler, scanUC, root := newBundleFixture(t)

	// Same stem, same directory: only the best-ranked variant survives.
	writeFile(t, filepath.Join(root, "docs", "x.md"), "scene validator notes about the scene validator")
	writeFile(t, filepath.Join(root, "docs", "x.html"), "scene validator page")
	if _, err := scanUC.Scan(root, nil); err != nil {
		t.Fatal(err)
	}

	bundle, err := bundler.Bundle("validator", 10, 65536, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(bundle.Items) != 1 {
		t.Fatalf("items = %d, want 1 after family dedup: %+v", len(bundle.Items), bundle.Items)
	}
	if !strings.HasPrefix(bundle.Items[0].Path, "./docs/x.") {
		t.Errorf("surviving item = %q, want a ./docs/x.* variant", bundle.Items[0].Path)
	}
}

func TestBundleZeroCap(t *testing.T) {
	bundler, scanUC, root := newBundleFixture(t)
	writeFile(t, filepath.Join(root, "a.md"), "foo")
	if _, err := scanUC.Scan(root, nil); err != nil {
		t.Fatal(err)
	}

	bundle, err := bundler.Bundle("foo", 10, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(bundle.Items) != 0 || bundle.SizeBytes != 0 {
		t.Errorf("zero cap bundle = %+v, want empty", bundle)
	}
}

func TestBundleDeterministic(t *testing.T) {
	bundler, scanUC, root := newBundleFixture(t)
	writeFile(t, filepath.Join(root, "a.md"), "foo alpha content")
	writeFile(t, filepath.Join(root, "b.md"), "foo beta content")
	writeFile(t, filepath.Join(root, "c.md"), "foo gamma content")
	if _, err := scanUC.Scan(root, nil); err != nil {
		t.Fatal(err)
	}

	first, err := bundler.Bundle("foo", 10, 65536, "")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := bundler.Bundle("foo", 10, 65536, "")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("bundle differs across runs:\n%+v\n%+v", first, again)
		}
	}
}

func TestBundleKindFilter(t *testing.T) {
	bundler, scanUC, root := newBundleFixture(t)
	writeFile(t, filepath.Join(root, "notes.md"), "player movement notes")
	writeFile(t, filepath.Join(root, "player.gd"), "player movement code")
	if _, err := scanUC.Scan(root, nil); err != nil {
		t.Fatal(err)
	}

	bundle, err := bundler.Bundle("player", 10, 65536, "code")
	if err != nil {
		t.Fatal(err)
	}
	if len(bundle.Items) != 1 || bundle.Items[0].Kind != "code" {
		t.Errorf("kind-filtered bundle = %+v, want only code", bundle.Items)
	}
}

func TestBundleRereadsFromDisk(t *testing.T) {
	bundler, scanUC, root := newBundleFixture(t)
	path := filepath.Join(root, "a.md")
	writeFile(t, path, "foo original")
	if _, err := scanUC.Scan(root, nil); err != nil {
		t.Fatal(err)
	}

	// Mutate the file after indexing: the bundle must reflect disk.
	writeFile(t, path, "foo changed on disk")

	bundle, err := bundler.Bundle("foo", 10, 65536, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(bundle.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(bundle.Items))
	}
	if bundle.Items[0].Content != "foo changed on disk" {
		t.Errorf("content = %q, want current disk content", bundle.Items[0].Content)
	}
}

func TestBundleInvalidQuery(t *testing.T) {
	bundler, _, _ := newBundleFixture(t)

	if _, err := bundler.Bundle("", 10, 65536, ""); !errors.Is(err, domain.ErrQueryInvalid) {
		t.Errorf("err = %v, want ErrQueryInvalid", err)
	}
}

func TestQuantizeScore(t *testing.T) {
	if quantizeScore(0.9004) != quantizeScore(0.9001) {
		t.Error("scores inside one band quantize apart")
	}
	if quantizeScore(0.9) == quantizeScore(0.8) {
		t.Error("distinct scores collapsed")
	}
}
