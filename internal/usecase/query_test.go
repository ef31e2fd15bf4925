package usecase

import "testing"

func TestResolveLimit(t *testing.T) {
	if got := ResolveLimit(nil); got != DefaultQueryLimit {
		t.Errorf("ResolveLimit(nil) = %d, want %d", got, DefaultQueryLimit)
	}

	cases := []struct {
		in, want int
	}{
		{0, 0},
		{-5, -5},
		{1, 1},
		{50, 50},
		{100, 100},
		{1000, MaxQueryLimit},
	}
	for _, c := range cases {
		in := c.in
		if got := ResolveLimit(&in); got != c.want {
			t.Errorf("ResolveLimit(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestScanIgnoredRootIsEmpty(t *testing.T) {
	scanUC, st, root := newScanFixture(t)
	writeFile(t, root+"/.godot/cache.md", "cached godot data")

	result, err := scanUC.Scan(root+"/.godot", nil)
	if err != nil {
		t.Fatalf("ignored root must not error: %v", err)
	}
	if result.Indexed != 0 {
		t.Errorf("Indexed = %d, want 0 for ignored root", result.Indexed)
	}

	stats, _ := st.Health()
	if stats.DocCount != 0 {
		t.Errorf("docs = %d, want 0", stats.DocCount)
	}
}
