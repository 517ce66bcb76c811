package discover

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte("1..1\nok 1\n"), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

func relative(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, len(files))
	for i, f := range files {
		rel, err := filepath.Rel(root, f)
		if err != nil {
			t.Fatalf("filepath.Rel() error = %v", err)
		}
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFind(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFiles(t, root, "a.tap", "sub/b.tap", "sub/deep/c.tap", "sub/notes.txt", "other/d.tap")
	if err := os.MkdirAll(filepath.Join(root, "dir.tap"), 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"default pattern", nil, []string{"a.tap", "other/d.tap", "sub/b.tap", "sub/deep/c.tap"}},
		{"single directory", []string{"sub/*.tap"}, []string{"sub/b.tap"}},
		{"overlapping patterns are deduplicated", []string{"sub/**/*.tap", "**/c.tap"}, []string{"sub/b.tap", "sub/deep/c.tap"}},
		{"alternatives", []string{"{a,other/d}.tap"}, []string{"a.tap", "other/d.tap"}},
		{"no match", []string{"*.xml"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			files, err := Find(root, tt.patterns, time.Time{})
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			if got := relative(t, root, files); !equal(got, tt.want) {
				t.Errorf("Find() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFind_AbsolutePattern(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFiles(t, root, "x/one.tap", "x/two.tap")

	files, err := Find("", []string{filepath.Join(root, "x", "*.tap")}, time.Time{})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got := relative(t, root, files); !equal(got, []string{"x/one.tap", "x/two.tap"}) {
		t.Errorf("Find() = %v", got)
	}
}

func TestFind_InvalidPattern(t *testing.T) {
	t.Parallel()
	if _, err := Find(t.TempDir(), []string{"[unclosed"}, time.Time{}); err == nil {
		t.Error("Find() error = nil, want invalid pattern error")
	}
}

func TestFind_Since(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFiles(t, root, "old.tap", "new.tap")

	now := time.Now()
	old := now.Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(root, "old.tap"), old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	files, err := Find(root, nil, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got := relative(t, root, files); !equal(got, []string{"new.tap"}) {
		t.Errorf("Find() = %v, want [new.tap]", got)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	if got := Normalize("/ws", "/ws/out/a.tap"); got != "out/a.tap" {
		t.Errorf("Normalize() = %q, want out/a.tap", got)
	}
}
