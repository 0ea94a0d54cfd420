package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestScanFolder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "# A")
	writeFile(t, filepath.Join(root, "b.txt"), "b")
	writeFile(t, filepath.Join(root, "photo.png"), "png")
	writeFile(t, filepath.Join(root, ".secret.txt"), "hidden")
	writeFile(t, filepath.Join(root, ".obsidian", "config.md"), "hidden dir")
	writeFile(t, filepath.Join(root, "sub", "c.html"), "<p>c</p>")

	files, err := ScanFolder(context.Background(), root)
	if err != nil {
		t.Fatalf("ScanFolder() error = %v", err)
	}

	want := []string{"a.md", "b.txt", "sub/c.html"}
	if len(files) != len(want) {
		t.Fatalf("ScanFolder() = %+v, want %v", files, want)
	}
	for i, f := range files {
		if f.RelPath != want[i] {
			t.Errorf("files[%d].RelPath = %s, want %s", i, f.RelPath, want[i])
		}
		if !filepath.IsAbs(f.AbsPath) {
			t.Errorf("files[%d].AbsPath = %s, want absolute", i, f.AbsPath)
		}
	}
}

func TestScanFolder_Missing(t *testing.T) {
	if _, err := ScanFolder(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("ScanFolder() expected error for a missing folder")
	}
}

func TestScanFolder_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "# A")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ScanFolder(ctx, root); err == nil {
		t.Error("ScanFolder() expected error for a cancelled context")
	}
}
