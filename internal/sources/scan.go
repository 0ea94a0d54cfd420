package sources

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"lifeos-kb/internal/extract"
)

// ScannedFile is a supported document found under a folder root.
type ScannedFile struct {
	AbsPath string
	RelPath string // slash-separated, relative to the root
}

// ScanFolder lists every file under root with a supported extension.
// Hidden files and directories are skipped.
func ScanFolder(ctx context.Context, root string) ([]ScannedFile, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve folder %s: %w", root, err)
	}

	var files []ScannedFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !extract.Supported(path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		files = append(files, ScannedFile{AbsPath: path, RelPath: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return files, fmt.Errorf("failed to scan folder %s: %w", root, err)
	}
	return files, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$")
}
