package packager

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/otiai10/copy"

	"github.com/oshokin/arduino-packager/internal/config"
)

// SketchExtension is the extension the Arduino IDE requires for example sketches.
const SketchExtension = ".ino"

var errNotSourceDir = errors.New("source path is not a directory")

// selection is the outcome of scanning the source folder.
// Paths include the source folder; empty strings mean "not found".
type selection struct {
	// sketch is the example sketch, later renamed to .ino.
	sketch string
	// sketchConfig is the header shipped next to the sketch.
	sketchConfig string
	// sources are the library files destined for <lib>/src, in directory order.
	sources []string
}

// selectFiles scans the immediate entries of cfg.SourceDir.
// Name matches are exact and case-sensitive; directories are ignored.
func selectFiles(cfg *config.Config) (*selection, error) {
	info, err := os.Stat(cfg.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("source directory %s: %w", cfg.SourceDir, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", cfg.SourceDir, errNotSourceDir)
	}

	entries, err := os.ReadDir(cfg.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("read source directory %s: %w", cfg.SourceDir, err)
	}

	sel := &selection{
		sources: make([]string, 0, len(entries)),
	}

	for _, entry := range entries {
		path := filepath.Join(cfg.SourceDir, entry.Name())

		isFile, err := isRegularFile(path, entry)
		if err != nil {
			return nil, err
		}

		if !isFile {
			continue
		}

		switch name := entry.Name(); name {
		case cfg.ExampleSketch:
			sel.sketch = path
		case cfg.ExampleConfig:
			sel.sketchConfig = path
		default:
			matched, err := matchAny(cfg.SourcePatterns, name)
			if err != nil {
				return nil, err
			}

			if matched {
				sel.sources = append(sel.sources, path)
			}
		}
	}

	return sel, nil
}

// isRegularFile resolves symlinks so that linked files are packaged and linked folders are skipped.
func isRegularFile(path string, entry fs.DirEntry) (bool, error) {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.Type().IsRegular(), nil
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		// Dangling link.
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	return info.Mode().IsRegular(), nil
}

// matchAny reports whether name matches one of the glob patterns.
func matchAny(patterns []string, name string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, name)
		if err != nil {
			return false, fmt.Errorf("match %q: %w", pattern, err)
		}

		if matched {
			return true, nil
		}
	}

	return false, nil
}

// copyFile copies src to dst byte for byte, following symlinks.
func copyFile(src, dst string) error {
	//nolint:exhaustruct // Defaults are fine apart from symlink handling.
	opts := copy.Options{
		OnSymlink: func(string) copy.SymlinkAction {
			return copy.Deep
		},
	}

	if err := copy.Copy(src, dst, opts); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}

	return nil
}
