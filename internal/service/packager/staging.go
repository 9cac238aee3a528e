package packager

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// stagingPrefix names the temporary directories created for a run.
	stagingPrefix = "arduino-packager-"

	// stagingDirMode is used for every directory of the staged library tree.
	stagingDirMode os.FileMode = 0o755

	// librarySourceDir and examplesDir are fixed by the Arduino library layout.
	librarySourceDir = "src"
	examplesDir      = "examples"
)

// staging is the temporary tree mirroring the archive layout:
//
//	<root>/<lib>/src
//	<root>/<lib>/examples/<example>
type staging struct {
	// root is the unique temporary directory owned by this run.
	root string
	// libraryDir is the library root that gets archived.
	libraryDir string
	// sourceDir receives the library sources.
	sourceDir string
	// exampleDir receives the sketch and its config.
	exampleDir string
}

// newStaging allocates a fresh temporary directory and creates the library skeleton in it.
// On failure nothing is left on disk.
func newStaging(libraryName, exampleName string) (*staging, error) {
	root, err := os.MkdirTemp("", stagingPrefix)
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	libraryDir := filepath.Join(root, libraryName)
	st := &staging{
		root:       root,
		libraryDir: libraryDir,
		sourceDir:  filepath.Join(libraryDir, librarySourceDir),
		exampleDir: filepath.Join(libraryDir, examplesDir, exampleName),
	}

	for _, dir := range []string{st.sourceDir, st.exampleDir} {
		if err = os.MkdirAll(dir, stagingDirMode); err != nil {
			_ = st.cleanup()

			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	return st, nil
}

// libraryPath returns the staged location of a file in the library root.
func (s *staging) libraryPath(name string) string {
	return filepath.Join(s.libraryDir, name)
}

// sourcePath returns the staged location of a library source; only the base name is kept.
func (s *staging) sourcePath(src string) string {
	return filepath.Join(s.sourceDir, filepath.Base(src))
}

// examplePath returns the staged location of a file in the example folder.
func (s *staging) examplePath(name string) string {
	return filepath.Join(s.exampleDir, name)
}

// cleanup removes the whole staging tree.
func (s *staging) cleanup() error {
	return os.RemoveAll(s.root)
}
