package packager

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFiles creates every file of the map below dir, creating parents as needed.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, contents := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}
}

// readArchive returns file contents by entry name and the list of directory entries.
func readArchive(t *testing.T, path string) (map[string]string, []string) {
	t.Helper()

	reader, err := zip.OpenReader(path)
	require.NoError(t, err)

	defer func() {
		_ = reader.Close()
	}()

	var (
		files = make(map[string]string, len(reader.File))
		dirs  []string
	)

	for _, f := range reader.File {
		if strings.HasSuffix(f.Name, "/") {
			dirs = append(dirs, f.Name)

			continue
		}

		rc, err := f.Open()
		require.NoError(t, err)

		contents, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		files[f.Name] = string(contents)
	}

	return files, dirs
}

// fixture is a project folder with src/, metadata and output locations.
type fixture struct {
	root   string
	src    string
	output string
}

// newFixture creates a project folder with the given source files.
func newFixture(t *testing.T, sources map[string]string) *fixture {
	t.Helper()

	root := t.TempDir()
	f := &fixture{
		root:   root,
		src:    filepath.Join(root, "src"),
		output: filepath.Join(root, "out"),
	}

	require.NoError(t, os.MkdirAll(f.src, 0o755))
	writeFiles(t, f.src, sources)
	writeFiles(t, root, map[string]string{"settings.yaml": ""})

	return f
}

// options returns Options pointing at the fixture, writing the result line into out.
func (f *fixture) options(libraryName string, out io.Writer) *Options {
	return &Options{
		ConfigPath:  filepath.Join(f.root, "settings.yaml"),
		LibraryName: libraryName,
		SourceDir:   f.src,
		MetadataDir: f.root,
		OutputDir:   f.output,
		Output:      out,
	}
}
