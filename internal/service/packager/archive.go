package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mholt/archiver/v3"

	"github.com/oshokin/arduino-packager/internal/logger"
)

const (
	// archiveWorkPrefix names the private folder the archive is written into before the final rename.
	archiveWorkPrefix = ".arduino-packager-"

	// outputDirMode is used when the output folder has to be created.
	outputDirMode os.FileMode = 0o755
)

// writeArchive zips libraryDir so that the archive's top-level entry is the library folder,
// then moves it to the canonical <lib>Lib.zip path. It returns that path.
func (p *packager) writeArchive(ctx context.Context, libraryDir string) (string, error) {
	target := p.cfg.ArchivePath()

	if err := os.MkdirAll(p.cfg.OutputDir, outputDirMode); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	if err := removeStale(ctx, target); err != nil {
		return "", err
	}

	// The work folder lives next to the target so the rename never crosses filesystems.
	workDir, err := os.MkdirTemp(p.cfg.OutputDir, archiveWorkPrefix)
	if err != nil {
		return "", fmt.Errorf("create archive work directory: %w", err)
	}

	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			logger.WarnKV(ctx, "Unable to remove archive work directory", "path", workDir, "error", rmErr)
		}
	}()

	natural := filepath.Join(workDir, p.cfg.LibraryName+".zip")

	logger.InfoKV(ctx, "Compressing library", "source", libraryDir)

	z := archiver.NewZip()
	z.OverwriteExisting = false
	z.ImplicitTopLevelFolder = false

	if err = z.Archive([]string{libraryDir}, natural); err != nil {
		return "", fmt.Errorf("create zip archive: %w", err)
	}

	if natural != target {
		if err = os.Rename(natural, target); err != nil {
			return "", fmt.Errorf("move archive to %s: %w", target, err)
		}
	}

	logger.InfoKV(ctx, "Archive created", "path", target)

	return target, nil
}

// removeStale deletes a previous archive (or checksum file) at path, if any.
func removeStale(ctx context.Context, path string) error {
	err := os.Remove(path)
	switch {
	case err == nil:
		logger.DebugKV(ctx, "Removed previous output", "path", path)

		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("remove previous output %s: %w", path, err)
	}
}
