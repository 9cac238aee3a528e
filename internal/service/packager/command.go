package packager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/arduino-packager/internal/config"
	"github.com/oshokin/arduino-packager/internal/logger"
)

// Options contains inputs for the packager entry point.
// Non-empty fields override the values loaded from the settings file.
type Options struct {
	// ConfigPath is an optional path to the settings YAML (defaults to arduino-packager.yaml if present).
	ConfigPath string
	// LibraryName names the library root and the archive.
	LibraryName string
	// SourceDir is the folder holding the sketch and library sources.
	SourceDir string
	// ExampleName is the folder under examples/ and the sketch base name.
	ExampleName string
	// MetadataDir is where library.properties and README.md are looked up.
	MetadataDir string
	// OutputDir receives the archive.
	OutputDir string
	// Strict fails the run when the sketch or its config is missing.
	Strict bool
	// Checksum writes a .sha512 file next to the archive.
	Checksum bool
	// Output receives the completion line. Defaults to os.Stdout.
	Output io.Writer
}

// ErrExampleMissing is returned in strict mode when the example sketch or its config is absent.
var ErrExampleMissing = errors.New("example file is missing")

// packager assembles a single library archive.
// It is unexported: callers should use Run, which resolves configuration first.
type packager struct {
	// cfg holds the validated packaging settings.
	cfg *config.Config
	// out receives the human-readable completion line.
	out io.Writer
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "arduino-packager")

	if opts == nil {
		opts = new(Options)
	}

	cfg, err := resolveConfig(opts)
	if err != nil {
		return fmt.Errorf("resolve settings: %w", err)
	}

	ctx = logger.WithKV(ctx, "library", cfg.LibraryName)

	if err = newPackager(cfg, opts.Output).Run(ctx); err != nil {
		return fmt.Errorf("package %s: %w", cfg.LibraryName, err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

// resolveConfig loads the settings file and applies the options on top of it.
func resolveConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		value  string
		target *string
	}{
		{opts.LibraryName, &cfg.LibraryName},
		{opts.SourceDir, &cfg.SourceDir},
		{opts.ExampleName, &cfg.ExampleName},
		{opts.MetadataDir, &cfg.MetadataDir},
		{opts.OutputDir, &cfg.OutputDir},
	}
	for _, o := range overrides {
		if o.value != "" {
			*o.target = o.value
		}
	}

	cfg.Strict = cfg.Strict || opts.Strict
	cfg.Checksum = cfg.Checksum || opts.Checksum

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newPackager creates a packager for already validated settings.
func newPackager(cfg *config.Config, out io.Writer) *packager {
	if out == nil {
		out = os.Stdout
	}

	return &packager{
		cfg: cfg,
		out: out,
	}
}

// Run scans the sources, stages the library tree and writes the archive.
func (p *packager) Run(ctx context.Context) error {
	logger.InfoKV(ctx, "Scanning source folder", "path", p.cfg.SourceDir)

	sel, err := selectFiles(p.cfg)
	if err != nil {
		return err
	}

	if err = p.checkExample(ctx, sel); err != nil {
		return err
	}

	st, err := newStaging(p.cfg.LibraryName, p.cfg.ExampleName)
	if err != nil {
		return err
	}

	// Staging is released on every path, including failures below.
	defer func() {
		if cleanupErr := st.cleanup(); cleanupErr != nil {
			logger.WarnKV(ctx, "Unable to remove staging directory", "path", st.root, "error", cleanupErr)
		}
	}()

	logger.DebugKV(ctx, "Staging directory created", "path", st.root)

	if err = ctx.Err(); err != nil {
		return err
	}

	if err = p.stage(ctx, st, sel); err != nil {
		return err
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	archivePath, err := p.writeArchive(ctx, st.libraryDir)
	if err != nil {
		return err
	}

	if err = p.writeChecksum(ctx, archivePath); err != nil {
		return err
	}

	_, err = fmt.Fprintf(p.out, "Created %s for Arduino IDE (with correct folder structure).\n", p.cfg.ArchiveName())

	return err
}

// checkExample reports a missing sketch or sketch config: a warning by default, an error in strict mode.
func (p *packager) checkExample(ctx context.Context, sel *selection) error {
	missing := make([]string, 0, 2)

	if sel.sketch == "" {
		missing = append(missing, p.cfg.ExampleSketch)
	}

	if sel.sketchConfig == "" {
		missing = append(missing, p.cfg.ExampleConfig)
	}

	for _, name := range missing {
		if p.cfg.Strict {
			return fmt.Errorf("%s in %s: %w", name, p.cfg.SourceDir, ErrExampleMissing)
		}

		logger.WarnKV(ctx, "Example file not found, the package will not include it",
			"file", name,
			"source_dir", p.cfg.SourceDir)
	}

	return nil
}

// stage copies the selected files and metadata into the staging tree.
func (p *packager) stage(ctx context.Context, st *staging, sel *selection) error {
	if sel.sketch != "" {
		dst := st.examplePath(p.cfg.ExampleName + SketchExtension)
		logger.DebugKV(ctx, "Copying example sketch", "from", sel.sketch, "to", dst)

		if err := copyFile(sel.sketch, dst); err != nil {
			return err
		}
	}

	if sel.sketchConfig != "" {
		dst := st.examplePath(p.cfg.ExampleConfig)
		logger.DebugKV(ctx, "Copying example config", "from", sel.sketchConfig, "to", dst)

		if err := copyFile(sel.sketchConfig, dst); err != nil {
			return err
		}
	}

	for _, src := range sel.sources {
		if err := copyFile(src, st.sourcePath(src)); err != nil {
			return err
		}
	}

	logger.InfoKV(ctx, "Library sources staged", "count", len(sel.sources))

	return p.stageMetadata(ctx, st)
}

// stageMetadata copies each present metadata file into the library root.
func (p *packager) stageMetadata(ctx context.Context, st *staging) error {
	for _, name := range p.cfg.MetadataFiles {
		src := filepath.Join(p.cfg.MetadataDir, name)

		info, err := os.Stat(src)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.DebugKV(ctx, "Optional metadata file not found", "file", src)

			continue
		case err != nil:
			return fmt.Errorf("stat %s: %w", src, err)
		case info.IsDir():
			logger.WarnKV(ctx, "Metadata path is a directory, skipping", "path", src)

			continue
		}

		if err = copyFile(src, st.libraryPath(filepath.Base(name))); err != nil {
			return err
		}

		logger.DebugKV(ctx, "Metadata file copied", "file", name)
	}

	return nil
}
