package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Config holds the packaging parameters.
type Config struct {
	// LibraryName is the top-level folder inside the archive; the archive is <LibraryName>Lib.zip.
	LibraryName string `yaml:"library_name"`
	// SourceDir is the flat directory scanned for the sketch, its config and library sources.
	SourceDir string `yaml:"source_dir"`
	// ExampleName is the folder created under examples/.
	ExampleName string `yaml:"example_name"`
	// ExampleSketch is the file copied into the example folder as <ExampleName>.ino.
	ExampleSketch string `yaml:"example_sketch"`
	// ExampleConfig is the header copied unchanged next to the sketch.
	ExampleConfig string `yaml:"example_config"`
	// SourcePatterns select library sources from SourceDir.
	SourcePatterns []string `yaml:"source_patterns"`
	// MetadataFiles are copied into the library root when present in MetadataDir.
	MetadataFiles []string `yaml:"metadata_files"`
	// MetadataDir is where MetadataFiles are looked up.
	MetadataDir string `yaml:"metadata_dir"`
	// OutputDir receives the archive.
	OutputDir string `yaml:"output_dir"`
	// Strict turns a missing sketch or sketch config into an error.
	Strict bool `yaml:"strict"`
	// Checksum enables the <archive>.sha512 sidecar.
	Checksum bool `yaml:"checksum"`
}

const (
	// DefaultConfigFilename is the default filename for packaging settings.
	DefaultConfigFilename = "arduino-packager.yaml"

	// DefaultLibraryName is used when no library name is given.
	DefaultLibraryName = "OTA_Template"

	// DefaultSourceDir is the directory holding sketch and library sources.
	DefaultSourceDir = "src"

	// DefaultExampleName is the example folder and sketch base name.
	DefaultExampleName = "OTA_Test"

	// DefaultExampleSketch is the sketch source renamed to .ino.
	DefaultExampleSketch = "OTA_Test.cpp"

	// DefaultExampleConfig is the header shipped with the sketch.
	DefaultExampleConfig = "config.h"

	// DefaultMetadataDir is the directory holding library.properties and README.md.
	DefaultMetadataDir = "."

	// DefaultOutputDir is the directory where the archive is written.
	DefaultOutputDir = "."

	// ArchiveSuffix is appended to the library name to form the archive name.
	ArchiveSuffix = "Lib.zip"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// ErrInvalidLibraryName is returned for names that cannot be used as a single path element.
	ErrInvalidLibraryName = errors.New("invalid library name")
	// ErrInvalidExampleName is returned for example names that cannot be used as a single path element.
	ErrInvalidExampleName = errors.New("invalid example name")
	// ErrInvalidPattern is returned for malformed source glob patterns.
	ErrInvalidPattern = errors.New("invalid source pattern")

	errConfigIsNotSet = errors.New("configuration is not set")
)

// DefaultSourcePatterns returns the globs selecting Arduino library sources.
func DefaultSourcePatterns() []string {
	return []string{"*.cpp", "*.h"}
}

// DefaultMetadataFiles returns the optional files copied into the library root.
func DefaultMetadataFiles() []string {
	return []string{"library.properties", "README.md"}
}

// Default returns a Config with every field set to its default.
func Default() *Config {
	cfg := new(Config)

	// Defaults never fail validation.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates it.
// A missing file at the default path is not an error: defaults are returned.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills unset fields with defaults and checks names and patterns.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	cfg.LibraryName = strings.TrimSpace(cfg.LibraryName)
	if cfg.LibraryName == "" {
		cfg.LibraryName = DefaultLibraryName
	}

	if cfg.SourceDir == "" {
		cfg.SourceDir = DefaultSourceDir
	}

	if cfg.ExampleName == "" {
		cfg.ExampleName = DefaultExampleName
	}

	if cfg.ExampleSketch == "" {
		cfg.ExampleSketch = DefaultExampleSketch
	}

	if cfg.ExampleConfig == "" {
		cfg.ExampleConfig = DefaultExampleConfig
	}

	if len(cfg.SourcePatterns) == 0 {
		cfg.SourcePatterns = DefaultSourcePatterns()
	}

	if cfg.MetadataFiles == nil {
		cfg.MetadataFiles = DefaultMetadataFiles()
	}

	if cfg.MetadataDir == "" {
		cfg.MetadataDir = DefaultMetadataDir
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	if !isPathElement(cfg.LibraryName) {
		return fmt.Errorf("%w: %q", ErrInvalidLibraryName, cfg.LibraryName)
	}

	if !isPathElement(cfg.ExampleName) {
		return fmt.Errorf("%w: %q", ErrInvalidExampleName, cfg.ExampleName)
	}

	for _, pattern := range cfg.SourcePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
	}

	return nil
}

// ArchiveName returns the canonical archive filename for the library.
func (c *Config) ArchiveName() string {
	return c.LibraryName + ArchiveSuffix
}

// ArchivePath returns the canonical archive location.
func (c *Config) ArchivePath() string {
	return filepath.Join(c.OutputDir, c.ArchiveName())
}

// isPathElement reports whether name can be used as exactly one directory name.
func isPathElement(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	return !strings.ContainsAny(name, `/\`)
}
