package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/arduino-packager/internal/config"
	"github.com/oshokin/arduino-packager/internal/logger"
	"github.com/oshokin/arduino-packager/internal/service/packager"
	"github.com/oshokin/arduino-packager/internal/version"
)

// options holds flag values for a single invocation.
type options struct {
	configPath  string
	sourceDir   string
	outputDir   string
	metadataDir string
	exampleName string
	logLevel    string
	strict      bool
	checksum    bool
}

// NewRootCommand builds the arduino-packager command tree.
func NewRootCommand() *cobra.Command {
	opts := new(options)

	rootCmd := &cobra.Command{
		Use:   "arduino-packager [library-name]",
		Short: "Package Arduino library sources into an IDE-installable zip.",
		Long: `Packages a flat source folder into <library-name>Lib.zip laid out for the Arduino IDE:

  <library-name>/src/*.cpp, *.h
  <library-name>/examples/OTA_Test/OTA_Test.ino   (from OTA_Test.cpp)
  <library-name>/examples/OTA_Test/config.h
  <library-name>/library.properties, README.md   (when present)

The library name defaults to ` + config.DefaultLibraryName + `. Settings can also be read from ` +
			config.DefaultConfigFilename + `; flags take precedence over the file.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyLogLevel(opts.logLevel); err != nil {
				return err
			}

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var libraryName string
			if len(args) > 0 {
				libraryName = args[0]
			}

			return packager.Run(ctx, &packager.Options{
				ConfigPath:  opts.configPath,
				LibraryName: libraryName,
				SourceDir:   opts.sourceDir,
				ExampleName: opts.exampleName,
				MetadataDir: opts.metadataDir,
				OutputDir:   opts.outputDir,
				Strict:      opts.strict,
				Checksum:    opts.checksum,
				Output:      cmd.OutOrStdout(),
			})
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to settings file (default "+config.DefaultConfigFilename+" if present)")
	flags.StringVarP(&opts.sourceDir, "source", "s", "", "folder with the sketch and library sources (default "+config.DefaultSourceDir+")")
	flags.StringVarP(&opts.outputDir, "output", "o", "", "folder receiving the archive (default current folder)")
	flags.StringVar(&opts.metadataDir, "metadata-dir", "", "folder holding library.properties and README.md (default current folder)")
	flags.StringVar(&opts.exampleName, "example", "", "example folder name under examples/ (default "+config.DefaultExampleName+")")
	flags.BoolVar(&opts.strict, "strict", false, "fail when the example sketch or its config.h is missing")
	flags.BoolVar(&opts.checksum, "checksum", false, "write a .sha512 file next to the archive")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	version.AttachCobraVersionCommand(rootCmd)

	return rootCmd
}

// applyLogLevel parses and sets the global log level.
func applyLogLevel(level string) error {
	parsed, ok := logger.ParseLogLevel(level)
	if !ok {
		return fmt.Errorf("unknown log level %q", level)
	}

	logger.SetLevel(parsed)

	return nil
}

// Execute runs the arduino-packager CLI and exits with non-zero status on error.
func Execute() {
	ctx := context.Background()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		logger.ErrorKV(ctx, "Packaging failed", "error", err)
		os.Exit(1)
	}
}
