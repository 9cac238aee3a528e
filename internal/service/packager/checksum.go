package packager

import (
	"context"
	"crypto"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/arduino-packager/internal/logger"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// DefaultChecksumFunction is used to hash the produced archive.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// ChecksumExtension is appended to the archive name for the checksum file.
	ChecksumExtension = ".sha512"

	checksumFileMode os.FileMode = 0o644
)

var errHashUnavailable = errors.New("hash function unavailable")

// GetFileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func GetFileChecksum(path string) ([]byte, error) {
	if !DefaultChecksumFunction.Available() {
		return nil, errHashUnavailable
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = file.Close()
	}()

	hash := DefaultChecksumFunction.New()
	if _, err = io.Copy(hash, file); err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}

	return hash.Sum(nil), nil
}

// writeChecksum logs the archive digest and, when enabled, writes it in sha512sum format.
// A checksum file left by a previous run is always removed first.
func (p *packager) writeChecksum(ctx context.Context, archivePath string) error {
	sidecar := archivePath + ChecksumExtension
	if err := removeStale(ctx, sidecar); err != nil {
		return err
	}

	checksum, err := GetFileChecksum(archivePath)
	if err != nil {
		return fmt.Errorf("checksum archive: %w", err)
	}

	logger.InfoKV(ctx, "Archive checksum", "sha512", base64.StdEncoding.EncodeToString(checksum))

	if !p.cfg.Checksum {
		return nil
	}

	line := hex.EncodeToString(checksum) + "  " + filepath.Base(archivePath) + "\n"
	if err = os.WriteFile(sidecar, []byte(line), checksumFileMode); err != nil {
		return fmt.Errorf("write checksum file: %w", err)
	}

	logger.InfoKV(ctx, "Checksum file written", "path", sidecar)

	return nil
}
