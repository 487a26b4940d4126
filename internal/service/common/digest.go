//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"crypto"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	// Ensure SHA1 is available for digest calculation.
	_ "crypto/sha1"
)

// DefaultChecksumFunction is used to calculate asset digests.
// SHA-1 hex digests are what the MedPerf server stores for cube assets.
const DefaultChecksumFunction crypto.Hash = crypto.SHA1

var errHashUnavailable = errors.New("hash function unavailable")

// FileDigest returns the hex digest and size of a file using DefaultChecksumFunction.
func FileDigest(path string) (string, int64, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", 0, err
	}

	defer func() {
		_ = file.Close()
	}()

	return ReaderDigest(file)
}

// ReaderDigest consumes the reader and returns the hex digest and byte count.
func ReaderDigest(reader io.Reader) (string, int64, error) {
	if !DefaultChecksumFunction.Available() {
		return "", 0, fmt.Errorf("digest calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()

	size, err := io.Copy(hasher, reader)
	if err != nil {
		return "", 0, fmt.Errorf("calculate digest: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), size, nil
}
