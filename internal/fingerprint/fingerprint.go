// Package fingerprint computes content digests used as the equality proxy
// for sync decisions. Two files are considered identical iff their SHA-256
// digests match.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/BUntulis/filesync/internal/errors"
)

// chunkSize bounds memory use when hashing large files.
const chunkSize = 8192

// File returns the lowercase hex SHA-256 digest of the file's full content,
// streamed in fixed-size chunks.
func File(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NotFound(path)
		}
		return "", errors.IOError(err, "checking file %s", path)
	}
	if !info.Mode().IsRegular() {
		return "", errors.ValidationError("path is not a regular file: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", errors.IOError(err, "opening file %s", path)
	}
	defer f.Close()

	hasher := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(hasher, f, buf); err != nil {
		return "", errors.IOError(err, "hashing file %s", path)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
