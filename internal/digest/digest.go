package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"
)

// Algorithm identifies a supported checksum algorithm.
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
)

// New returns a fresh hash for the algorithm.
func New(algo Algorithm) (hash.Hash, error) {
	switch algo {
	case MD5:
		return md5.New(), nil
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported digest algorithm: %s", algo)
	}
}

// Compute reads r to EOF and returns the lowercase hex digest.
func Compute(r io.Reader, algo Algorithm) (string, error) {
	h, err := New(algo)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ChecksumAlgorithm maps a checksum file suffix to its algorithm.
// Returns false when fileName is not a checksum file.
func ChecksumAlgorithm(fileName string) (Algorithm, bool) {
	switch {
	case strings.HasSuffix(fileName, ".md5"):
		return MD5, true
	case strings.HasSuffix(fileName, ".sha1"):
		return SHA1, true
	case strings.HasSuffix(fileName, ".sha256"):
		return SHA256, true
	case strings.HasSuffix(fileName, ".sha512"):
		return SHA512, true
	default:
		return "", false
	}
}

// BaseName strips a checksum suffix. For non-checksum names it returns
// fileName unchanged.
func BaseName(fileName string) string {
	if _, ok := ChecksumAlgorithm(fileName); !ok {
		return fileName
	}
	idx := strings.LastIndex(fileName, ".")
	return fileName[:idx]
}
