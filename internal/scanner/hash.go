package scanner

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"tunekeep/internal/services"
)

// Hasher constructs a fresh hash for one file.
type Hasher func() hash.Hash

// NewHasher returns the hash constructor for a configured algorithm name.
func NewHasher(name string) (Hasher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "md5":
		return md5.New, nil
	case "sha256":
		return sha256.New, nil
	case "xxhash":
		return func() hash.Hash { return xxhash.New() }, nil
	case "blake3":
		return func() hash.Hash { return blake3.New() }, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "scan", "hasher", fmt.Sprintf("unknown hash algorithm %q", name), nil)
	}
}

// HashFile returns the hex digest of the file contents.
func HashFile(path string, newHash Hasher) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := newHash()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
