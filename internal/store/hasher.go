package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"github.com/tagcask/tagcask/internal/constants"
)

// Hasher computes content hashes of files. The digest is the
// identity of a stored file, so every byte is read.
type Hasher struct {
	algorithm  string // "blake3" or "sha256"
	bufferSize int
}

// NewHasher creates a Hasher with the specified algorithm and read
// buffer size.
func NewHasher(algorithm string, bufferSize int) *Hasher {
	if bufferSize <= 0 {
		bufferSize = constants.DefaultHashBufferSize
	}
	return &Hasher{
		algorithm:  algorithm,
		bufferSize: bufferSize,
	}
}

// HashFile calculates the hex-encoded digest of the entire file.
func (h *Hasher) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	// Hint to kernel that we'll read sequentially (doubles read-ahead)
	// Gracefully degrades on non-Linux systems
	applySequentialHint(f)

	hasher := h.createHasher()

	buf := make([]byte, h.bufferSize)
	if _, err := io.CopyBuffer(hasher, f, buf); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	// Free page cache for large files to prevent cache pollution
	if stat, err := f.Stat(); err == nil {
		releaseCacheForLargeFile(f, stat.Size())
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Verify re-calculates the hash and compares it with the expected
// hex digest.
func (h *Hasher) Verify(path, expectedHash string) (bool, error) {
	actualHash, err := h.HashFile(path)
	if err != nil {
		return false, err
	}
	return actualHash == expectedHash, nil
}

// Algorithm returns the configured hash algorithm.
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// createHasher creates a hash.Hash instance based on the configured algorithm
func (h *Hasher) createHasher() hash.Hash {
	switch h.algorithm {
	case "sha256":
		return sha256.New()
	case "blake3":
		fallthrough
	default:
		return blake3.New()
	}
}
