package mrv

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// hashFile returns the SHA-256 hex digest of the file's contents.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// AggregateHash derives the package top-level hash from a file→digest map:
// sort the file-path keys lexicographically, join their hex digests with "|",
// and SHA-256 the concatenation. Verification must reproduce this exact sort
// and join to match.
func AggregateHash(files map[string]string) string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	digests := make([]string, len(keys))
	for i, k := range keys {
		digests[i] = files[k]
	}

	sum := sha256.Sum256([]byte(strings.Join(digests, "|")))
	return hex.EncodeToString(sum[:])
}
