package mrv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/carbonacre/carbonacre/internal/store"
)

// ErrArtifactsMissing is returned when a package's folder, its checksum file,
// or one of its listed artifacts no longer exists on the storage medium.
// Verification is only as durable as the underlying file store.
var ErrArtifactsMissing = errors.New("package artifact files missing")

// VerifyResult reports a verification outcome. A mismatch is data, not an
// error: callers branch on Matches and decide what to do about it.
type VerifyResult struct {
	PkgID              string `json:"pkgId"`
	StoredChecksum     string `json:"storedChecksum"`
	RecomputedChecksum string `json:"recomputedChecksum"`
	Matches            bool   `json:"matches"`
	LedgerTxID         string `json:"ledgerTxId,omitempty"`
}

// Verifier recomputes package hashes from the files on disk. Detection only:
// it never repairs or regenerates a mismatched package.
type Verifier struct {
	store  store.Store
	logger zerolog.Logger
}

// NewVerifier creates a package verifier.
func NewVerifier(st store.Store, logger zerolog.Logger) *Verifier {
	return &Verifier{store: st, logger: logger}
}

// Verify loads the package record, re-hashes every file listed in the stored
// checksum map, derives the aggregate with the identical sort-and-join
// algorithm the builder used, and compares it to the stored top-level hash.
func (v *Verifier) Verify(ctx context.Context, pkgID string) (*VerifyResult, error) {
	pkg, err := v.store.GetPackage(ctx, pkgID)
	if err != nil {
		return nil, fmt.Errorf("load package: %w", err)
	}

	recomputed, _, err := RecomputeDir(pkg.ArtifactsPath)
	if err != nil {
		return nil, err
	}

	res := &VerifyResult{
		PkgID:              pkg.ID,
		StoredChecksum:     pkg.TopHash,
		RecomputedChecksum: recomputed,
		Matches:            recomputed == pkg.TopHash,
		LedgerTxID:         pkg.LedgerTxID,
	}
	if !res.Matches {
		v.logger.Warn().
			Str("pkg_id", pkg.ID).
			Str("stored", pkg.TopHash).
			Str("recomputed", recomputed).
			Msg("Package checksum mismatch")
	}
	return res, nil
}

// RecomputeDir re-hashes every file listed in a package folder's
// checksums.json and returns the fresh aggregate hash along with the
// per-file digests. Shared by the verifier and the offline CLI.
func RecomputeDir(dir string) (string, map[string]string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, PathChecksums))
	if os.IsNotExist(err) {
		return "", nil, ErrArtifactsMissing
	}
	if err != nil {
		return "", nil, fmt.Errorf("read checksums: %w", err)
	}

	var stored checksumsDoc
	if err := json.Unmarshal(raw, &stored); err != nil {
		return "", nil, fmt.Errorf("parse checksums: %w", err)
	}

	fresh := make(map[string]string, len(stored.Files))
	for rel := range stored.Files {
		digest, err := hashFile(filepath.Join(dir, rel))
		if os.IsNotExist(err) {
			return "", nil, ErrArtifactsMissing
		}
		if err != nil {
			return "", nil, fmt.Errorf("rehash %s: %w", rel, err)
		}
		fresh[rel] = digest
	}

	return AggregateHash(fresh), fresh, nil
}

// StoredChecksums reads the per-file digest map a package folder was built
// with, without recomputing anything.
func StoredChecksums(dir string) (map[string]string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, PathChecksums))
	if os.IsNotExist(err) {
		return nil, ErrArtifactsMissing
	}
	if err != nil {
		return nil, fmt.Errorf("read checksums: %w", err)
	}
	var stored checksumsDoc
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("parse checksums: %w", err)
	}
	return stored.Files, nil
}
