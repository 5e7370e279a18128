package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog"
)

// Simulated fabricates deterministic transaction ids without touching any
// chain. The id is derived from the package id and hash so repeated anchoring
// of the same package is stable across runs.
type Simulated struct {
	logger zerolog.Logger
}

// NewSimulated creates a simulated anchor.
func NewSimulated(logger zerolog.Logger) *Simulated {
	return &Simulated{logger: logger}
}

// Anchor returns "SIM-" plus a digest of the package id and hash.
func (s *Simulated) Anchor(_ context.Context, pkgID, hashHex string) (string, error) {
	sum := sha256.Sum256([]byte(pkgID + "|" + hashHex))
	txID := "SIM-" + hex.EncodeToString(sum[:])[:32]
	s.logger.Info().
		Str("pkg_id", pkgID).
		Str("tx_id", txID).
		Msg("Simulated ledger anchor")
	return txID, nil
}
