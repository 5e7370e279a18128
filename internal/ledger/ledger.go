// Package ledger anchors MRV package hashes to an external ledger. The
// pipeline treats the anchor as an opaque, eventually-consistent provenance
// marker: it stores whatever identifier comes back and never inspects it.
package ledger

import "context"

// Anchor submits a package hash and returns an opaque transaction id.
// Implementations are selected by configuration, never by environment
// branching inside business logic.
type Anchor interface {
	Anchor(ctx context.Context, pkgID, hashHex string) (string, error)
}
