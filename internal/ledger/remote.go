package ledger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Remote submits anchors to an HTTP ledger gateway.
type Remote struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewRemote creates a remote anchor against the gateway base URL.
func NewRemote(baseURL string, logger zerolog.Logger) *Remote {
	return &Remote{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 25 * time.Second},
		logger:  logger,
	}
}

type anchorReq struct {
	PkgID string `json:"pkgId"`
	Hash  string `json:"hash"`
}

type anchorResp struct {
	TxID string `json:"txId"`
}

// Anchor POSTs {pkgId, hash} to {baseURL}/anchors and returns the gateway's
// transaction id.
func (r *Remote) Anchor(ctx context.Context, pkgID, hashHex string) (string, error) {
	body, err := json.Marshal(anchorReq{PkgID: pkgID, Hash: hashHex})
	if err != nil {
		return "", fmt.Errorf("marshal anchor req: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/anchors", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build anchor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ledger call failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ledger non-2xx: %s, body: %s", resp.Status, string(data))
	}

	var out anchorResp
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode ledger resp: %w", err)
	}
	if out.TxID == "" {
		return "", fmt.Errorf("ledger returned empty tx id")
	}

	r.logger.Info().Str("pkg_id", pkgID).Str("tx_id", out.TxID).Msg("Anchored package")
	return out.TxID, nil
}
