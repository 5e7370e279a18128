package server

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonacre/carbonacre/internal/ledger"
	"github.com/carbonacre/carbonacre/internal/mrv"
	"github.com/carbonacre/carbonacre/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()
	st := store.NewMemory()
	builder := mrv.NewBuilder(st, t.TempDir(), mrv.Provenance{App: "carbonacre-test", Env: "test"}, logger)
	app := New(Config{JWTSecret: "test-secret", AllowedOrigins: []string{"*"}}, st, builder, ledger.NewSimulated(logger), logger)

	srv := httptest.NewServer(app.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func registerUser(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()

	var tok tokenResp
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"username": "farmer",
		"email":    email,
		"password": "hunter2hunter2",
	}, &tok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, tok.Token)
	return tok.Token
}

func polygonBoundary() map[string]any {
	return map[string]any{
		"type":        "Polygon",
		"coordinates": []any{[]any{[]any{77.1, 12.9}, []any{77.2, 12.9}, []any{77.2, 13.0}, []any{77.1, 12.9}}},
	}
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	token := registerUser(t, srv, "a@example.com")

	// Duplicate email is rejected.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"email": "a@example.com", "password": "hunter2hunter2",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var me struct {
		Email string `json:"email"`
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/me", token, nil, &me)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a@example.com", me.Email)

	var login tokenResp
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"email": "a@example.com", "password": "hunter2hunter2",
	}, &login)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, login.Token)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"email": "a@example.com", "password": "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/plots")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPlotValidation(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "b@example.com")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/plots", token, map[string]any{
		"name": "No boundary",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/plots", token, map[string]any{
		"name":            "Bad geometry",
		"boundaryGeojson": map[string]any{"type": "Point"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPlotOwnershipIsolation(t *testing.T) {
	srv := newTestServer(t)
	owner := registerUser(t, srv, "owner@example.com")
	other := registerUser(t, srv, "other@example.com")

	var plot struct {
		ID string `json:"id"`
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/plots", owner, map[string]any{
		"name":            "Private",
		"boundaryGeojson": polygonBoundary(),
	}, &plot)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/plots/"+plot.ID, other, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPipelineEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "c@example.com")

	var plot struct {
		ID string `json:"id"`
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/plots", token, map[string]any{
		"name":            "North Orchard",
		"agroEcozone":     "semi-arid",
		"boundaryGeojson": polygonBoundary(),
	}, &plot)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, plot.ID)

	var tree struct {
		ID string `json:"id"`
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/plots/"+plot.ID+"/trees", token, map[string]any{
		"speciesCode": "tectona_grandis",
		"heightM":     12.0,
		"dbhCm":       180.0,
	}, &tree)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var est struct {
		BiomassKg float64 `json:"biomassKg"`
		Method    string  `json:"method"`
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/trees/"+tree.ID+"/estimate", token, nil, &est)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "allometric_tectona_grandis", est.Method)
	assert.Greater(t, est.BiomassKg, 0.0)

	var agg struct {
		TotalTrees     int     `json:"totalTrees"`
		TotalBiomassKg float64 `json:"totalBiomassKg"`
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/plots/"+plot.ID+"/estimate", token, nil, &agg)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, agg.TotalTrees)
	assert.InDelta(t, est.BiomassKg, agg.TotalBiomassKg, 0.01)

	var creditsOut struct {
		Credits     float64 `json:"creditsGenerated"`
		PriceSource string  `json:"priceSource"`
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/plots/"+plot.ID+"/credits", token, nil, &creditsOut)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "default", creditsOut.PriceSource)

	var export struct {
		PkgID        string `json:"pkgId"`
		Hash         string `json:"hash"`
		ArtifactsURI string `json:"artifactsUri"`
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/plots/"+plot.ID+"/export", token, nil, &export)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, export.PkgID)
	assert.Len(t, export.Hash, 64)
	assert.NotEmpty(t, export.ArtifactsURI)

	var verify struct {
		Matches            bool   `json:"matches"`
		StoredChecksum     string `json:"storedChecksum"`
		RecomputedChecksum string `json:"recomputedChecksum"`
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/packages/"+export.PkgID+"/verify", token, nil, &verify)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, verify.Matches)
	assert.Equal(t, export.Hash, verify.StoredChecksum)
	assert.Equal(t, verify.StoredChecksum, verify.RecomputedChecksum)

	var anchored struct {
		LedgerTxID string `json:"ledgerTxId"`
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/packages/"+export.PkgID+"/anchor", token, nil, &anchored)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, anchored.LedgerTxID, "SIM-")
}

func TestEstimateWithoutMeasurements(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "d@example.com")

	var plot struct {
		ID string `json:"id"`
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/plots", token, map[string]any{
		"name":            "Sparse",
		"boundaryGeojson": polygonBoundary(),
	}, &plot)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var tree struct {
		ID string `json:"id"`
	}
	resp = doJSON(t, http.MethodPost, srv.URL+fmt.Sprintf("/api/plots/%s/trees", plot.ID), token, map[string]any{
		"speciesCode": "mangifera_indica",
	}, &tree)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/trees/"+tree.ID+"/estimate", token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/trees/"+tree.ID+"/estimate", token, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVerifyUnknownPackage(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "e@example.com")

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/packages/mrv_missing/verify", token, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
