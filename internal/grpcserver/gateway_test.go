package grpcserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/softwareheritage/swh-provenance/api/provenancepb"
)

func TestGatewayWhereIsOneServesJSON(t *testing.T) {
	s, contentID := buildServer(t)
	gw := NewGateway(s)

	req := httptest.NewRequest(http.MethodGet, "/v1/where-is-one/"+contentID.String(), nil)
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result provenancepb.WhereIsOneResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, contentID.String(), result.Swhid)
	require.Equal(t, "https://example.org/x.git", result.Origin)
}

func TestGatewayWhereIsOneRejectsMalformedSWHID(t *testing.T) {
	s, _ := buildServer(t)
	gw := NewGateway(s)

	req := httptest.NewRequest(http.MethodGet, "/v1/where-is-one/not-a-swhid", nil)
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGatewayWhereAreOneCollectsStream(t *testing.T) {
	s, contentID := buildServer(t)
	gw := NewGateway(s)

	req := httptest.NewRequest(http.MethodGet, "/v1/where-are-one?swhid="+contentID.String(), nil)
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var results []provenancepb.WhereIsOneResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	require.Equal(t, contentID.String(), results[0].Swhid)
}

func TestGatewayHealthz(t *testing.T) {
	s, _ := buildServer(t)
	gw := NewGateway(s)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
