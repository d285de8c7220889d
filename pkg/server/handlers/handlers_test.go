package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	researchkb "github.com/researchkb/researchkb"
	"github.com/researchkb/researchkb/pkg/config"
	"github.com/researchkb/researchkb/pkg/server"
	"github.com/researchkb/researchkb/pkg/server/dto"
	"github.com/researchkb/researchkb/pkg/store"
	"github.com/researchkb/researchkb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()

	st := store.NewMemoryStore()
	st.AddSource(&types.Source{ID: "s1", Title: "Causal Inference Notes", Type: types.TextbookSourceType})
	st.AddSource(&types.Source{ID: "s2", Title: "IV Methods Paper", Type: types.PaperSourceType})
	st.AddChunk(&types.Chunk{ID: "c1", SourceID: "s1", Content: "instrumental variables estimation"})
	st.AddChunk(&types.Chunk{ID: "c2", SourceID: "s2", Content: "matching estimators"})
	st.AddConcept(&types.Concept{ID: "iv", Name: "instrumental variables"})
	st.AddConcept(&types.Concept{ID: "tsls", Name: "two stage least squares"})
	st.AddRelationship(&types.ConceptRelationship{
		ID: "r1", SourceConceptID: "iv", TargetConceptID: "tsls", Type: types.RelRequires,
	})
	st.AddCitation("s1", "s2")

	kb := researchkb.NewClient(st, nil, nil)

	cfg := &config.Config{}
	cfg.Server.Mode = gin.TestMode
	srv := server.New(cfg, kb)
	srv.Setup()
	return srv.Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSearchEndpoint(t *testing.T) {
	router := testRouter(t)

	fts := 1.0
	vector := 0.0
	w := doJSON(t, router, http.MethodPost, "/api/v1/search", dto.SearchRequest{
		Query:        "instrumental variables",
		FTSWeight:    &fts,
		VectorWeight: &vector,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "c1", resp.Results[0].ChunkID)
	assert.Equal(t, 1, resp.Results[0].Rank)
	assert.Equal(t, "s1", resp.Results[0].SourceID)
	assert.InDelta(t, 1.0, resp.Results[0].CombinedScore, 1e-9)
}

func TestSearchEndpointValidation(t *testing.T) {
	router := testRouter(t)

	tests := []struct {
		name string
		body any
	}{
		{name: "missing query", body: map[string]any{"limit": 5}},
		{name: "blank query", body: dto.SearchRequest{Query: "   "}},
		{name: "unknown context", body: dto.SearchRequest{Query: "iv", Context: "exploring"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/v1/search", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSearchEndpointConfigErrorMapsTo400(t *testing.T) {
	router := testRouter(t)

	// Weights that sum to zero pass DTO validation but fail pipeline
	// validation before any retrieval.
	zero := 0.0
	w := doJSON(t, router, http.MethodPost, "/api/v1/search", dto.SearchRequest{
		Query:        "instrumental variables",
		FTSWeight:    &zero,
		VectorWeight: &zero,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request", resp.Error)
}

func TestMatchConceptsEndpoint(t *testing.T) {
	router := testRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/concepts/match?q=instrumental+variables+regression", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Concepts []dto.Concept `json:"concepts"`
		Total    int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "iv", resp.Concepts[0].ID)
}

func TestMatchConceptsRequiresQuery(t *testing.T) {
	router := testRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/v1/concepts/match", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNeighborhoodEndpoint(t *testing.T) {
	router := testRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/concepts/iv/neighborhood?hops=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.Neighborhood
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "iv", resp.ConceptID)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "tsls", resp.Concepts[0].ID)
}

func TestNeighborhoodUnknownConcept(t *testing.T) {
	router := testRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/v1/concepts/missing/neighborhood", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPathEndpoint(t *testing.T) {
	router := testRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/concepts/path?from=iv&to=tsls", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.Path
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Length)
	assert.Equal(t, "instrumental variables → (REQUIRES) → two stage least squares", resp.Explanation)
}

func TestPathNotFound(t *testing.T) {
	router := testRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/v1/concepts/path?from=tsls&to=iv", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCitationsEndpoint(t *testing.T) {
	router := testRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/sources/s2/citations", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.CitationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "s2", resp.SourceID)
	require.Len(t, resp.Citing, 1)
	assert.Equal(t, "s1", resp.Citing[0].ID)
	assert.Empty(t, resp.Cited)
}

func TestRecomputeAuthorityEndpoint(t *testing.T) {
	router := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/authority/recompute", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.AuthorityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Sources)
	assert.Equal(t, 1, resp.Citations)
	assert.InDelta(t, 1.0, resp.MaxScore, 1e-9)
}

func TestHealthEndpoints(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/health", "/live", "/ready", "/health/detailed"} {
		w := doJSON(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
