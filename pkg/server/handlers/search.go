package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	researchkb "github.com/researchkb/researchkb"
	"github.com/researchkb/researchkb/pkg/expand"
	"github.com/researchkb/researchkb/pkg/search"
	"github.com/researchkb/researchkb/pkg/server/dto"
	"github.com/researchkb/researchkb/pkg/telemetry"
	"github.com/researchkb/researchkb/pkg/types"
)

// SearchHandler handles search requests
type SearchHandler struct {
	kb       researchkb.ResearchKB
	recorder *telemetry.Recorder
}

// NewSearchHandler creates a new search handler. recorder may be nil.
func NewSearchHandler(kb researchkb.ResearchKB, recorder *telemetry.Recorder) *SearchHandler {
	return &SearchHandler{kb: kb, recorder: recorder}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	q := buildQuery(&req)
	opts := search.Options{UseRerank: req.Rerank}
	if req.Expand {
		opts.Expand = expand.Options{UseSynonyms: true, UseGraph: q.UseGraph}
	}

	resp, err := h.kb.Search(c.Request.Context(), q, opts)
	if err != nil {
		var cfgErr *types.ConfigError
		if errors.As(err, &cfgErr) {
			writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		writeError(c, http.StatusInternalServerError, "search_failed", err.Error())
		return
	}

	if h.recorder != nil {
		h.recorder.Record(resp)
	}
	c.JSON(http.StatusOK, toSearchResponse(resp))
}

// buildQuery maps the request onto a search query, starting from the
// balanced defaults and applying the context preset before any
// explicit weight overrides.
func buildQuery(req *dto.SearchRequest) *types.SearchQuery {
	q := types.DefaultSearchQuery(req.Query)

	switch req.Context {
	case "building":
		q.FTSWeight, q.VectorWeight = types.BuildingContext.Weights()
	case "auditing":
		q.FTSWeight, q.VectorWeight = types.AuditingContext.Weights()
	}

	if req.FTSWeight != nil {
		q.FTSWeight = *req.FTSWeight
	}
	if req.VectorWeight != nil {
		q.VectorWeight = *req.VectorWeight
	}
	if req.GraphWeight != nil {
		q.GraphWeight = *req.GraphWeight
	}
	if req.CitationWeight != nil {
		q.CitationWeight = *req.CitationWeight
	}

	q.UseGraph = req.UseGraph
	q.UseCitations = req.UseCitations
	if req.MaxHops > 0 {
		q.MaxHops = req.MaxHops
	}
	if req.Limit > 0 {
		q.Limit = req.Limit
	}
	q.SourceFilter = types.SourceType(req.SourceType)
	return q
}

func toSearchResponse(resp *types.SearchResponse) dto.SearchResponse {
	out := dto.SearchResponse{
		Query:         resp.Query,
		ExpandedQuery: resp.ExpandedQuery,
		Results:       make([]dto.SearchResult, len(resp.Results)),
		Total:         len(resp.Results),
		Degraded:      resp.Degraded,
		ExecutionMs:   resp.ExecutionMs,
	}
	for i, r := range resp.Results {
		result := dto.SearchResult{
			Rank:          r.Rank,
			ChunkID:       r.Chunk.ID,
			Content:       r.Chunk.Content,
			PageStart:     r.Chunk.PageStart,
			PageEnd:       r.Chunk.PageEnd,
			CombinedScore: r.CombinedScore,
			FTSScore:      r.Scores.FTS,
			VectorScore:   r.Scores.Vector,
			GraphScore:    r.Scores.Graph,
			CitationScore: r.Scores.Citation,
			RerankScore:   r.Scores.Rerank,
			Explanations:  r.GraphExplanations,
		}
		if r.Source != nil {
			result.SourceID = r.Source.ID
			result.SourceTitle = r.Source.Title
		}
		out.Results[i] = result
	}
	return out
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.ErrorResponse{Error: code, Message: message, Code: status})
}
