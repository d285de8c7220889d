package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	researchkb "github.com/researchkb/researchkb"
	"github.com/researchkb/researchkb/pkg/server/dto"
	"github.com/researchkb/researchkb/pkg/types"
)

// CitationHandler handles citation graph requests
type CitationHandler struct {
	kb researchkb.ResearchKB
}

// NewCitationHandler creates a new citation handler
func NewCitationHandler(kb researchkb.ResearchKB) *CitationHandler {
	return &CitationHandler{kb: kb}
}

// Citations handles GET /api/v1/sources/:id/citations
func (h *CitationHandler) Citations(c *gin.Context) {
	sourceID := c.Param("id")

	citing, err := h.kb.CitingSources(c.Request.Context(), sourceID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "citation_lookup_failed", err.Error())
		return
	}
	cited, err := h.kb.CitedSources(c.Request.Context(), sourceID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "citation_lookup_failed", err.Error())
		return
	}

	resp := dto.CitationsResponse{
		SourceID: sourceID,
		Citing:   toSources(citing),
		Cited:    toSources(cited),
	}
	c.JSON(http.StatusOK, resp)
}

// RecomputeAuthority handles POST /api/v1/authority/recompute. The
// computation runs synchronously; callers should treat it as a batch
// maintenance call, not a request-path operation.
func (h *CitationHandler) RecomputeAuthority(c *gin.Context) {
	stats, err := h.kb.ComputeAuthority(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "authority_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.AuthorityResponse{
		Sources:    stats.Sources,
		Citations:  stats.Citations,
		Iterations: stats.Iterations,
		MaxScore:   stats.MaxScore,
	})
}

func toSources(sources []*types.Source) []dto.Source {
	out := make([]dto.Source, len(sources))
	for i, s := range sources {
		out[i] = dto.Source{
			ID:                s.ID,
			Title:             s.Title,
			Authors:           s.Authors,
			Year:              s.Year,
			Type:              string(s.Type),
			CitationAuthority: s.CitationAuthority,
		}
	}
	return out
}
