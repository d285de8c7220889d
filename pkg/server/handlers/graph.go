package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	researchkb "github.com/researchkb/researchkb"
	"github.com/researchkb/researchkb/pkg/server/dto"
	"github.com/researchkb/researchkb/pkg/types"
)

const maxNeighborhoodHops = 4

// GraphHandler handles concept graph exploration requests
type GraphHandler struct {
	kb researchkb.ResearchKB
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(kb researchkb.ResearchKB) *GraphHandler {
	return &GraphHandler{kb: kb}
}

// MatchConcepts handles GET /api/v1/concepts/match?q=...&limit=...
func (h *GraphHandler) MatchConcepts(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		writeError(c, http.StatusBadRequest, "invalid_request", "q parameter is required")
		return
	}
	limit := intQuery(c, "limit", 10, 50)

	concepts, err := h.kb.MatchConcepts(c.Request.Context(), query, limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "match_failed", err.Error())
		return
	}

	out := make([]dto.Concept, len(concepts))
	for i, concept := range concepts {
		out[i] = toConcept(concept)
	}
	c.JSON(http.StatusOK, gin.H{"concepts": out, "total": len(out)})
}

// Neighborhood handles GET /api/v1/concepts/:id/neighborhood
func (h *GraphHandler) Neighborhood(c *gin.Context) {
	conceptID := c.Param("id")
	hops := intQuery(c, "hops", 1, maxNeighborhoodHops)

	var relTypes []types.RelationshipType
	if raw := c.Query("rel_types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			relTypes = append(relTypes, types.RelationshipType(strings.TrimSpace(t)))
		}
	}

	nb, err := h.kb.Neighborhood(c.Request.Context(), conceptID, hops, relTypes)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "neighborhood_failed", err.Error())
		return
	}
	if nb.Center == nil {
		writeError(c, http.StatusNotFound, "concept_not_found", "concept with the specified id was not found")
		return
	}

	out := dto.Neighborhood{
		ConceptID: conceptID,
		MaxHops:   hops,
		Concepts:  make([]dto.Concept, len(nb.Concepts)),
		Total:     len(nb.Concepts),
	}
	for i, concept := range nb.Concepts {
		out.Concepts[i] = toConcept(concept)
	}
	c.JSON(http.StatusOK, out)
}

// Path handles GET /api/v1/concepts/path?from=...&to=...&max_hops=...
func (h *GraphHandler) Path(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		writeError(c, http.StatusBadRequest, "invalid_request", "from and to parameters are required")
		return
	}
	maxHops := intQuery(c, "max_hops", 2, maxNeighborhoodHops)

	path, err := h.kb.ShortestPath(c.Request.Context(), from, to, maxHops)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "path_failed", err.Error())
		return
	}
	if path == nil {
		writeError(c, http.StatusNotFound, "path_not_found", "no path between the concepts within max_hops")
		return
	}

	c.JSON(http.StatusOK, dto.Path{
		From:        from,
		To:          to,
		Length:      path.Length(),
		Explanation: path.String(),
	})
}

func toConcept(c *types.Concept) dto.Concept {
	return dto.Concept{
		ID:            c.ID,
		Name:          c.Name,
		CanonicalName: c.CanonicalName,
		Aliases:       c.Aliases,
		Type:          c.Type,
		Description:   c.Description,
	}
}

// intQuery parses an integer query parameter with a default and cap.
func intQuery(c *gin.Context, name string, def, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
