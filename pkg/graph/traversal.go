// Package graph implements concept-graph traversal and scoring: BFS
// shortest paths, neighborhood extraction, relationship-weighted
// relevance scores and the offline citation authority job.
package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/researchkb/researchkb/pkg/types"
)

// Adjacency is the read surface traversal needs from the store.
type Adjacency interface {
	GetConcepts(ctx context.Context, ids []string) ([]*types.Concept, error)
	RelationshipsFrom(ctx context.Context, conceptIDs []string) (map[string][]*types.ConceptRelationship, error)
}

// Path is a concept chain: Concepts has one more element than
// Relationships, and Relationships[i] connects Concepts[i] to
// Concepts[i+1].
type Path struct {
	Concepts      []*types.Concept
	Relationships []*types.ConceptRelationship
}

// Length is the number of edges in the path.
func (p *Path) Length() int {
	return len(p.Relationships)
}

// EdgeWeightProduct multiplies the weights of every edge on the path.
// A zero-length path has product 1.
func (p *Path) EdgeWeightProduct() float64 {
	product := 1.0
	for _, rel := range p.Relationships {
		product *= rel.Type.Weight()
	}
	return product
}

// String renders the path as "name1 → (relType) → name2".
func (p *Path) String() string {
	if len(p.Concepts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(p.Concepts[0].Name)
	for i, rel := range p.Relationships {
		fmt.Fprintf(&b, " → (%s) → %s", rel.Type, p.Concepts[i+1].Name)
	}
	return b.String()
}

// pathState is one partial path on the BFS frontier. Each path carries
// its own visited set so parallel branches do not block each other.
type pathState struct {
	nodeID  string
	visited map[string]bool
	edges   []*types.ConceptRelationship
	nodes   []string
}

func (s *pathState) extend(rel *types.ConceptRelationship) *pathState {
	visited := make(map[string]bool, len(s.visited)+1)
	for id := range s.visited {
		visited[id] = true
	}
	visited[rel.TargetConceptID] = true

	edges := make([]*types.ConceptRelationship, len(s.edges)+1)
	copy(edges, s.edges)
	edges[len(s.edges)] = rel

	nodes := make([]string, len(s.nodes)+1)
	copy(nodes, s.nodes)
	nodes[len(s.nodes)] = rel.TargetConceptID

	return &pathState{
		nodeID:  rel.TargetConceptID,
		visited: visited,
		edges:   edges,
		nodes:   nodes,
	}
}

// ShortestPath finds a minimum-hop directed path from start to end,
// bounded by maxHops edges. Returns nil when no path exists within the
// bound. BFS guarantees the first path found is shortest; the frontier
// is expanded with one batched adjacency call per depth level.
func ShortestPath(ctx context.Context, g Adjacency, startID, endID string, maxHops int) (*Path, error) {
	if startID == endID {
		return resolvePath(ctx, g, &pathState{nodeID: startID, nodes: []string{startID}})
	}
	if maxHops <= 0 {
		return nil, nil
	}

	frontier := []*pathState{{
		nodeID:  startID,
		visited: map[string]bool{startID: true},
		nodes:   []string{startID},
	}}

	for depth := 0; depth < maxHops && len(frontier) > 0; depth++ {
		ids := frontierIDs(frontier)
		adjacency, err := g.RelationshipsFrom(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("frontier expansion failed at depth %d: %w", depth, err)
		}

		var next []*pathState
		for _, state := range frontier {
			for _, rel := range adjacency[state.nodeID] {
				if state.visited[rel.TargetConceptID] {
					continue
				}
				extended := state.extend(rel)
				if rel.TargetConceptID == endID {
					return resolvePath(ctx, g, extended)
				}
				next = append(next, extended)
			}
		}
		frontier = next
	}

	return nil, nil
}

func frontierIDs(frontier []*pathState) []string {
	seen := make(map[string]bool, len(frontier))
	ids := make([]string, 0, len(frontier))
	for _, state := range frontier {
		if !seen[state.nodeID] {
			seen[state.nodeID] = true
			ids = append(ids, state.nodeID)
		}
	}
	return ids
}

func resolvePath(ctx context.Context, g Adjacency, state *pathState) (*Path, error) {
	concepts, err := g.GetConcepts(ctx, state.nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path concepts: %w", err)
	}
	byID := make(map[string]*types.Concept, len(concepts))
	for _, c := range concepts {
		byID[c.ID] = c
	}

	path := &Path{
		Concepts:      make([]*types.Concept, len(state.nodes)),
		Relationships: state.edges,
	}
	for i, id := range state.nodes {
		if c, ok := byID[id]; ok {
			path.Concepts[i] = c
		} else {
			path.Concepts[i] = &types.Concept{ID: id, Name: id}
		}
	}
	return path, nil
}

// Neighborhood is the subgraph reachable from a center concept.
type Neighborhood struct {
	Center        *types.Concept
	Concepts      []*types.Concept
	Relationships []*types.ConceptRelationship
}

// GetNeighborhood collects every concept reachable from centerID within
// hops edges, expanding one batched adjacency call per level. When
// relTypes is non-empty, edges of other kinds are neither reported nor
// traversed, so the filter constrains reachability too.
func GetNeighborhood(ctx context.Context, g Adjacency, centerID string, hops int, relTypes []types.RelationshipType) (*Neighborhood, error) {
	allowed := make(map[types.RelationshipType]bool, len(relTypes))
	for _, t := range relTypes {
		allowed[t] = true
	}

	visited := map[string]bool{centerID: true}
	frontier := []string{centerID}
	var relationships []*types.ConceptRelationship

	for depth := 0; depth < hops && len(frontier) > 0; depth++ {
		adjacency, err := g.RelationshipsFrom(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("neighborhood expansion failed at depth %d: %w", depth, err)
		}

		var next []string
		for _, id := range frontier {
			for _, rel := range adjacency[id] {
				if len(allowed) > 0 && !allowed[rel.Type] {
					continue
				}
				relationships = append(relationships, rel)
				if !visited[rel.TargetConceptID] {
					visited[rel.TargetConceptID] = true
					next = append(next, rel.TargetConceptID)
				}
			}
		}
		frontier = next
	}

	ids := make([]string, 0, len(visited))
	for id := range visited {
		ids = append(ids, id)
	}
	concepts, err := g.GetConcepts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve neighborhood concepts: %w", err)
	}

	neighborhood := &Neighborhood{Relationships: relationships}
	for _, c := range concepts {
		if c.ID == centerID {
			neighborhood.Center = c
		} else {
			neighborhood.Concepts = append(neighborhood.Concepts, c)
		}
	}
	return neighborhood, nil
}
