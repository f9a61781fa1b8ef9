// Package edgeengine infers hard and soft edges between nodes: hard edges
// from requires/produces matching, soft edges from mutual-nearest-neighbor
// embedding similarity.
package edgeengine

import (
	"context"

	"github.com/google/uuid"

	"github.com/gotn-ai/gotn/internal/embedder"
	"github.com/gotn-ai/gotn/internal/model"
	"github.com/gotn-ai/gotn/internal/vectorstore"
)

// Engine infers edges for a set of nodes.
type Engine struct {
	Embed  embedder.Engine
	Vec    vectorstore.Store
	SoftK  int
	SoftThreshold float64
}

// New builds an Engine with the given collaborators and soft-edge
// parameters (default k=5, threshold=0.75 if zero-valued).
func New(embed embedder.Engine, vec vectorstore.Store, softK int, softThreshold float64) *Engine {
	if softK <= 0 {
		softK = 5
	}
	if softThreshold <= 0 {
		softThreshold = 0.75
	}
	return &Engine{Embed: embed, Vec: vec, SoftK: softK, SoftThreshold: softThreshold}
}

// InferHard builds hard_requires edges: for every node n and every
// requirement r in n.Requires, every node producing r gets a hard_requires
// edge from the producer to n. A single pass builds the producers index
// once and reuses it for every consumer, scoped to this call only (it is
// not cached across calls, since graphs mutate between infer_edges
// invocations).
func InferHard(nodes []*model.Node) []*model.Edge {
	producers := make(map[string][]string) // capability -> producing node ids
	for _, n := range nodes {
		for _, cap := range n.Produces {
			producers[cap] = append(producers[cap], n.ID)
		}
	}

	var edges []*model.Edge
	for _, n := range nodes {
		for _, req := range n.Requires {
			for _, producerID := range producers[req] {
				if producerID == n.ID {
					continue
				}
				edges = append(edges, &model.Edge{
					ID:        uuid.New().String(),
					ProjectID: n.ProjectID,
					Src:       producerID,
					Dst:       n.ID,
					Kind:      model.EdgeHardRequires,
				})
			}
		}
	}
	return edges
}

// InferSoft embeds every node's summary, stores the vector, and emits a
// soft_semantic edge between every pair of nodes that are each in the
// other's top-SoftK nearest neighbors above SoftThreshold similarity
// (mutual nearest neighbor).
func (e *Engine) InferSoft(ctx context.Context, projectID string, nodes []*model.Node) ([]*model.Edge, error) {
	vecs := make(map[string][]float32, len(nodes))
	for _, n := range nodes {
		vec, err := e.Embed.Embed(ctx, n.Summary)
		if err != nil {
			return nil, err
		}
		if err := e.Vec.Put(ctx, projectID, n.ID, vec); err != nil {
			return nil, err
		}
		vecs[n.ID] = vec
	}

	neighbors := make(map[string]map[string]bool, len(nodes))
	for _, n := range nodes {
		matches, err := e.Vec.Search(ctx, projectID, vecs[n.ID], e.SoftK+1)
		if err != nil {
			return nil, err
		}
		set := make(map[string]bool)
		for _, m := range matches {
			if m.ID == n.ID || m.Score < e.SoftThreshold {
				continue
			}
			set[m.ID] = true
		}
		neighbors[n.ID] = set
	}

	seen := make(map[string]bool)
	var edges []*model.Edge
	for _, n := range nodes {
		for otherID := range neighbors[n.ID] {
			if !neighbors[otherID][n.ID] {
				continue // not mutual
			}
			key := pairKey(n.ID, otherID)
			if seen[key] {
				continue
			}
			seen[key] = true
			edges = append(edges, &model.Edge{
				ID:        uuid.New().String(),
				ProjectID: projectID,
				Src:       n.ID,
				Dst:       otherID,
				Kind:      model.EdgeSoftSemantic,
				Weight:    vectorstore.CosineSimilarity(vecs[n.ID], vecs[otherID]),
			})
		}
	}
	return edges, nil
}

func pairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}
