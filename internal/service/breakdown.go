package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gotn-ai/gotn/internal/gotnerr"
	"github.com/gotn-ai/gotn/internal/model"
	"github.com/gotn-ai/gotn/internal/schema"
)

// Decomposer turns a free-text prompt into a set of draft micro-prompts.
// Its implementation (an LLM call, a template expansion, ...) is out of
// scope for this module, the same way spec.md scopes out the external
// embedding model provider for the Embedder — callers supply one.
type Decomposer interface {
	Decompose(ctx context.Context, prompt string) ([]DraftNode, error)
}

// DraftNode is one proposed micro-prompt before it is assigned an id and
// persisted.
type DraftNode struct {
	Summary  string   `json:"summary"`
	Tags     []string `json:"tags,omitempty"`
	Requires []string `json:"requires,omitempty"`
	Produces []string `json:"produces,omitempty"`
	Guards   []string `json:"guards,omitempty"`
}

// BreakdownPrompt decomposes prompt via decomposer, validates and stores
// every resulting node, and returns the stored nodes. A node that fails
// validation aborts the whole operation rather than partially storing the
// breakdown, so a caller never has to reconcile a half-applied prompt
// decomposition against the graph.
func (s *Service) BreakdownPrompt(ctx context.Context, decomposer Decomposer, prompt string) Envelope {
	var result interface{}
	err := s.otel.Observe(ctx, "breakdown_prompt", func(ctx context.Context) error {
		drafts, derr := decomposer.Decompose(ctx, prompt)
		if derr != nil {
			return gotnerr.Wrap(gotnerr.KindInternal, "decompose prompt", derr)
		}
		if len(drafts) == 0 {
			return gotnerr.New(gotnerr.KindValidation, "decomposer returned no nodes")
		}

		now := time.Now().UTC()
		nodes := make([]*model.Node, 0, len(drafts))
		for _, d := range drafts {
			n := &model.Node{
				ID:        uuid.New().String(),
				ProjectID: s.projectID,
				Summary:   d.Summary,
				Tags:      d.Tags,
				Requires:  d.Requires,
				Produces:  d.Produces,
				Guards:    d.Guards,
				Status:    model.NodePending,
				CreatedAt: now,
				UpdatedAt: now,
			}
			nodes = append(nodes, n)
		}

		// Validate every node before storing any of them.
		for _, n := range nodes {
			if verr := schema.Node(n); verr != nil {
				return verr
			}
		}
		for _, n := range nodes {
			env := s.StoreNode(ctx, n)
			if !env.OK {
				return gotnerr.New(gotnerr.KindInternal, "store decomposed node: "+env.Error)
			}
		}
		result = nodes
		return nil
	})
	return envelope("breakdown_prompt", result, err)
}
