// Package service implements the gotn wire contract: a tool-calling façade
// whose operations take and return JSON-shaped envelopes. Each method
// corresponds to one row of the External Interfaces operation table:
// init_workspace, store_node, infer_edges, breakdown_prompt, compose_plan,
// execute_node, trace_node, search_nodes, debug and recover.
package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/gotn-ai/gotn/internal/archive"
	"github.com/gotn-ai/gotn/internal/atomicfile"
	"github.com/gotn-ai/gotn/internal/config"
	"github.com/gotn-ai/gotn/internal/edgeengine"
	"github.com/gotn-ai/gotn/internal/embedder"
	"github.com/gotn-ai/gotn/internal/gotnerr"
	"github.com/gotn-ai/gotn/internal/graphstore"
	"github.com/gotn-ai/gotn/internal/guard"
	"github.com/gotn-ai/gotn/internal/journal"
	"github.com/gotn-ai/gotn/internal/model"
	"github.com/gotn-ai/gotn/internal/planner"
	"github.com/gotn-ai/gotn/internal/readmodel"
	"github.com/gotn-ai/gotn/internal/run"
	"github.com/gotn-ai/gotn/internal/schema"
	"github.com/gotn-ai/gotn/internal/telemetry"
	"github.com/gotn-ai/gotn/internal/vectorstore"
)

// Envelope is the common response shape every operation returns.
type Envelope struct {
	OK        bool        `json:"ok"`
	Tool      string      `json:"tool"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Service is the façade over one project's workspace.
type Service struct {
	cfg       *config.Config
	projectID string

	journal  *journal.Journal
	graph    *graphstore.Store
	locker   *atomicfile.Locker
	vec      vectorstore.Store
	embed    embedder.Engine
	edges    *edgeengine.Engine
	guards   *guard.Engine
	runs     *run.Recorder
	mirror   *readmodel.Mirror
	archive  archive.Sink
	otel     *telemetry.Provider
}

// Open initializes or attaches to a workspace at cfg.WorkspaceDir for
// projectID, replaying the journal to rebuild the graph snapshot.
func Open(ctx context.Context, cfg *config.Config, projectID string) (*Service, error) {
	journalPath := filepath.Join(cfg.WorkspaceDir, "journal.jsonl")
	j, err := journal.Open(journalPath)
	if err != nil {
		return nil, err
	}

	store, _, err := graphstore.Recover(j, projectID)
	if err != nil {
		return nil, err
	}

	vec, _ := vectorstore.Select(ctx, cfg.VectorRedisAddr, "", 0)

	embed := embedder.Select(cfg.EmbedderURL, cfg.EmbedderDim)

	guards := guard.New()
	guards.RegisterCEL()
	guards.RegisterWASM()

	otelProvider, err := telemetry.New("gotn")
	if err != nil {
		return nil, err
	}

	var archiveSink archive.Sink = archive.NoopSink{}

	var mirror *readmodel.Mirror
	if m, err := readmodel.Open(cfg.DatabaseURL, filepath.Join(cfg.WorkspaceDir, "readmodel.sqlite")); err == nil {
		mirror = m
	}

	return &Service{
		cfg:       cfg,
		projectID: projectID,
		journal:   j,
		graph:     store,
		locker:    atomicfile.NewLocker(),
		vec:       vec,
		embed:     embed,
		edges:     edgeengine.New(embed, vec, cfg.SoftK, cfg.SoftThreshold),
		guards:    guards,
		runs:      run.New(filepath.Join(cfg.WorkspaceDir, "runs"), guards),
		mirror:    mirror,
		archive:   archiveSink,
		otel:      otelProvider,
	}, nil
}

func envelope(tool string, data interface{}, err error) Envelope {
	e := Envelope{Tool: tool, Timestamp: time.Now().UTC()}
	if err != nil {
		e.OK = false
		e.Error = err.Error()
		return e
	}
	e.OK = true
	e.Data = data
	return e
}

// InitWorkspace creates .gotn/meta.json for a fresh workspace.
func (s *Service) InitWorkspace(ctx context.Context) Envelope {
	var result interface{}
	err := s.otel.Observe(ctx, "init_workspace", func(ctx context.Context) error {
		meta := model.Meta{
			SchemaVersion: s.cfg.SchemaVersion,
			ProjectID:     s.projectID,
			CreatedAt:     time.Now().UTC(),
		}
		data, marshalErr := marshalIndent(meta)
		if marshalErr != nil {
			return gotnerr.Wrap(gotnerr.KindInternal, "marshal meta", marshalErr)
		}
		if werr := atomicfile.WriteFile(filepath.Join(s.cfg.WorkspaceDir, "meta.json"), data, 0o644); werr != nil {
			return werr
		}
		result = meta
		return nil
	})
	return envelope("init_workspace", result, err)
}

// StoreNode validates and persists a node, defaulting its id if unset.
func (s *Service) StoreNode(ctx context.Context, n *model.Node) Envelope {
	var result interface{}
	err := s.otel.Observe(ctx, "store_node", func(ctx context.Context) error {
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		n.ProjectID = s.projectID
		if n.Status == "" {
			n.Status = model.NodePending
		}
		now := time.Now().UTC()
		n.CreatedAt, n.UpdatedAt = now, now

		if verr := schema.Node(n); verr != nil {
			return verr
		}

		unlock := s.locker.Lock("node:" + n.ID)
		defer unlock()

		if perr := s.graph.PutNode(n); perr != nil {
			return perr
		}
		if s.mirror != nil {
			_ = s.mirror.Upsert(ctx, n)
		}
		result = n
		return nil
	})
	return envelope("store_node", result, err)
}

// InferEdges runs hard-edge inference over every node, then soft-edge
// inference via the embedder/vector-store pipeline, persisting both sets.
func (s *Service) InferEdges(ctx context.Context) Envelope {
	var result interface{}
	err := s.otel.Observe(ctx, "infer_edges", func(ctx context.Context) error {
		snap := s.graph.Snapshot()
		nodes := make([]*model.Node, 0, len(snap.Nodes))
		for _, n := range snap.Nodes {
			nodes = append(nodes, n)
		}

		hard := edgeengine.InferHard(nodes)
		soft, serr := s.edges.InferSoft(ctx, s.projectID, nodes)
		if serr != nil {
			return serr
		}

		all := append(hard, soft...)
		for _, e := range all {
			if verr := schema.Edge(e); verr != nil {
				return verr
			}
			if perr := s.graph.PutEdge(e); perr != nil {
				return perr
			}
		}
		result = all
		return nil
	})
	return envelope("infer_edges", result, err)
}

// ComposePlan runs Kahn's algorithm over the current graph.
func (s *Service) ComposePlan(ctx context.Context) Envelope {
	var result interface{}
	err := s.otel.Observe(ctx, "compose_plan", func(ctx context.Context) error {
		snap := s.graph.Snapshot()
		nodes := make([]*model.Node, 0, len(snap.Nodes))
		for _, n := range snap.Nodes {
			nodes = append(nodes, n)
		}
		plan, perr := planner.Compose(s.projectID, nodes, snap.Edges)
		if perr != nil {
			return perr
		}
		result = plan
		return nil
	})
	return envelope("compose_plan", result, err)
}

// ExecuteNode evaluates guards for a node and, if they proceed, invokes
// exec (out of scope: spec.md excludes running user code, so production
// callers typically supply an exec that records caller-provided artifacts).
func (s *Service) ExecuteNode(ctx context.Context, runDir string, nodeID string, exec run.NodeExecutor) Envelope {
	var result interface{}
	err := s.otel.Observe(ctx, "execute_node", func(ctx context.Context) error {
		n, gerr := s.graph.GetNode(nodeID)
		if gerr != nil {
			return gerr
		}
		step, rerr := s.runs.ExecuteNode(runDir, n, exec)
		if rerr != nil {
			return rerr
		}
		n.Status = outcomeToStatus(step.Outcome)
		n.UpdatedAt = time.Now().UTC()
		if perr := s.graph.PutNode(n); perr != nil {
			return perr
		}
		result = step
		return nil
	})
	return envelope("execute_node", result, err)
}

func outcomeToStatus(o model.StepOutcome) model.NodeStatus {
	switch o {
	case model.StepProceeded:
		return model.NodeSucceeded
	case model.StepSkipped:
		return model.NodeSkipped
	default:
		return model.NodeFailed
	}
}

// TraceNode returns every journal entry touching nodeID, oldest first.
func (s *Service) TraceNode(ctx context.Context, nodeID string) Envelope {
	var result interface{}
	err := s.otel.Observe(ctx, "trace_node", func(ctx context.Context) error {
		res, rerr := s.journal.Replay()
		if rerr != nil {
			return rerr
		}
		var entries []interface{}
		for _, e := range res.ValidEntries {
			if containsNodeID(e.Data, nodeID) {
				entries = append(entries, e)
			}
		}
		result = entries
		return nil
	})
	return envelope("trace_node", result, err)
}

func containsNodeID(data []byte, nodeID string) bool {
	return len(data) > 0 && indexOf(string(data), nodeID) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

// SearchNodes performs vector search, falling back to the SQL mirror's
// LIKE-based text search when the vector backend is unavailable.
func (s *Service) SearchNodes(ctx context.Context, query string, k int) Envelope {
	var result interface{}
	err := s.otel.Observe(ctx, "search_nodes", func(ctx context.Context) error {
		vec, eerr := s.embed.Embed(ctx, query)
		if eerr == nil {
			matches, serr := s.vec.Search(ctx, s.projectID, vec, k)
			if serr == nil {
				result = matches
				return nil
			}
		}
		if s.mirror == nil {
			return gotnerr.New(gotnerr.KindBackendUnavail, "vector backend and read-model both unavailable")
		}
		ids, merr := s.mirror.Search(ctx, s.projectID, query, k)
		if merr != nil {
			return merr
		}
		result = ids
		return nil
	})
	return envelope("search_nodes", result, err)
}

// Debug reports workspace counters for operational inspection.
func (s *Service) Debug(ctx context.Context) Envelope {
	var result interface{}
	err := s.otel.Observe(ctx, "debug", func(ctx context.Context) error {
		snap := s.graph.Snapshot()
		dangling := s.graph.VerifyIntegrity()
		result = map[string]interface{}{
			"project_id":      s.projectID,
			"node_count":      len(snap.Nodes),
			"edge_count":      len(snap.Edges),
			"journal_sequence": s.journal.LastSequence(),
			"dangling_edges":  dangling,
		}
		return nil
	})
	return envelope("debug", result, err)
}

// Recover replays the journal from scratch and reports the replay result.
func (s *Service) Recover(ctx context.Context) Envelope {
	var result interface{}
	err := s.otel.Observe(ctx, "recover", func(ctx context.Context) error {
		store, replayResult, rerr := graphstore.Recover(s.journal, s.projectID)
		if rerr != nil {
			return rerr
		}
		s.graph = store
		result = map[string]interface{}{
			"total_entries": replayResult.TotalEntries,
			"valid_entries": len(replayResult.ValidEntries),
			"corrupt_lines": replayResult.CorruptLines,
			"chain_breaks":  replayResult.ChainBreaks,
			"summary":       replayResult.Summary,
		}
		return nil
	})
	return envelope("recover", result, err)
}

func marshalIndent(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
