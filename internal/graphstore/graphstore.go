// Package graphstore holds the in-memory Graph snapshot for a workspace
// and rebuilds it from the journal on recovery. Every mutating method
// appends to the journal first and only updates the snapshot after the
// append succeeds, so a crash between the two always leaves the journal
// ahead of (or equal to) the snapshot, never behind it.
package graphstore

import (
	"encoding/json"
	"sync"

	"github.com/gotn-ai/gotn/internal/gotnerr"
	"github.com/gotn-ai/gotn/internal/journal"
	"github.com/gotn-ai/gotn/internal/model"
)

// Store is the durable, journal-backed graph for one project.
type Store struct {
	mu      sync.RWMutex
	graph   *model.Graph
	journal *journal.Journal
}

// New wraps an existing journal with an empty graph for projectID; it does
// not replay the journal (Recover does).
func New(j *journal.Journal, projectID string) *Store {
	return &Store{
		graph:   model.NewGraph(projectID),
		journal: j,
	}
}

// PutNode appends a node_stored entry and updates the snapshot.
func (s *Store) PutNode(n *model.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.journal.Append(model.EntryNodeStored, n); err != nil {
		return err
	}
	cp := *n
	s.graph.Nodes[n.ID] = &cp
	return nil
}

// PutEdge appends an edge_added entry and updates the snapshot.
func (s *Store) PutEdge(e *model.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.journal.Append(model.EntryEdgeAdded, e); err != nil {
		return err
	}
	cp := *e
	s.graph.Edges = append(s.graph.Edges, &cp)
	return nil
}

// GetNode returns a copy of the node with id, or a gotnerr.KindNotFound
// error.
func (s *Store) GetNode(id string) (*model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.graph.Nodes[id]
	if !ok {
		return nil, gotnerr.New(gotnerr.KindNotFound, "node "+id+" not found")
	}
	cp := *n
	return &cp, nil
}

// Snapshot returns a deep-ish copy of the current graph (node/edge structs
// are shallow-copied pointers' values, never the live internal ones).
func (s *Store) Snapshot() *model.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := model.NewGraph(s.graph.ProjectID)
	for id, n := range s.graph.Nodes {
		cp := *n
		out.Nodes[id] = &cp
	}
	for _, e := range s.graph.Edges {
		cp := *e
		out.Edges = append(out.Edges, &cp)
	}
	return out
}

// Edges returns all edges, of every kind.
func (s *Store) Edges() []*model.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Edge, len(s.graph.Edges))
	copy(out, s.graph.Edges)
	return out
}

// Recover replays the journal from scratch and replaces the in-memory
// snapshot, the way replay.Replay verifies a receipt chain before trusting
// it. Corrupt or out-of-chain lines are reported but do not abort recovery.
func Recover(j *journal.Journal, projectID string) (*Store, *journal.ReplayResult, error) {
	result, err := j.Replay()
	if err != nil {
		return nil, nil, err
	}

	g := model.NewGraph(projectID)
	for _, entry := range result.ValidEntries {
		switch entry.Kind {
		case model.EntryNodeStored, model.EntryNodeUpdated:
			var n model.Node
			if err := json.Unmarshal(entry.Data, &n); err != nil {
				continue
			}
			g.Nodes[n.ID] = &n
		case model.EntryEdgeAdded:
			var e model.Edge
			if err := json.Unmarshal(entry.Data, &e); err != nil {
				continue
			}
			g.Edges = append(g.Edges, &e)
		}
	}

	return &Store{graph: g, journal: j}, result, nil
}

// VerifyIntegrity checks that every edge's endpoints resolve to nodes
// present in the snapshot, the way proofgraph.ValidateChain walks parent
// links to confirm a commit DAG is fully connected — here applied to
// content edges rather than hash-chained commits.
func (s *Store) VerifyIntegrity() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var dangling []string
	for _, e := range s.graph.Edges {
		if _, ok := s.graph.Nodes[e.Src]; !ok {
			dangling = append(dangling, e.ID+":src:"+e.Src)
		}
		if _, ok := s.graph.Nodes[e.Dst]; !ok {
			dangling = append(dangling, e.ID+":dst:"+e.Dst)
		}
	}
	return dangling
}
