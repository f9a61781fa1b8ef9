// Package model defines the persisted data types of a gotn workspace:
// nodes, edges, the graph they form, journal entries, run records and
// workspace metadata. These types are the JSON wire shapes written under
// .gotn/ and exchanged across the service façade.
package model

import (
	"encoding/json"
	"time"
)

// NodeStatus is the lifecycle state of a Node.
type NodeStatus string

const (
	NodePending   NodeStatus = "pending"
	NodeRunning   NodeStatus = "running"
	NodeSucceeded NodeStatus = "succeeded"
	NodeFailed    NodeStatus = "failed"
	NodeSkipped   NodeStatus = "skipped"
)

// Node is a micro-prompt: one unit of decomposed work.
type Node struct {
	ID        string            `json:"id"`
	ProjectID string            `json:"project_id"`
	Summary   string            `json:"summary"`
	Tags      []string          `json:"tags,omitempty"`
	Requires  []string          `json:"requires,omitempty"`
	Produces  []string          `json:"produces,omitempty"`
	Guards    []string          `json:"guards,omitempty"`
	Status    NodeStatus        `json:"status"`
	Score     float64           `json:"score,omitempty"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// EdgeKind distinguishes hard (structural) edges from soft (advisory) ones.
type EdgeKind string

const (
	EdgeHardRequires EdgeKind = "hard_requires"
	EdgeDerivedFrom  EdgeKind = "derived_from"
	EdgeSoftSemantic EdgeKind = "soft_semantic"
	EdgeSoftOrder    EdgeKind = "soft_order"
)

// Edge connects two Nodes within one project's graph.
type Edge struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Src       string    `json:"src"`
	Dst       string    `json:"dst"`
	Kind      EdgeKind  `json:"kind"`
	Weight    float64   `json:"weight,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsHard reports whether the edge is structural (must be respected by the planner).
func (e Edge) IsHard() bool {
	return e.Kind == EdgeHardRequires || e.Kind == EdgeDerivedFrom
}

// Graph is the in-memory materialization of one project's nodes and edges.
type Graph struct {
	ProjectID string           `json:"project_id"`
	Nodes     map[string]*Node `json:"nodes"`
	Edges     []*Edge          `json:"edges"`
}

// NewGraph returns an empty graph for projectID.
func NewGraph(projectID string) *Graph {
	return &Graph{ProjectID: projectID, Nodes: make(map[string]*Node)}
}

// JournalEntryKind names the kind of mutation a JournalEntry records.
type JournalEntryKind string

const (
	EntryNodeStored   JournalEntryKind = "node_stored"
	EntryEdgeAdded    JournalEntryKind = "edge_added"
	EntryNodeUpdated  JournalEntryKind = "node_updated"
	EntryRunRecorded  JournalEntryKind = "run_recorded"
)

// JournalEntry is one line of the append-only journal.
type JournalEntry struct {
	ID        string           `json:"id"`
	Sequence  uint64           `json:"sequence"`
	Kind      JournalEntryKind `json:"kind"`
	Data      json.RawMessage  `json:"data"`
	Hash      string           `json:"hash"`
	PrevHash  string           `json:"prev_hash"`
	Timestamp time.Time        `json:"timestamp"`
}

// Meta describes workspace-level configuration persisted at .gotn/meta.json.
type Meta struct {
	SchemaVersion string    `json:"schema_version"`
	ProjectID     string    `json:"project_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// RunStatus is the lifecycle state of a Run.
type RunStatus string

const (
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// StepOutcome records the guard/execution result for one node within a run.
type StepOutcome string

const (
	StepProceeded StepOutcome = "proceeded"
	StepSkipped   StepOutcome = "skipped"
	StepFailed    StepOutcome = "failed"
)

// Step is one executed entry of a Run's steps.jsonl.
type Step struct {
	NodeID    string      `json:"node_id"`
	Outcome   StepOutcome `json:"outcome"`
	Reason    string      `json:"reason,omitempty"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   time.Time   `json:"ended_at"`
}

// Run is one execution of a composed plan.
type Run struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	PlanOrder []string  `json:"plan_order"`
	Status    RunStatus `json:"status"`
	Steps     []Step    `json:"steps"`
	CreatedAt time.Time `json:"created_at"`
}
