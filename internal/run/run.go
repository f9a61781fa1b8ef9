// Package run records plan executions under runs/run-<timestamp>/: the
// composed plan (plan.json), a step-by-step log of guard/execution
// outcomes (steps.jsonl), and the final run record (run.json). It writes
// no patch files.
package run

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/gotn-ai/gotn/internal/atomicfile"
	"github.com/gotn-ai/gotn/internal/gotnerr"
	"github.com/gotn-ai/gotn/internal/guard"
	"github.com/gotn-ai/gotn/internal/model"
	"github.com/gotn-ai/gotn/internal/planner"
)

// NodeExecutor performs the actual work for one node once its guards
// proceed. Out of scope for this module: spec.md excludes running user
// code, so a production Executor typically just marks the node terminal
// after recording any caller-supplied artifacts.
type NodeExecutor func(node *model.Node) (artifacts map[string]string, err error)

// Recorder manages one run directory's lifecycle.
type Recorder struct {
	baseDir string
	guards  *guard.Engine
}

// New returns a Recorder rooted at baseDir (typically .gotn/runs).
func New(baseDir string, guards *guard.Engine) *Recorder {
	return &Recorder{baseDir: baseDir, guards: guards}
}

// Start creates a new run directory and writes plan.json.
func (r *Recorder) Start(plan *planner.Plan) (*model.Run, string, error) {
	id := fmt.Sprintf("run-%s", time.Now().UTC().Format("20060102T150405.000000000Z"))
	dir := filepath.Join(r.baseDir, id)

	run := &model.Run{
		ID:        id,
		ProjectID: plan.ProjectID,
		PlanOrder: plan.Order,
		Status:    model.RunInProgress,
		CreatedAt: time.Now().UTC(),
	}

	planData, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, "", gotnerr.Wrap(gotnerr.KindInternal, "marshal plan", err)
	}
	if err := atomicfile.WriteFile(filepath.Join(dir, "plan.json"), planData, 0o644); err != nil {
		return nil, "", gotnerr.Wrap(gotnerr.KindInternal, "write plan.json", err)
	}
	return run, dir, nil
}

// ExecuteNode evaluates node's guards and, if they proceed, invokes exec.
// The node's execution is short-circuited (treated as already-succeeded,
// without calling exec again) when a matching artifact was already
// recorded for every produced key — the artifact short-circuit idempotency
// spec.md requires so re-running a plan doesn't redo completed work.
func (r *Recorder) ExecuteNode(runDir string, node *model.Node, exec NodeExecutor) (model.Step, error) {
	step := model.Step{NodeID: node.ID, StartedAt: time.Now().UTC()}

	if allArtifactsPresent(node) {
		step.Outcome = model.StepProceeded
		step.Reason = "short-circuited: artifacts already present"
		step.EndedAt = time.Now().UTC()
		return step, r.appendStep(runDir, step)
	}

	res := r.guards.Evaluate(context.Background(), node)
	switch res.Outcome {
	case guard.Skip:
		step.Outcome = model.StepSkipped
		step.Reason = res.Reason
		step.EndedAt = time.Now().UTC()
		return step, r.appendStep(runDir, step)
	case guard.Fail:
		step.Outcome = model.StepFailed
		step.Reason = res.Reason
		step.EndedAt = time.Now().UTC()
		return step, r.appendStep(runDir, step)
	}

	artifacts, err := exec(node)
	step.EndedAt = time.Now().UTC()
	if err != nil {
		step.Outcome = model.StepFailed
		step.Reason = err.Error()
		return step, r.appendStep(runDir, step)
	}
	node.Artifacts = artifacts
	step.Outcome = model.StepProceeded
	return step, r.appendStep(runDir, step)
}

func allArtifactsPresent(n *model.Node) bool {
	if len(n.Produces) == 0 {
		return false
	}
	for _, key := range n.Produces {
		if _, ok := n.Artifacts[key]; !ok {
			return false
		}
	}
	return true
}

func (r *Recorder) appendStep(runDir string, step model.Step) error {
	line, err := json.Marshal(step)
	if err != nil {
		return gotnerr.Wrap(gotnerr.KindInternal, "marshal step", err)
	}
	path := filepath.Join(runDir, "steps.jsonl")
	if err := atomicfile.AppendLine(path, line); err != nil {
		return gotnerr.Wrap(gotnerr.KindInternal, "append step", err)
	}
	return nil
}

// Finish writes the run's final status.
func (r *Recorder) Finish(runDir string, run *model.Run, steps []model.Step) error {
	run.Steps = steps
	run.Status = model.RunCompleted
	for _, s := range steps {
		if s.Outcome == model.StepFailed {
			run.Status = model.RunFailed
			break
		}
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return gotnerr.Wrap(gotnerr.KindInternal, "marshal run", err)
	}
	return atomicfile.WriteFile(filepath.Join(runDir, "run.json"), data, 0o644)
}

// uuidID returns a fresh random identifier. Nothing in this package calls
// it; Start names runs by timestamp.
func uuidID() string { return uuid.New().String() }
