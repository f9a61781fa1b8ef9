// Package planner composes a linear execution order from a graph's hard
// edges via Kahn's algorithm, using soft edges only to break ties among
// nodes that become ready simultaneously.
package planner

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/gotn-ai/gotn/internal/canonical"
	"github.com/gotn-ai/gotn/internal/gotnerr"
	"github.com/gotn-ai/gotn/internal/model"
)

// Plan is a composed, linear execution order.
type Plan struct {
	ProjectID string   `json:"project_id"`
	Order     []string `json:"order"`
	Hash      string   `json:"hash"`
}

// readyItem is one entry of the ready-queue heap: nodes with no remaining
// unsatisfied hard dependencies, ordered by descending total soft weight
// then ascending id, mirroring scheduler.go's
// (ScheduledAt, Priority, SortKey, SequenceNum) tie-break chain adapted to
// this domain's two keys.
type readyItem struct {
	id         string
	softWeight float64
}

type readyHeap []readyItem

func (h readyHeap) Len() int { return len(h) }
func (h readyHeap) Less(i, j int) bool {
	if h[i].softWeight != h[j].softWeight {
		return h[i].softWeight > h[j].softWeight
	}
	return h[i].id < h[j].id
}
func (h readyHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *readyHeap) Push(x interface{}) { *h = append(*h, x.(readyItem)) }
func (h *readyHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Compose runs Kahn's algorithm over nodes using only hard edges for
// dependency ordering and soft edge weights (soft_semantic and soft_order,
// each edge's weight added to both its endpoints) to break ties among
// simultaneously-ready nodes. It returns a CycleDetected
// error naming the residual (unresolved) node ids, sorted and hashed for
// reproducible bug reports, if the hard-edge subgraph is not a DAG.
func Compose(projectID string, nodes []*model.Node, edges []*model.Edge) (*Plan, error) {
	indegree := make(map[string]int, len(nodes))
	adjacency := make(map[string][]string)
	softWeight := make(map[string]float64, len(nodes))

	for _, n := range nodes {
		indegree[n.ID] = 0
	}
	for _, e := range edges {
		if e.IsHard() {
			indegree[e.Dst]++
			adjacency[e.Src] = append(adjacency[e.Src], e.Dst)
		} else if e.Kind == model.EdgeSoftSemantic || e.Kind == model.EdgeSoftOrder {
			softWeight[e.Src] += e.Weight
			softWeight[e.Dst] += e.Weight
		}
	}

	h := &readyHeap{}
	heap.Init(h)
	for id, deg := range indegree {
		if deg == 0 {
			heap.Push(h, readyItem{id: id, softWeight: softWeight[id]})
		}
	}

	var order []string
	visited := make(map[string]bool, len(nodes))
	for h.Len() > 0 {
		item := heap.Pop(h).(readyItem)
		order = append(order, item.id)
		visited[item.id] = true

		for _, next := range adjacency[item.id] {
			indegree[next]--
			if indegree[next] == 0 {
				heap.Push(h, readyItem{id: next, softWeight: softWeight[next]})
			}
		}
	}

	if len(order) != len(nodes) {
		var residual []string
		for id := range indegree {
			if !visited[id] {
				residual = append(residual, id)
			}
		}
		sort.Strings(residual)
		hash, _ := canonical.Hash(residual)
		return nil, gotnerr.New(gotnerr.KindCycleDetected,
			fmt.Sprintf("cycle among %d node(s), residual_hash=%s, nodes=%v", len(residual), hash, residual))
	}

	plan := &Plan{ProjectID: projectID, Order: order}
	hash, err := canonical.Hash(plan.Order)
	if err != nil {
		return nil, gotnerr.Wrap(gotnerr.KindInternal, "hash plan order", err)
	}
	plan.Hash = hash
	return plan, nil
}
