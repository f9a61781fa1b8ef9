package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gotn-ai/gotn/internal/model"
)

func node(id string) *model.Node {
	return &model.Node{ID: id, ProjectID: "p1", Summary: id}
}

func hardEdge(src, dst string) *model.Edge {
	return &model.Edge{ID: src + "->" + dst, ProjectID: "p1", Src: src, Dst: dst, Kind: model.EdgeHardRequires}
}

func TestCompose_LinearExtension(t *testing.T) {
	nodes := []*model.Node{node("a"), node("b"), node("c")}
	edges := []*model.Edge{hardEdge("a", "b"), hardEdge("b", "c")}

	plan, err := Compose("p1", nodes, edges)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, plan.Order)
	require.NotEmpty(t, plan.Hash)
}

func TestCompose_TieBreakBySoftWeightThenID(t *testing.T) {
	nodes := []*model.Node{node("z"), node("a"), node("m")}
	// no hard edges: all three are ready simultaneously. The soft edge
	// raises both m and z to weight 0.9, tied ahead of a at weight 0; the
	// m/z tie resolves lexicographically (m < z).
	edges := []*model.Edge{
		{ID: "e1", ProjectID: "p1", Src: "m", Dst: "z", Kind: model.EdgeSoftSemantic, Weight: 0.9},
	}

	plan, err := Compose("p1", nodes, edges)
	require.NoError(t, err)
	require.Equal(t, []string{"m", "z", "a"}, plan.Order)
}

func TestCompose_CycleDetected(t *testing.T) {
	nodes := []*model.Node{node("a"), node("b")}
	edges := []*model.Edge{hardEdge("a", "b"), hardEdge("b", "a")}

	_, err := Compose("p1", nodes, edges)
	require.Error(t, err)
}

func TestCompose_DeterministicAcrossRuns(t *testing.T) {
	nodes := []*model.Node{node("a"), node("b"), node("c"), node("d")}
	edges := []*model.Edge{hardEdge("a", "c"), hardEdge("b", "c"), hardEdge("c", "d")}

	plan1, err := Compose("p1", nodes, edges)
	require.NoError(t, err)
	plan2, err := Compose("p1", nodes, edges)
	require.NoError(t, err)
	require.Equal(t, plan1.Order, plan2.Order)
	require.Equal(t, plan1.Hash, plan2.Hash)
}
