package edgeengine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gotn-ai/gotn/internal/model"
)

func TestInferHard_ProducerToConsumer(t *testing.T) {
	producer := &model.Node{ID: "producer", ProjectID: "p1", Produces: []string{"schema.json"}}
	consumer := &model.Node{ID: "consumer", ProjectID: "p1", Requires: []string{"schema.json"}}

	edges := InferHard([]*model.Node{producer, consumer})

	require.Len(t, edges, 1)
	require.Equal(t, "producer", edges[0].Src)
	require.Equal(t, "consumer", edges[0].Dst)
	require.Equal(t, model.EdgeHardRequires, edges[0].Kind)
}

func TestInferHard_NoSelfEdge(t *testing.T) {
	n := &model.Node{ID: "n1", ProjectID: "p1", Requires: []string{"x"}, Produces: []string{"x"}}
	edges := InferHard([]*model.Node{n})
	require.Empty(t, edges)
}

func TestInferHard_UnsatisfiedRequirementYieldsNoEdge(t *testing.T) {
	n := &model.Node{ID: "n1", ProjectID: "p1", Requires: []string{"missing"}}
	edges := InferHard([]*model.Node{n})
	require.Empty(t, edges)
}
