package planner

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/gotn-ai/gotn/internal/model"
)

// TestLinearExtensionProperty checks that for a chain of hard edges
// n00 -> n01 -> ... of random length (2 to 20 nodes), Compose's output
// always respects every hard edge's ordering (src appears before dst), the
// linear extension property the plan composer's invariants require.
func TestLinearExtensionProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("compose respects hard edge order", prop.ForAll(
		func(n int) bool {
			if n < 2 {
				return true
			}
			nodes := make([]*model.Node, n)
			for i := 0; i < n; i++ {
				nodes[i] = node(fmt.Sprintf("n%02d", i))
			}
			var edges []*model.Edge
			for i := 0; i < n-1; i++ {
				edges = append(edges, hardEdge(fmt.Sprintf("n%02d", i), fmt.Sprintf("n%02d", i+1)))
			}

			plan, err := Compose("p1", nodes, edges)
			if err != nil {
				return false
			}
			pos := make(map[string]int, len(plan.Order))
			for i, id := range plan.Order {
				pos[id] = i
			}
			for i := 0; i < n-1; i++ {
				if pos[fmt.Sprintf("n%02d", i)] >= pos[fmt.Sprintf("n%02d", i+1)] {
					return false
				}
			}
			return true
		},
		gen.IntRange(2, 20),
	))

	properties.TestingRun(t)
}
