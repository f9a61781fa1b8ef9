package guard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gotn-ai/gotn/internal/model"
)

func TestEvaluate_NoGuardsProceeds(t *testing.T) {
	e := New()
	res := e.Evaluate(context.Background(), &model.Node{ID: "n1"})
	require.Equal(t, Proceed, res.Outcome)
}

func TestEvaluate_LiteralFalseSkips(t *testing.T) {
	e := New()
	res := e.Evaluate(context.Background(), &model.Node{ID: "n1", Guards: []string{"false"}})
	require.Equal(t, Skip, res.Outcome)
}

func TestEvaluate_LiteralTrueProceeds(t *testing.T) {
	e := New()
	res := e.Evaluate(context.Background(), &model.Node{ID: "n1", Guards: []string{"true"}})
	require.Equal(t, Proceed, res.Outcome)
}

func TestEvaluate_UnknownCategoryDefaultsPass(t *testing.T) {
	e := New()
	res := e.Evaluate(context.Background(), &model.Node{ID: "n1", Guards: []string{"mystery:xyz"}})
	require.Equal(t, Proceed, res.Outcome)
}

func TestEvaluate_FileGuardMissingFileSkips(t *testing.T) {
	e := New()
	res := e.Evaluate(context.Background(), &model.Node{ID: "n1", Guards: []string{"file:/nonexistent/path/for/gotn-test"}})
	require.Equal(t, Skip, res.Outcome)
}

func TestEvaluate_CELGuardEvaluatesTags(t *testing.T) {
	e := New()
	e.RegisterCEL()
	n := &model.Node{ID: "n1", Tags: []string{"prod"}, Guards: []string{`cel:"prod" in tags`}}
	res := e.Evaluate(context.Background(), n)
	require.Equal(t, Proceed, res.Outcome)

	n2 := &model.Node{ID: "n2", Tags: []string{"staging"}, Guards: []string{`cel:"prod" in tags`}}
	res2 := e.Evaluate(context.Background(), n2)
	require.Equal(t, Skip, res2.Outcome)
}

func TestEvaluate_ShortCircuitsOnFirstFailure(t *testing.T) {
	e := New()
	n := &model.Node{ID: "n1", Guards: []string{"false", "true"}}
	res := e.Evaluate(context.Background(), n)
	require.Equal(t, Skip, res.Outcome)
}
