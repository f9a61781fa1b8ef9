package guard

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/gotn-ai/gotn/internal/model"
)

// RegisterCEL adds the "cel:" guard category: expr is compiled as a CEL
// boolean expression evaluated against the node's tags, requires,
// produces, status and score (artifacts are not exposed to the
// expression), following the CEL-over-policy-objects pattern of
// governance/policy_evaluator_cel.go. Compilation is cached per unique
// expression so repeated guard evaluations on the same expression don't
// re-parse it.
func (e *Engine) RegisterCEL() {
	env, err := cel.NewEnv(
		cel.Variable("tags", cel.ListType(cel.StringType)),
		cel.Variable("requires", cel.ListType(cel.StringType)),
		cel.Variable("produces", cel.ListType(cel.StringType)),
		cel.Variable("status", cel.StringType),
		cel.Variable("score", cel.DoubleType),
	)
	if err != nil {
		return
	}

	cache := make(map[string]cel.Program)

	e.Register("cel", func(ctx context.Context, expr string, n *model.Node) (bool, error) {
		prg, ok := cache[expr]
		if !ok {
			ast, iss := env.Compile(expr)
			if iss.Err() != nil {
				return false, fmt.Errorf("cel compile: %w", iss.Err())
			}
			p, err := env.Program(ast)
			if err != nil {
				return false, fmt.Errorf("cel program: %w", err)
			}
			cache[expr] = p
			prg = p
		}

		out, _, err := prg.Eval(map[string]interface{}{
			"tags":     n.Tags,
			"requires": n.Requires,
			"produces": n.Produces,
			"status":   string(n.Status),
			"score":    n.Score,
		})
		if err != nil {
			return false, fmt.Errorf("cel eval: %w", err)
		}
		b, ok := out.Value().(bool)
		if !ok {
			return false, fmt.Errorf("cel expression did not evaluate to bool")
		}
		return b, nil
	})
}
