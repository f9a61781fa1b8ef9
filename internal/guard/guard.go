// Package guard evaluates a node's guard expressions before execution,
// deciding whether the node should proceed, be skipped, or fail. Guards
// are pure: evaluating one must never mutate workspace state.
package guard

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gotn-ai/gotn/internal/model"
)

// Outcome is the result of evaluating one node's guards.
type Outcome string

const (
	Proceed Outcome = "proceed"
	Skip    Outcome = "skip"
	Fail    Outcome = "fail"
)

// Result carries the outcome and, for Skip/Fail, the deciding reason.
type Result struct {
	Outcome Outcome
	Reason  string
}

// Checker evaluates one guard category. It must not have side effects.
type Checker func(ctx context.Context, expr string, n *model.Node) (bool, error)

// Engine evaluates a node's guard list in list order, dispatching each
// guard by its "category:" prefix to a registry of category checkers
// ("port:", "file:", and "cel:"/"wasm:" once registered); a guard with no
// prefix is a literal token, and an unknown category defaults to pass —
// matching the "implementations may extend this set" language this
// registry implements.
type Engine struct {
	checkers map[string]Checker
	timeout  time.Duration
}

// New returns an Engine with the built-in port/file checkers registered.
// CEL and WASM checkers are registered separately via RegisterCEL/RegisterWASM
// since they carry their own setup cost (compiling an expression, loading
// a module).
func New() *Engine {
	e := &Engine{
		checkers: make(map[string]Checker),
		timeout:  100 * time.Millisecond,
	}
	e.checkers["port"] = checkPort
	e.checkers["file"] = checkFile
	return e
}

// Register adds or replaces the checker for category.
func (e *Engine) Register(category string, c Checker) {
	e.checkers[category] = c
}

// Evaluate runs every guard on n in order, short-circuiting on the first
// failing guard. An expression with no recognized "category:" prefix is
// treated as a literal boolean token: "true" passes, "false" fails,
// anything else is an unknown category and passes by default.
func (e *Engine) Evaluate(ctx context.Context, n *model.Node) Result {
	for _, g := range n.Guards {
		ctx, cancel := context.WithTimeout(ctx, e.timeout)
		ok, err := e.evaluateOne(ctx, g, n)
		cancel()
		if err != nil {
			return Result{Outcome: Fail, Reason: fmt.Sprintf("guard %q errored: %v", g, err)}
		}
		if !ok {
			return Result{Outcome: Skip, Reason: fmt.Sprintf("guard %q did not pass", g)}
		}
	}
	return Result{Outcome: Proceed}
}

func (e *Engine) evaluateOne(ctx context.Context, expr string, n *model.Node) (bool, error) {
	category, rest, hasCategory := strings.Cut(expr, ":")
	if !hasCategory {
		switch expr {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return true, nil // unknown literal, default-pass
		}
	}
	checker, ok := e.checkers[category]
	if !ok {
		return true, nil // unknown category, default-pass
	}
	return checker(ctx, rest, n)
}

// checkPort reports whether a TCP listener can bind the given port,
// i.e. the port is free.
func checkPort(ctx context.Context, expr string, _ *model.Node) (bool, error) {
	port, err := strconv.Atoi(strings.TrimSpace(expr))
	if err != nil {
		return false, err
	}
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false, nil
	}
	ln.Close()
	return true, nil
}

// checkFile reports whether the given path exists.
func checkFile(ctx context.Context, expr string, _ *model.Node) (bool, error) {
	_, err := os.Stat(strings.TrimSpace(expr))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
