package guard

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"

	"github.com/gotn-ai/gotn/internal/model"
)

// RegisterWASM adds the "wasm:" guard category: expr names a path to a
// WASM module exporting a zero-argument "guard" function returning i32
// (0 = fail, nonzero = pass), run under wazero's default zero-syscall
// sandbox — the decision function has no access to the filesystem or
// network, matching runtime/sandbox/wasi_sandbox.go's module isolation.
// Modules are compiled once per path and reused across evaluations.
func (e *Engine) RegisterWASM() {
	rt := wazero.NewRuntime(context.Background())
	var mu sync.Mutex
	compiled := make(map[string]wazero.CompiledModule)

	e.Register("wasm", func(ctx context.Context, expr string, n *model.Node) (bool, error) {
		mu.Lock()
		mod, ok := compiled[expr]
		if !ok {
			data, err := os.ReadFile(expr)
			if err != nil {
				mu.Unlock()
				return false, fmt.Errorf("read wasm guard module: %w", err)
			}
			m, err := rt.CompileModule(ctx, data)
			if err != nil {
				mu.Unlock()
				return false, fmt.Errorf("compile wasm guard module: %w", err)
			}
			compiled[expr] = m
			mod = m
		}
		mu.Unlock()

		instance, err := rt.InstantiateModule(ctx, mod, wazero.NewModuleConfig())
		if err != nil {
			return false, fmt.Errorf("instantiate wasm guard module: %w", err)
		}
		defer instance.Close(ctx)

		guardFn := instance.ExportedFunction("guard")
		if guardFn == nil {
			return false, fmt.Errorf("wasm guard module exports no guard()")
		}
		results, err := guardFn.Call(ctx)
		if err != nil {
			return false, fmt.Errorf("call wasm guard: %w", err)
		}
		if len(results) == 0 {
			return false, fmt.Errorf("wasm guard returned no result")
		}
		return int32(results[0]) != 0, nil
	})
}
