package action

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// runScript executes user-supplied code inside a goja VM. The VM sees
// exactly one bound value, input, and nothing of the host process. The
// code runs wrapped in a function so plain return statements work, and
// the VM is interrupted once the timeout elapses. Script failures are
// permanent: a logic error does not get better on retry.
func runScript(ctx context.Context, code string, data map[string]any, timeout time.Duration) (map[string]any, error) {
	vm := goja.New()
	if err := vm.Set("input", data); err != nil {
		return nil, Permanent(err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}
	timer := time.AfterFunc(timeout, func() {
		vm.Interrupt("script timed out")
	})
	defer timer.Stop()

	wrapped := fmt.Sprintf("(function(input) {\n%s\n})(input)", code)
	value, err := vm.RunString(wrapped)
	if err != nil {
		return nil, wrapPermanent("script error: %w", err)
	}
	return exportScriptResult(value)
}

func exportScriptResult(value goja.Value) (map[string]any, error) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return map[string]any{}, nil
	}
	exported := value.Export()
	if obj, ok := exported.(map[string]any); ok {
		// round-trip through json so goja-specific number types
		// normalize to the same shapes the rest of the engine sees
		raw, err := json.Marshal(obj)
		if err != nil {
			return nil, Permanent(err)
		}
		var output map[string]any
		if err := json.Unmarshal(raw, &output); err != nil {
			return nil, Permanent(err)
		}
		return output, nil
	}
	return map[string]any{"result": exported}, nil
}
