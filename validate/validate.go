// Package validate checks codec output against an actual WebAssembly
// compiler. It is a cheap smoke test: a module that survives parsing and
// re-encoding here must still compile.
package validate

import (
	"context"
	"fmt"

	"github.com/wippyai/wasm-ast/component"
	"github.com/wippyai/wasm-ast/core"
)

// CoreModule compiles the given core module bytes and reports any
// compilation error.
func CoreModule(ctx context.Context, data []byte) error {
	return core.Validate(ctx, data)
}

// Component re-encodes every core module nested in the component tree and
// compiles each one. Modules parsed with a customization that strips
// function bodies cannot be validated and fail at the encoding step.
func Component(ctx context.Context, c *component.Component) error {
	for i, module := range c.GetAllModules() {
		data, err := core.Encode(module.Module)
		if err != nil {
			return fmt.Errorf("encode module %d: %w", i, err)
		}
		if err := core.Validate(ctx, data); err != nil {
			return fmt.Errorf("module %d: %w", i, err)
		}
	}
	return nil
}
