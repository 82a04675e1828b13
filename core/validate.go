package core

import (
	"context"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/wasm-ast/errors"
)

// Validate compiles an encoded module with the wazero runtime, catching
// structural and type errors the encoder cannot detect on its own.
func Validate(ctx context.Context, data []byte) error {
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer rt.Close(ctx)

	if _, err := rt.CompileModule(ctx, data); err != nil {
		return errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "module failed validation")
	}
	return nil
}
