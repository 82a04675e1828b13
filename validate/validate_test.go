package validate

import (
	"context"
	"testing"

	wasmast "github.com/wippyai/wasm-ast"
	"github.com/wippyai/wasm-ast/component"
)

// A module with a single exported nullary function returning i32 42.
var addModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 'r', 'u', 'n', 0x00, 0x00,
	0x0a, 0x06, 0x01, 0x04, 0x00, 0x41, 0x2a, 0x0b,
}

func TestCoreModule(t *testing.T) {
	if err := CoreModule(context.Background(), addModule); err != nil {
		t.Fatalf("validation failed: %v", err)
	}
}

func TestCoreModuleRejectsGarbage(t *testing.T) {
	if err := CoreModule(context.Background(), []byte{0x00, 0x61, 0x73, 0x6d}); err == nil {
		t.Fatal("expected compilation failure")
	}
}

func TestComponent(t *testing.T) {
	preamble := []byte{0x00, 0x61, 0x73, 0x6d, 0x0d, 0x00, 0x01, 0x00}
	payload := append([]byte{0x01, byte(len(addModule))}, addModule...)
	data := append(append([]byte{}, preamble...), payload...)

	c, err := component.Parse(data, wasmast.Full)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if err := Component(context.Background(), c); err != nil {
		t.Fatalf("validation failed: %v", err)
	}
}

func TestComponentRejectsStrippedModules(t *testing.T) {
	preamble := []byte{0x00, 0x61, 0x73, 0x6d, 0x0d, 0x00, 0x01, 0x00}
	payload := append([]byte{0x01, byte(len(addModule))}, addModule...)
	data := append(append([]byte{}, preamble...), payload...)

	c, err := component.Parse(data, wasmast.Minimal)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if err := Component(context.Background(), c); err == nil {
		t.Fatal("expected encoding failure for stripped bodies")
	}
}
