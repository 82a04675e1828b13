package component

import (
	"bytes"
	"testing"

	wasmast "github.com/wippyai/wasm-ast"
	"github.com/wippyai/wasm-ast/core"
)

func roundTrip(t *testing.T, input []byte) {
	t.Helper()
	component, err := Parse(input, wasmast.Full)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	output, err := Encode(component)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !bytes.Equal(input, output) {
		t.Errorf("round trip mismatch:\n in: %x\nout: %x", input, output)
	}
}

func TestRoundTripGreeter(t *testing.T) {
	roundTrip(t, greeterComponent())
}

func TestRoundTripNestedComponent(t *testing.T) {
	roundTrip(t, concat(
		componentPreamble,
		section(sectionIDComponent, greeterComponent()),
		section(sectionIDModule, emptyCoreModule),
	))
}

func TestRoundTripTypesAndInstances(t *testing.T) {
	roundTrip(t, concat(
		componentPreamble,
		section(sectionIDType, concat(
			[]byte{0x04},
			[]byte{0x72, 0x01, 0x02, 'i', 'd', 0x79},
			[]byte{0x6e, 0x02, 0x01, 'r', 0x01, 'w'},
			[]byte{0x6b, 0x00},
			[]byte{0x3f, 0x7f, 0x01, 0x00},
		)),
		section(sectionIDImport, []byte{0x01, 0x00, 0x04, 'h', 'o', 's', 't', 0x05, 0x00}),
		section(sectionIDInstance, concat(
			[]byte{0x02},
			// instantiate component 0 with { "host": instance 0 }
			[]byte{0x00, 0x00, 0x01, 0x04, 'h', 'o', 's', 't', 0x05, 0x00},
			// inline exports { "t": type 0 }
			[]byte{0x01, 0x01, 0x00, 0x01, 't', 0x03, 0x00},
		)),
		section(sectionIDAlias, concat(
			[]byte{0x02},
			// type export "t" of instance 1
			[]byte{0x03, 0x00, 0x01, 0x01, 't'},
			// outer component alias
			[]byte{0x04, 0x02, 0x01, 0x00},
		)),
	))
}

func TestRoundTripCoreTypeAndStart(t *testing.T) {
	roundTrip(t, concat(
		componentPreamble,
		section(sectionIDCoreType, concat(
			[]byte{0x02},
			// (func (param i32) (result i32))
			[]byte{0x60, 0x01, 0x7f, 0x01, 0x7f},
			// module type importing and exporting a memory
			[]byte{0x50, 0x02,
				0x00, 0x03, 'e', 'n', 'v', 0x03, 'm', 'e', 'm', 0x02, 0x00, 0x01,
				0x03, 0x03, 'm', 'e', 'm', 0x02, 0x00, 0x01,
			},
		)),
		section(sectionIDStart, []byte{0x00, 0x01, 0x02, 0x00}),
	))
}

func TestRoundTripCanonOptions(t *testing.T) {
	roundTrip(t, concat(
		componentPreamble,
		section(sectionIDCanon, concat(
			[]byte{0x03},
			// lift with memory, realloc and post-return options
			[]byte{0x00, 0x00, 0x00, 0x03, 0x03, 0x00, 0x04, 0x01, 0x05, 0x02, 0x00},
			// lower with utf8
			[]byte{0x01, 0x00, 0x01, 0x01, 0x00},
			// resource.drop
			[]byte{0x03, 0x00},
		)),
	))
}

func TestRoundTripExportWithDescriptor(t *testing.T) {
	roundTrip(t, concat(
		componentPreamble,
		section(sectionIDExport, concat(
			[]byte{0x02},
			// "f" as func 0 with explicit func type descriptor
			[]byte{0x00, 0x01, 'f', 0x01, 0x00, 0x01, 0x01, 0x00},
			// "v" as value of type string, no descriptor
			[]byte{0x00, 0x01, 'v', 0x02, 0x00, 0x00},
		)),
	))
}

func TestEncodePreservesGrouping(t *testing.T) {
	// Two separate type sections must stay two sections.
	component, err := Parse(concat(
		componentPreamble,
		section(sectionIDType, []byte{0x01, 0x6d, 0x01, 0x02, 'o', 'n'}),
		section(sectionIDCustom, concat([]byte{0x03}, []byte("gap"))),
		section(sectionIDType, []byte{0x01, 0x6b, 0x73}),
	), wasmast.Full)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	groups := component.IntoGrouped()
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	output, err := Encode(component)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	roundTrip(t, output)
}

func TestEncodeRebuiltComponent(t *testing.T) {
	sections := wasmast.NewSections[ComponentIndexSpace, ComponentSectionType, ComponentSection]()
	sections.Add(&FuncType{Result: FuncResult{Unnamed: PrimBool}})
	sections.Add(&CanonLift{FuncIdx: 0, FunctionType: 0})
	sections.Add(&Export{Name: "check", Kind: KindFunc, Idx: 0})
	component := NewComponent(sections, nil)

	encoded, err := Encode(component)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	parsed, err := Parse(encoded, nil)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if len(parsed.Exports()) != 1 || parsed.Exports()[0].Name != "check" {
		t.Errorf("unexpected exports %#v", parsed.Exports())
	}
	if len(parsed.Canons()) != 1 {
		t.Errorf("expected canon to survive, got %d", len(parsed.Canons()))
	}
}

func TestEncodeRejectsStrippedNestedModule(t *testing.T) {
	// Give the module a body so stripping has something to drop.
	full := concat(
		componentPreamble,
		section(sectionIDModule, concat(
			emptyCoreModule,
			section(0x01, []byte{0x01, 0x60, 0x00, 0x00}),
			section(0x03, []byte{0x01, 0x00}),
			section(0x0a, []byte{0x01, 0x02, 0x00, 0x0b}),
		)),
	)
	component, err := Parse(full, wasmast.Minimal)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if _, err := Encode(component); err == nil {
		t.Fatal("expected encode of stripped component to fail")
	}
}

func TestRoundTripSurvivesModuleEdit(t *testing.T) {
	component, err := Parse(concat(
		componentPreamble,
		section(sectionIDModule, emptyCoreModule),
	), wasmast.Full)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	module, ok := component.GetModule(0)
	if !ok {
		t.Fatal("expected module 0")
	}
	module.(*Module).Sections().Add(&core.Mem{Type: core.MemType{Limits: core.Limits{Min: 1}}})

	encoded, err := Encode(component)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	parsed, err := Parse(encoded, nil)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	mems := parsed.GetAllModules()[0].Mems()
	if len(mems) != 1 || mems[0].Type.Limits.Min != 1 {
		t.Errorf("expected edited memory to survive, got %#v", mems)
	}
}
