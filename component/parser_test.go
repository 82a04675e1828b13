package component

import (
	"strings"
	"testing"

	wasmast "github.com/wippyai/wasm-ast"
	"github.com/wippyai/wasm-ast/core"
)

var componentPreamble = []byte{0x00, 0x61, 0x73, 0x6d, 0x0d, 0x00, 0x01, 0x00}

var emptyCoreModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// section frames a payload as a binary section. Payloads in tests stay under
// 128 bytes so the size fits a single LEB byte.
func section(id byte, payload []byte) []byte {
	if len(payload) >= 128 {
		panic("test payload too large for single-byte size")
	}
	out := []byte{id, byte(len(payload))}
	return append(out, payload...)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// greeterComponent wraps an empty core module: it instantiates it, aliases
// a "run" function out of the instance, lifts it and exports it.
func greeterComponent() []byte {
	return concat(
		componentPreamble,
		section(sectionIDModule, emptyCoreModule),
		section(sectionIDCoreInstance, []byte{0x01, 0x00, 0x00, 0x00}),
		section(sectionIDAlias, []byte{0x01, 0x00, 0x00, 0x01, 0x00, 0x03, 'r', 'u', 'n'}),
		section(sectionIDType, []byte{0x01, 0x40, 0x00, 0x00, 0x73}),
		section(sectionIDCanon, []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00}),
		section(sectionIDExport, []byte{0x01, 0x00, 0x03, 'r', 'u', 'n', 0x01, 0x00, 0x00}),
	)
}

func TestParseGreeterComponent(t *testing.T) {
	component, err := Parse(greeterComponent(), wasmast.Full)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if len(component.Modules()) != 1 {
		t.Fatalf("expected 1 module, got %d", len(component.Modules()))
	}

	instances := component.CoreInstances()
	if len(instances) != 1 {
		t.Fatalf("expected 1 core instance, got %d", len(instances))
	}
	instantiate, ok := instances[0].(*CoreInstantiate)
	if !ok || instantiate.ModuleIdx != 0 || len(instantiate.Args) != 0 {
		t.Errorf("unexpected core instance %#v", instances[0])
	}

	aliases := component.Aliases()
	if len(aliases) != 1 {
		t.Fatalf("expected 1 alias, got %d", len(aliases))
	}
	alias, ok := aliases[0].(*AliasCoreInstanceExport)
	if !ok || alias.Kind != core.ExportKindFunc || alias.InstanceIdx != 0 || alias.Name != "run" {
		t.Errorf("unexpected alias %#v", aliases[0])
	}

	types := component.ComponentTypes()
	if len(types) != 1 {
		t.Fatalf("expected 1 type, got %d", len(types))
	}
	funcType, ok := types[0].(*FuncType)
	if !ok || len(funcType.Params) != 0 || funcType.Result.Unnamed != PrimStr {
		t.Errorf("unexpected function type %#v", types[0])
	}

	canons := component.Canons()
	if len(canons) != 1 {
		t.Fatalf("expected 1 canon, got %d", len(canons))
	}
	lift, ok := canons[0].(*CanonLift)
	if !ok || lift.FuncIdx != 0 || lift.FunctionType != 0 || len(lift.Opts) != 0 {
		t.Errorf("unexpected canon %#v", canons[0])
	}

	exports := component.Exports()
	if len(exports) != 1 {
		t.Fatalf("expected 1 export, got %d", len(exports))
	}
	if exports[0].Name != "run" || exports[0].Kind != KindFunc || exports[0].Idx != 0 {
		t.Errorf("unexpected export %#v", exports[0])
	}
}

func TestParseRejectsBadPreamble(t *testing.T) {
	if _, err := Parse([]byte{0x00, 0x61, 0x73, 0x00, 0x0d, 0x00, 0x01, 0x00}, nil); err == nil {
		t.Fatal("expected magic error")
	}
	// A core module preamble is not a component preamble.
	if _, err := Parse(emptyCoreModule, nil); err == nil {
		t.Fatal("expected version error")
	}
}

func TestIsComponent(t *testing.T) {
	if !IsComponent(greeterComponent()) {
		t.Error("expected component preamble to be detected")
	}
	if IsComponent(emptyCoreModule) {
		t.Error("core module preamble detected as component")
	}
	if IsComponent([]byte{0x00, 0x61}) {
		t.Error("truncated input detected as component")
	}
}

func TestParseDefinedTypes(t *testing.T) {
	input := concat(
		componentPreamble,
		section(sectionIDType, concat(
			[]byte{0x06},
			// record { a: u32, b: string }
			[]byte{0x72, 0x02, 0x01, 'a', 0x79, 0x01, 'b', 0x73},
			// variant { none, some(type 0) }
			[]byte{0x71, 0x02, 0x04, 'n', 'o', 'n', 'e', 0x00, 0x00, 0x04, 's', 'o', 'm', 'e', 0x01, 0x00, 0x00},
			// list<type 0>
			[]byte{0x70, 0x00},
			// tuple<bool, u8>
			[]byte{0x6f, 0x02, 0x7f, 0x7d},
			// result<u32, string>
			[]byte{0x6a, 0x01, 0x79, 0x01, 0x73},
			// own<0>
			[]byte{0x69, 0x00},
		)),
	)
	component, err := Parse(input, nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	types := component.ComponentTypes()
	if len(types) != 6 {
		t.Fatalf("expected 6 types, got %d", len(types))
	}

	record, ok := types[0].(*RecordType)
	if !ok || len(record.Fields) != 2 {
		t.Fatalf("unexpected record %#v", types[0])
	}
	if record.Fields[0].Name != "a" || record.Fields[0].Type != PrimU32 {
		t.Errorf("unexpected record field %#v", record.Fields[0])
	}
	if record.Fields[1].Name != "b" || record.Fields[1].Type != PrimStr {
		t.Errorf("unexpected record field %#v", record.Fields[1])
	}

	variant, ok := types[1].(*VariantType)
	if !ok || len(variant.Cases) != 2 {
		t.Fatalf("unexpected variant %#v", types[1])
	}
	if variant.Cases[0].Name != "none" || variant.Cases[0].Type != nil {
		t.Errorf("unexpected variant case %#v", variant.Cases[0])
	}
	if variant.Cases[1].Name != "some" || variant.Cases[1].Type != DefinedValType(0) {
		t.Errorf("unexpected variant case %#v", variant.Cases[1])
	}

	list, ok := types[2].(*ListType)
	if !ok || list.Elem != DefinedValType(0) {
		t.Errorf("unexpected list %#v", types[2])
	}

	tuple, ok := types[3].(*TupleType)
	if !ok || len(tuple.Elems) != 2 || tuple.Elems[0] != PrimBool || tuple.Elems[1] != PrimU8 {
		t.Errorf("unexpected tuple %#v", types[3])
	}

	result, ok := types[4].(*ResultType)
	if !ok || result.Ok != PrimU32 || result.Err != PrimStr {
		t.Errorf("unexpected result %#v", types[4])
	}

	owned, ok := types[5].(*OwnedType)
	if !ok || owned.TypeIdx != 0 {
		t.Errorf("unexpected own %#v", types[5])
	}
}

func TestParseInstanceType(t *testing.T) {
	input := concat(
		componentPreamble,
		section(sectionIDType, concat(
			[]byte{0x01, 0x42, 0x02},
			// type enum { on, off }
			[]byte{0x01, 0x6d, 0x02, 0x02, 'o', 'n', 0x03, 'o', 'f', 'f'},
			// export "state" (type (eq 0))
			[]byte{0x04, 0x00, 0x05, 's', 't', 'a', 't', 'e', 0x03, 0x00, 0x00},
		)),
	)
	component, err := Parse(input, nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	types := component.ComponentTypes()
	if len(types) != 1 {
		t.Fatalf("expected 1 type, got %d", len(types))
	}
	decls, ok := types[0].(InstanceTypeDecls)
	if !ok || len(decls) != 2 {
		t.Fatalf("unexpected instance type %#v", types[0])
	}

	desc, ok := decls.FindExport("state")
	if !ok {
		t.Fatal("expected state export")
	}
	typeRef, ok := desc.(TypeRefType)
	if !ok {
		t.Fatalf("unexpected descriptor %#v", desc)
	}
	if bounds, ok := typeRef.Bounds.(TypeBoundsEq); !ok || bounds.TypeIdx != 0 {
		t.Errorf("unexpected bounds %#v", typeRef.Bounds)
	}

	decl, ok := decls.GetComponentType(0)
	if !ok {
		t.Fatal("expected local type 0")
	}
	declType, ok := decl.(DeclType)
	if !ok {
		t.Fatalf("unexpected declaration %#v", decl)
	}
	enum, ok := declType.Type.(*EnumType)
	if !ok || len(enum.Names) != 2 || enum.Names[0] != "on" {
		t.Errorf("unexpected enum %#v", declType.Type)
	}
}

func TestParseResourceType(t *testing.T) {
	input := concat(
		componentPreamble,
		section(sectionIDType, []byte{0x02, 0x3f, 0x7f, 0x00, 0x3f, 0x7f, 0x01, 0x02}),
	)
	component, err := Parse(input, nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	types := component.ComponentTypes()
	if len(types) != 2 {
		t.Fatalf("expected 2 types, got %d", len(types))
	}
	plain, ok := types[0].(*ResourceType)
	if !ok || plain.Representation != core.ValI32 || plain.Destructor != nil {
		t.Errorf("unexpected resource %#v", types[0])
	}
	withDtor, ok := types[1].(*ResourceType)
	if !ok || withDtor.Destructor == nil || *withDtor.Destructor != 2 {
		t.Errorf("unexpected resource %#v", types[1])
	}
}

func TestParseNestedComponent(t *testing.T) {
	nameData := []byte{0x00, 0x06, 0x05, 'o', 'u', 't', 'e', 'r'}
	input := concat(
		componentPreamble,
		section(sectionIDComponent, greeterComponent()),
		section(sectionIDCustom, concat(
			[]byte{0x0e}, []byte("component-name"),
			nameData,
		)),
	)
	component, err := Parse(input, wasmast.Full)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if len(component.Components()) != 1 {
		t.Fatalf("expected 1 nested component, got %d", len(component.Components()))
	}
	if len(component.GetAllModules()) != 1 {
		t.Errorf("expected nested module to be reachable, got %d", len(component.GetAllModules()))
	}
	all := component.GetAllComponents()
	if len(all) != 2 {
		t.Errorf("expected component and its child, got %d", len(all))
	}

	meta := component.Metadata()
	if meta == nil || meta.Name == nil || meta.Name.ModuleName != "outer" {
		t.Errorf("unexpected metadata %#v", meta)
	}
}

func TestParseCustomizationDropsCustomSections(t *testing.T) {
	input := concat(
		componentPreamble,
		section(sectionIDCustom, concat([]byte{0x05}, []byte("notes"), []byte{0x01, 0x02})),
	)
	component, err := Parse(input, wasmast.Minimal)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(component.Customs()) != 0 {
		t.Errorf("expected custom section to be dropped, got %d", len(component.Customs()))
	}
}

func TestParseStartSection(t *testing.T) {
	input := concat(
		componentPreamble,
		section(sectionIDStart, []byte{0x03, 0x02, 0x00, 0x01, 0x01}),
	)
	component, err := Parse(input, nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	start := component.Start()
	if start == nil {
		t.Fatal("expected start section")
	}
	if start.FuncIdx != 3 || len(start.Args) != 2 || start.Args[1] != 1 || start.Results != 1 {
		t.Errorf("unexpected start %#v", start)
	}
}

func TestParseImportSection(t *testing.T) {
	input := concat(
		componentPreamble,
		section(sectionIDImport, concat(
			[]byte{0x02},
			// "host" as instance type 0
			[]byte{0x00, 0x04, 'h', 'o', 's', 't', 0x05, 0x00},
			// "mem" as core module type 1
			[]byte{0x00, 0x03, 'm', 'e', 'm', 0x00, 0x11, 0x01},
		)),
	)
	component, err := Parse(input, nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	imports := component.Imports()
	if len(imports) != 2 {
		t.Fatalf("expected 2 imports, got %d", len(imports))
	}
	if imports[0].Name != "host" {
		t.Errorf("unexpected import name %q", imports[0].Name)
	}
	if ref, ok := imports[0].Desc.(TypeRefInstance); !ok || ref.TypeIdx != 0 {
		t.Errorf("unexpected import descriptor %#v", imports[0].Desc)
	}
	if ref, ok := imports[1].Desc.(TypeRefModule); !ok || ref.TypeIdx != 1 {
		t.Errorf("unexpected import descriptor %#v", imports[1].Desc)
	}
}

func TestParseRejectsUnsupportedEncodings(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "async canonical function",
			input: concat(componentPreamble, section(sectionIDCanon, []byte{0x01, 0x05})),
			want:  "WASI P3 future and stream support is not supported yet",
		},
		{
			name: "async canonical option",
			input: concat(componentPreamble,
				section(sectionIDCanon, []byte{0x01, 0x00, 0x00, 0x00, 0x01, 0x06, 0x00})),
			want: "WASI P3 future and stream support is not supported yet",
		},
		{
			name:  "stream type",
			input: concat(componentPreamble, section(sectionIDType, []byte{0x01, 0x65})),
			want:  "WASI P3 future and stream support is not supported yet",
		},
		{
			name:  "future type",
			input: concat(componentPreamble, section(sectionIDType, []byte{0x01, 0x66})),
			want:  "WASI P3 future and stream support is not supported yet",
		},
		{
			name:  "fixed-size list type",
			input: concat(componentPreamble, section(sectionIDType, []byte{0x01, 0x67})),
			want:  "Fixed-size lists are not supported",
		},
		{
			name: "tag export in core instance",
			input: concat(componentPreamble,
				section(sectionIDCoreInstance, []byte{0x01, 0x01, 0x01, 0x01, 't', 0x04, 0x00})),
			want: "Exception handling proposal is not supported",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input, nil)
			if err == nil {
				t.Fatal("expected parse error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}
