package analysis

import (
	"strings"
	"testing"

	wasmast "github.com/wippyai/wasm-ast"
	"github.com/wippyai/wasm-ast/component"
	"github.com/wippyai/wasm-ast/core"
)

func buildComponent(sections ...component.ComponentSection) *component.Component {
	store := wasmast.NewSections[component.ComponentIndexSpace, component.ComponentSectionType, component.ComponentSection]()
	for _, section := range sections {
		store.Add(section)
	}
	return component.NewComponent(store, nil)
}

func buildModule(sections ...core.CoreSection) *component.Module {
	store := wasmast.NewSections[core.CoreIndexSpace, core.CoreSectionType, core.CoreSection]()
	for _, section := range sections {
		store.Add(section)
	}
	return &component.Module{Module: core.NewModule(store, nil)}
}

func TestAnalyseFunctionExport(t *testing.T) {
	c := buildComponent(
		&component.FuncType{
			Params: []component.NamedValType{{Name: "name", Type: component.PrimStr}},
			Result: component.FuncResult{Unnamed: component.PrimU32},
		},
		&component.CanonLift{FuncIdx: 0, FunctionType: 0},
		&component.Export{Name: "hash", Kind: component.KindFunc, Idx: 0},
	)

	exports, err := NewAnalysisContext(c).GetTopLevelExports()
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if len(exports) != 1 {
		t.Fatalf("expected 1 export, got %d", len(exports))
	}
	function, ok := exports[0].(AnalysedFunction)
	if !ok {
		t.Fatalf("expected function, got %T", exports[0])
	}
	if function.Name != "hash" {
		t.Errorf("unexpected name %q", function.Name)
	}
	if len(function.Parameters) != 1 || function.Parameters[0].Name != "name" {
		t.Fatalf("unexpected parameters %#v", function.Parameters)
	}
	if _, ok := function.Parameters[0].Typ.(TypeStr); !ok {
		t.Errorf("expected string parameter, got %T", function.Parameters[0].Typ)
	}
	if len(function.Results) != 1 || function.Results[0].Name != nil {
		t.Fatalf("unexpected results %#v", function.Results)
	}
	if _, ok := function.Results[0].Typ.(TypeU32); !ok {
		t.Errorf("expected u32 result, got %T", function.Results[0].Typ)
	}
}

func TestAnalyseDefinedTypesInSignature(t *testing.T) {
	c := buildComponent(
		&component.ListType{Elem: component.PrimStr},
		&component.RecordType{Fields: []component.NamedValType{
			{Name: "id", Type: component.PrimU64},
			{Name: "tags", Type: component.DefinedValType(0)},
		}},
		&component.FuncType{
			Params: []component.NamedValType{{Name: "item", Type: component.DefinedValType(1)}},
			Result: component.FuncResult{Named: []component.NamedValType{{Name: "ok", Type: component.PrimBool}}},
		},
		&component.CanonLift{FuncIdx: 0, FunctionType: 2},
		&component.Export{Name: "store", Kind: component.KindFunc, Idx: 0},
	)

	exports, err := NewAnalysisContext(c).GetTopLevelExports()
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	function := exports[0].(AnalysedFunction)

	record, ok := function.Parameters[0].Typ.(*TypeRecord)
	if !ok {
		t.Fatalf("expected record parameter, got %T", function.Parameters[0].Typ)
	}
	if len(record.Fields) != 2 || record.Fields[0].Name != "id" {
		t.Fatalf("unexpected record %#v", record)
	}
	list, ok := record.Fields[1].Typ.(*TypeList)
	if !ok {
		t.Fatalf("expected list field, got %T", record.Fields[1].Typ)
	}
	if _, ok := list.Inner.(TypeStr); !ok {
		t.Errorf("expected list of strings, got %T", list.Inner)
	}

	if len(function.Results) != 1 || function.Results[0].Name == nil || *function.Results[0].Name != "ok" {
		t.Fatalf("unexpected results %#v", function.Results)
	}
}

func TestAnalyseInstanceExport(t *testing.T) {
	inner := buildComponent(
		&component.FuncType{Result: component.FuncResult{Unnamed: component.PrimStr}},
		&component.CanonLift{FuncIdx: 0, FunctionType: 0},
		&component.Export{Name: "greet", Kind: component.KindFunc, Idx: 0},
	)
	root := buildComponent(
		inner,
		&component.Instantiate{ComponentIdx: 0},
		&component.Export{Name: "api", Kind: component.KindInstance, Idx: 0},
	)

	exports, err := NewAnalysisContext(root).GetTopLevelExports()
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if len(exports) != 1 {
		t.Fatalf("expected 1 export, got %d", len(exports))
	}
	instance, ok := exports[0].(AnalysedInstance)
	if !ok {
		t.Fatalf("expected instance, got %T", exports[0])
	}
	if instance.Name != "api" || len(instance.Functions) != 1 {
		t.Fatalf("unexpected instance %#v", instance)
	}
	if instance.Functions[0].Name != "greet" {
		t.Errorf("unexpected function %q", instance.Functions[0].Name)
	}
}

func TestAnalyseOuterAliasedType(t *testing.T) {
	inner := buildComponent(
		&component.AliasOuter{Kind: component.OuterAliasKindType, Count: 1, Index: 0},
		&component.CanonLift{FuncIdx: 0, FunctionType: 0},
		&component.Export{Name: "refresh", Kind: component.KindFunc, Idx: 0},
	)
	root := buildComponent(
		&component.FuncType{Result: component.FuncResult{Unnamed: component.PrimU64}},
		inner,
		&component.Instantiate{ComponentIdx: 0},
		&component.Export{Name: "svc", Kind: component.KindInstance, Idx: 0},
	)

	exports, err := NewAnalysisContext(root).GetTopLevelExports()
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	instance := exports[0].(AnalysedInstance)
	if len(instance.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(instance.Functions))
	}
	if _, ok := instance.Functions[0].Results[0].Typ.(TypeU64); !ok {
		t.Errorf("expected u64 result, got %T", instance.Functions[0].Results[0].Typ)
	}
}

func TestAnalyseResourceFunctions(t *testing.T) {
	c := buildComponent(
		&component.Import{Name: "counter", Desc: component.TypeRefType{Bounds: component.TypeBoundsSubResource{}}},
		&component.OwnedType{TypeIdx: 0},
		&component.BorrowedType{TypeIdx: 0},
		&component.FuncType{Result: component.FuncResult{Unnamed: component.DefinedValType(1)}},
		&component.FuncType{
			Params: []component.NamedValType{{Name: "self", Type: component.DefinedValType(2)}},
			Result: component.FuncResult{Unnamed: component.PrimU64},
		},
		&component.CanonLift{FuncIdx: 0, FunctionType: 3},
		&component.CanonLift{FuncIdx: 1, FunctionType: 4},
		&component.Export{Name: "[constructor]counter", Kind: component.KindFunc, Idx: 0},
		&component.Export{Name: "[method]counter.increment", Kind: component.KindFunc, Idx: 1},
	)

	exports, err := NewAnalysisContext(c).GetTopLevelExports()
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if len(exports) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(exports))
	}

	constructor := exports[0].(AnalysedFunction)
	if !constructor.IsConstructor() {
		t.Errorf("expected constructor, got %#v", constructor)
	}
	ownedHandle, ok := constructor.Results[0].Typ.(TypeHandle)
	if !ok || ownedHandle.Mode != ResourceModeOwned {
		t.Fatalf("unexpected constructor result %#v", constructor.Results[0].Typ)
	}

	method := exports[1].(AnalysedFunction)
	if !method.IsMethod() {
		t.Errorf("expected method, got %#v", method)
	}
	borrowedHandle, ok := method.Parameters[0].Typ.(TypeHandle)
	if !ok || borrowedHandle.Mode != ResourceModeBorrowed {
		t.Fatalf("unexpected method receiver %#v", method.Parameters[0].Typ)
	}

	// Both handles refer to the same resource import.
	if ownedHandle.ResourceID != borrowedHandle.ResourceID {
		t.Errorf("resource ids diverged: %d vs %d", ownedHandle.ResourceID, borrowedHandle.ResourceID)
	}
}

func TestAnalyseRejectsInstanceFromExports(t *testing.T) {
	c := buildComponent(
		&component.InstanceFromExports{},
		&component.Export{Name: "api", Kind: component.KindInstance, Idx: 0},
	)

	_, err := NewAnalysisContext(c).GetTopLevelExports()
	if err == nil {
		t.Fatal("expected analysis failure")
	}
	if !strings.Contains(err.Error(), "Instance defined directly from exports are not supported") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestAnalyseWarnsOnUnsupportedExportKind(t *testing.T) {
	c := buildComponent(
		&component.FuncType{Result: component.FuncResult{Unnamed: component.PrimBool}},
		&component.Export{Name: "check-type", Kind: component.KindType, Idx: 0},
	)

	ctx := NewAnalysisContext(c)
	exports, err := ctx.GetTopLevelExports()
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if len(exports) != 0 {
		t.Fatalf("expected no exports, got %d", len(exports))
	}
	warnings := ctx.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	warning, ok := warnings[0].(UnsupportedExportWarning)
	if !ok || warning.Kind != component.KindType || warning.Name != "check-type" {
		t.Errorf("unexpected warning %#v", warnings[0])
	}
}

func TestGetAllMemories(t *testing.T) {
	max := uint64(4)
	inner := buildComponent(
		buildModule(&core.Mem{Type: core.MemType{Limits: core.Limits{Min: 1}}}),
	)
	root := buildComponent(
		buildModule(&core.Mem{Type: core.MemType{Limits: core.Limits{Min: 2, Max: &max}}}),
		inner,
	)

	mems := NewAnalysisContext(root).GetAllMemories()
	if len(mems) != 2 {
		t.Fatalf("expected 2 memories, got %d", len(mems))
	}
	if mems[0].Type.Limits.Min != 2 || mems[1].Type.Limits.Min != 1 {
		t.Errorf("unexpected memories %#v", mems)
	}
}

func TestAnalyseThreeLevelOuterAlias(t *testing.T) {
	inner := buildComponent(
		&component.AliasOuter{Kind: component.OuterAliasKindType, Count: 2, Index: 0},
		&component.CanonLift{FuncIdx: 0, FunctionType: 0},
		&component.Export{Name: "f", Kind: component.KindFunc, Idx: 0},
	)
	mid := buildComponent(
		inner,
		&component.Instantiate{ComponentIdx: 0},
		&component.AliasInstanceExport{Kind: component.KindFunc, InstanceIdx: 0, Name: "f"},
		&component.Export{Name: "g", Kind: component.KindFunc, Idx: 0},
	)
	root := buildComponent(
		&component.FuncType{Result: component.FuncResult{Unnamed: component.PrimChr}},
		mid,
		&component.Instantiate{ComponentIdx: 0},
		&component.Instantiate{ComponentIdx: 0},
		&component.AliasInstanceExport{Kind: component.KindFunc, InstanceIdx: 0, Name: "g"},
		&component.AliasInstanceExport{Kind: component.KindFunc, InstanceIdx: 1, Name: "g"},
		&component.Export{Name: "g", Kind: component.KindFunc, Idx: 0},
		&component.Export{Name: "h", Kind: component.KindFunc, Idx: 1},
	)

	exports, err := NewAnalysisContext(root).GetTopLevelExports()
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if len(exports) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(exports))
	}
	for _, export := range exports {
		function := export.(AnalysedFunction)
		if _, ok := function.Results[0].Typ.(TypeChr); !ok {
			t.Errorf("%s: expected char result resolved through the outer alias, got %T",
				function.Name, function.Results[0].Typ)
		}
	}
}

// frame wraps a payload as a binary component section. Payloads here stay
// under 128 bytes so the size fits a single LEB byte.
func frame(id byte, payload ...byte) []byte {
	out := []byte{id, byte(len(payload))}
	return append(out, payload...)
}

func TestAnalyseParsedComponent(t *testing.T) {
	var data []byte
	data = append(data, 0x00, 0x61, 0x73, 0x6d, 0x0d, 0x00, 0x01, 0x00)
	// Type index 0: imported sub-resource bound.
	data = append(data, frame(10,
		0x01,
		0x00, 0x07, 'c', 'o', 'u', 'n', 't', 'e', 'r',
		0x03, 0x01,
	)...)
	// Type 1: own<0>. Type 2: add(a: s32, b: s32) -> s32.
	// Type 3: the constructor signature () -> own<0>.
	data = append(data, frame(7,
		0x03,
		0x69, 0x00,
		0x40, 0x02, 0x01, 'a', 0x7a, 0x01, 'b', 0x7a, 0x00, 0x7a,
		0x40, 0x00, 0x00, 0x01,
	)...)
	data = append(data, frame(8,
		0x02,
		0x00, 0x00, 0x00, 0x00, 0x02,
		0x00, 0x00, 0x01, 0x00, 0x03,
	)...)
	data = append(data, frame(11,
		0x02,
		0x00, 0x03, 'a', 'd', 'd', 0x01, 0x00, 0x00,
		0x00, 0x14, '[', 'c', 'o', 'n', 's', 't', 'r', 'u', 'c', 't', 'o', 'r', ']', 'c', 'o', 'u', 'n', 't', 'e', 'r', 0x01, 0x01, 0x00,
	)...)

	c, err := component.Parse(data, wasmast.Full)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	exports, err := NewAnalysisContext(c).GetTopLevelExports()
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if len(exports) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(exports))
	}

	add := exports[0].(AnalysedFunction)
	if add.Name != "add" {
		t.Errorf("expected add first, got %q", add.Name)
	}
	if len(add.Parameters) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(add.Parameters))
	}
	for i, want := range []string{"a", "b"} {
		if add.Parameters[i].Name != want {
			t.Errorf("parameter %d: expected %q, got %q", i, want, add.Parameters[i].Name)
		}
		if _, ok := add.Parameters[i].Typ.(TypeS32); !ok {
			t.Errorf("parameter %d: expected s32, got %T", i, add.Parameters[i].Typ)
		}
	}
	if _, ok := add.Results[0].Typ.(TypeS32); !ok {
		t.Errorf("expected s32 result, got %T", add.Results[0].Typ)
	}

	ctor := exports[1].(AnalysedFunction)
	if ctor.Name != "[constructor]counter" {
		t.Errorf("expected constructor second, got %q", ctor.Name)
	}
	if !ctor.IsConstructor() {
		t.Error("expected constructor classification")
	}
	handle, ok := ctor.Results[0].Typ.(TypeHandle)
	if !ok {
		t.Fatalf("expected handle result, got %T", ctor.Results[0].Typ)
	}
	if handle.Mode != ResourceModeOwned {
		t.Errorf("expected owned handle, got %s", handle.Mode)
	}
}
