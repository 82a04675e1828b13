package core

import (
	"testing"

	wasmast "github.com/wippyai/wasm-ast"
	"github.com/wippyai/wasm-ast/internal/binary"
)

func TestAddDataRegeneratesDataCount(t *testing.T) {
	module := EmptyModule()
	module.AddData(&Data{Mode: DataModePassive{}, Init: []byte{1}})
	module.AddData(&Data{Mode: DataModePassive{}, Init: []byte{2}})

	var counts []uint32
	for _, group := range module.IntoGrouped() {
		if group.Type == SecDataCount {
			counts = append(counts, group.Sections[0].(*DataCount).Count)
		}
	}
	if len(counts) != 1 {
		t.Fatalf("expected exactly one data count section, got %d", len(counts))
	}
	if counts[0] != 2 {
		t.Errorf("expected data count 2, got %d", counts[0])
	}
}

func TestAddFunctionReusesType(t *testing.T) {
	module := EmptyModule()
	ft := &FuncType{Params: []ValType{ValI32}, Results: []ValType{ValI32}}
	idx0 := module.AddFunction(ft, nil, &Expr{})
	idx1 := module.AddFunction(&FuncType{Params: []ValType{ValI32}, Results: []ValType{ValI32}}, nil, &Expr{})

	if idx0 != 0 || idx1 != 1 {
		t.Errorf("unexpected function indices %d, %d", idx0, idx1)
	}
	if got := len(module.Types()); got != 1 {
		t.Errorf("expected type to be deduplicated, got %d types", got)
	}
}

func TestFunctionIndicesCountImportsFirst(t *testing.T) {
	module := EmptyModule()
	module.AddImport(&Import{Module: "env", Name: "log", Desc: TypeRefFunc{TypeIdx: 0}})
	idx := module.AddFunction(&FuncType{}, nil, &Expr{Instrs: []Instr{Nop{}}})

	if idx != 1 {
		t.Fatalf("expected defined function at index 1, got %d", idx)
	}

	got, ok := module.GetFunction(0)
	if !ok || got.Import == nil {
		t.Fatalf("expected import at index 0, got %+v", got)
	}
	if got.Import.Name != "log" {
		t.Errorf("unexpected import %q", got.Import.Name)
	}

	got, ok = module.GetFunction(1)
	if !ok || got.Func == nil {
		t.Fatalf("expected defined function at index 1, got %+v", got)
	}
	if got.Func.Code == nil || len(got.Func.Code.Body.Instrs) != 1 {
		t.Errorf("unexpected function body %+v", got.Func.Code)
	}
}

func TestImportsPrecedeDefinitionsAfterMutation(t *testing.T) {
	module := EmptyModule()
	module.AddFunction(&FuncType{}, nil, &Expr{})
	module.AddImport(&Import{Module: "env", Name: "f", Desc: TypeRefFunc{TypeIdx: 0}})

	// After encoding, the import section must precede the function section.
	data, err := Encode(module)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	reparsed, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	got, ok := reparsed.GetFunction(0)
	if !ok || got.Import == nil {
		t.Fatalf("expected index 0 to resolve to the import, got %+v", got)
	}
}

func TestStartSection(t *testing.T) {
	module := EmptyModule()
	if module.Start() != nil {
		t.Fatal("expected no start section")
	}
	module.Sections().Add(&Start{Func: 4})
	if start := module.Start(); start == nil || start.Func != 4 {
		t.Errorf("unexpected start %+v", module.Start())
	}
}

func TestMetadataFromCustomSections(t *testing.T) {
	producers := binary.NewWriter()
	producers.WriteU32(1)
	producers.WriteName("processed-by")
	producers.WriteU32(1)
	producers.WriteName("hand-rolled")
	producers.WriteName("0.1.0")

	module := EmptyModule()
	module.AddCustom(&Custom{Name: "producers", Data: producers.Bytes()})
	module.AddCustom(&Custom{Name: "registry-metadata", Data: []byte(`{"description":"test module"}`)})

	meta := module.Metadata()
	if meta == nil {
		t.Fatal("expected metadata")
	}
	field, ok := meta.Producers.Field("processed-by")
	if !ok || len(field.Values) != 1 || field.Values[0].Name != "hand-rolled" {
		t.Errorf("unexpected producers %+v", meta.Producers)
	}
	if meta.Registry == nil || meta.Registry.Description != "test module" {
		t.Errorf("unexpected registry metadata %+v", meta.Registry)
	}
}

func TestCustomizationSurvivesGetters(t *testing.T) {
	module := NewModule(wasmast.NewSections[CoreIndexSpace, CoreSectionType, CoreSection](), wasmast.Minimal)
	if module.Customization() != wasmast.Minimal {
		t.Error("customization not retained")
	}
}
