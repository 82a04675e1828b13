package analysis

import "testing"

func TestFunctionKindConstructor(t *testing.T) {
	function := AnalysedFunction{
		Name: "[constructor]cart",
		Parameters: []AnalysedFunctionParameter{
			{Name: "user-id", Typ: U64()},
		},
		Results: []AnalysedFunctionResult{
			{Typ: Handle(0, ResourceModeOwned)},
		},
	}
	if !function.IsConstructor() {
		t.Error("expected constructor")
	}
	if function.IsMethod() || function.IsStaticMethod() {
		t.Error("constructor misclassified")
	}
}

func TestFunctionKindConstructorNeedsOwnedHandle(t *testing.T) {
	function := AnalysedFunction{
		Name:    "[constructor]cart",
		Results: []AnalysedFunctionResult{{Typ: U64()}},
	}
	if function.IsConstructor() {
		t.Error("constructor must return an owned handle")
	}
}

func TestFunctionKindMethod(t *testing.T) {
	function := AnalysedFunction{
		Name: "[method]cart.add-item",
		Parameters: []AnalysedFunctionParameter{
			{Name: "self", Typ: Handle(0, ResourceModeBorrowed)},
			{Name: "item", Typ: Str()},
		},
	}
	if !function.IsMethod() {
		t.Error("expected method")
	}
	if function.IsConstructor() || function.IsStaticMethod() {
		t.Error("method misclassified")
	}
}

func TestFunctionKindMethodNeedsBorrowedSelf(t *testing.T) {
	function := AnalysedFunction{
		Name: "[method]cart.add-item",
		Parameters: []AnalysedFunctionParameter{
			{Name: "item", Typ: Str()},
		},
	}
	if function.IsMethod() {
		t.Error("method must take a borrowed handle first")
	}
}

func TestFunctionKindStatic(t *testing.T) {
	function := AnalysedFunction{
		Name: "[static]cart.merge",
		Parameters: []AnalysedFunctionParameter{
			{Name: "lhs", Typ: Handle(0, ResourceModeOwned)},
			{Name: "rhs", Typ: Handle(1, ResourceModeOwned)},
		},
	}
	if !function.IsStaticMethod() {
		t.Error("expected static method")
	}
	if function.IsConstructor() || function.IsMethod() {
		t.Error("static method misclassified")
	}
}

func TestFunctionKindFreestanding(t *testing.T) {
	function := AnalysedFunction{
		Name:       "hash",
		Parameters: []AnalysedFunctionParameter{{Name: "value", Typ: Str()}},
		Results:    []AnalysedFunctionResult{{Typ: U64()}},
	}
	if function.IsConstructor() || function.IsMethod() || function.IsStaticMethod() {
		t.Error("freestanding function misclassified")
	}
}

func TestBuilders(t *testing.T) {
	typ := Record(
		Field("id", U64()),
		Field("tags", List(Str())),
		Field("state", Option(Variant(UnitCase("empty"), Case("full", Tuple(U32(), U32()))))),
		Field("outcome", Result(Bool(), nil)),
	)
	record, ok := typ.(*TypeRecord)
	if !ok {
		t.Fatalf("expected record, got %T", typ)
	}
	if len(record.Fields) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(record.Fields))
	}
	option, ok := record.Fields[2].Typ.(*TypeOption)
	if !ok {
		t.Fatalf("expected option, got %T", record.Fields[2].Typ)
	}
	variant, ok := option.Inner.(*TypeVariant)
	if !ok || len(variant.Cases) != 2 {
		t.Fatalf("unexpected variant %#v", option.Inner)
	}
	if variant.Cases[0].Typ != nil {
		t.Error("unit case should carry no payload")
	}
	result, ok := record.Fields[3].Typ.(*TypeResult)
	if !ok || result.Err != nil {
		t.Fatalf("unexpected result %#v", record.Fields[3].Typ)
	}
}
