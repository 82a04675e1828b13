package analysis

import (
	"testing"

	"go.bytecodealliance.org/wit"
)

func TestToWitTypePrimitives(t *testing.T) {
	typ, err := ToWitType(Str())
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	if _, ok := typ.(wit.String); !ok {
		t.Errorf("expected wit string, got %T", typ)
	}

	typ, err = ToWitType(U64())
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	if _, ok := typ.(wit.U64); !ok {
		t.Errorf("expected wit u64, got %T", typ)
	}
}

func TestToWitTypeRecord(t *testing.T) {
	typ, err := ToWitType(Record(
		Field("id", U64()),
		Field("tags", List(Str())),
	))
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	def, ok := typ.(*wit.TypeDef)
	if !ok {
		t.Fatalf("expected type def, got %T", typ)
	}
	record, ok := def.Kind.(*wit.Record)
	if !ok {
		t.Fatalf("expected record, got %T", def.Kind)
	}
	if len(record.Fields) != 2 || record.Fields[0].Name != "id" {
		t.Fatalf("unexpected record %#v", record)
	}
	listDef, ok := record.Fields[1].Type.(*wit.TypeDef)
	if !ok {
		t.Fatalf("expected type def field, got %T", record.Fields[1].Type)
	}
	if _, ok := listDef.Kind.(*wit.List); !ok {
		t.Errorf("expected list, got %T", listDef.Kind)
	}
}

func TestToWitTypeVariantAndResult(t *testing.T) {
	typ, err := ToWitType(Variant(
		UnitCase("none"),
		Case("failure", Result(U32(), Str())),
	))
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	variant := typ.(*wit.TypeDef).Kind.(*wit.Variant)
	if len(variant.Cases) != 2 {
		t.Fatalf("unexpected variant %#v", variant)
	}
	if variant.Cases[0].Type != nil {
		t.Error("unit case should carry no type")
	}
	result := variant.Cases[1].Type.(*wit.TypeDef).Kind.(*wit.Result)
	if _, ok := result.OK.(wit.U32); !ok {
		t.Errorf("unexpected ok arm %T", result.OK)
	}
	if _, ok := result.Err.(wit.String); !ok {
		t.Errorf("unexpected err arm %T", result.Err)
	}
}

func TestToWitTypeHandles(t *testing.T) {
	owned, err := ToWitType(Handle(0, ResourceModeOwned))
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	if _, ok := owned.(*wit.TypeDef).Kind.(*wit.Own); !ok {
		t.Errorf("expected own handle, got %T", owned.(*wit.TypeDef).Kind)
	}

	borrowed, err := ToWitType(Handle(1, ResourceModeBorrowed))
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	if _, ok := borrowed.(*wit.TypeDef).Kind.(*wit.Borrow); !ok {
		t.Errorf("expected borrow handle, got %T", borrowed.(*wit.TypeDef).Kind)
	}
}

func TestFromWitTypeNamedRecord(t *testing.T) {
	ifaceName := "shapes"
	typeName := "point"
	def := &wit.TypeDef{
		Name: &typeName,
		Owner: &wit.Interface{
			Name:    &ifaceName,
			Package: &wit.Package{Name: wit.Ident{Namespace: "demo", Package: "geometry"}},
		},
		Kind: &wit.Record{Fields: []wit.Field{
			{Name: "x", Type: wit.U32{}},
			{Name: "y", Type: wit.U32{}},
		}},
	}

	typ, err := NewWitTypeResolver().FromWitType(def)
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	record, ok := typ.(*TypeRecord)
	if !ok {
		t.Fatalf("expected record, got %T", typ)
	}
	if record.Name == nil || *record.Name != "point" {
		t.Errorf("expected name point, got %v", record.Name)
	}
	if record.Owner == nil || *record.Owner != "demo:geometry/shapes" {
		t.Errorf("expected owner demo:geometry/shapes, got %v", record.Owner)
	}
	if len(record.Fields) != 2 || record.Fields[0].Name != "x" {
		t.Fatalf("unexpected record %#v", record)
	}
	if _, ok := record.Fields[1].Typ.(TypeU32); !ok {
		t.Errorf("expected u32 field, got %T", record.Fields[1].Typ)
	}
}

func TestFromWitTypeAliasResolvesToTarget(t *testing.T) {
	world := &wit.World{Name: "host"}
	enumName := "color"
	enum := &wit.TypeDef{
		Name:  &enumName,
		Owner: world,
		Kind:  &wit.Enum{Cases: []wit.EnumCase{{Name: "red"}, {Name: "green"}}},
	}
	aliasName := "paint"
	alias := &wit.TypeDef{Name: &aliasName, Kind: enum}

	typ, err := NewWitTypeResolver().FromWitType(alias)
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	resolved, ok := typ.(*TypeEnum)
	if !ok {
		t.Fatalf("expected enum, got %T", typ)
	}
	if resolved.Name == nil || *resolved.Name != "color" {
		t.Errorf("expected the target's name, got %v", resolved.Name)
	}
	if resolved.Owner == nil || *resolved.Owner != "host" {
		t.Errorf("expected world owner, got %v", resolved.Owner)
	}
	if len(resolved.Cases) != 2 || resolved.Cases[0] != "red" {
		t.Fatalf("unexpected enum %#v", resolved)
	}
}

func TestFromWitTypeResourceHandles(t *testing.T) {
	world := &wit.World{Name: "host"}
	resourceName := "counter"
	resource := &wit.TypeDef{Name: &resourceName, Owner: world, Kind: &wit.Resource{}}
	resolver := NewWitTypeResolver()

	owned, err := resolver.FromWitType(&wit.TypeDef{Kind: &wit.Own{Type: resource}})
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	borrowed, err := resolver.FromWitType(&wit.TypeDef{Kind: &wit.Borrow{Type: resource}})
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}

	ownedHandle := owned.(TypeHandle)
	borrowedHandle := borrowed.(TypeHandle)
	if ownedHandle.Mode != ResourceModeOwned || borrowedHandle.Mode != ResourceModeBorrowed {
		t.Errorf("unexpected modes %s and %s", ownedHandle.Mode, borrowedHandle.Mode)
	}
	if ownedHandle.ResourceID != borrowedHandle.ResourceID {
		t.Errorf("handles of one resource got distinct ids %d and %d",
			ownedHandle.ResourceID, borrowedHandle.ResourceID)
	}
	if ownedHandle.Name == nil || *ownedHandle.Name != "counter" {
		t.Errorf("expected the resource's name, got %v", ownedHandle.Name)
	}
	if ownedHandle.Owner == nil || *ownedHandle.Owner != "host" {
		t.Errorf("expected world owner, got %v", ownedHandle.Owner)
	}

	if _, err := resolver.FromWitType(resource); err == nil {
		t.Error("expected failure for a bare resource type")
	}
}

func TestWithNameAndOwner(t *testing.T) {
	typ := WithOwner(WithName(Flags("read", "write"), "permissions"), "host")
	flags := typ.(*TypeFlags)
	if flags.Name == nil || *flags.Name != "permissions" {
		t.Errorf("expected name permissions, got %v", flags.Name)
	}
	if flags.Owner == nil || *flags.Owner != "host" {
		t.Errorf("expected owner host, got %v", flags.Owner)
	}

	if typ := WithName(U32(), "ignored"); typ != U32() {
		t.Errorf("primitives carry no name, got %#v", typ)
	}

	handle := WithName(Handle(3, ResourceModeBorrowed), "cart").(TypeHandle)
	if handle.Name == nil || *handle.Name != "cart" {
		t.Errorf("expected name cart, got %v", handle.Name)
	}
	if handle.ResourceID != 3 || handle.Mode != ResourceModeBorrowed {
		t.Errorf("annotation must not disturb the handle, got %#v", handle)
	}
}

func TestToWitTypeKeepsName(t *testing.T) {
	typ, err := ToWitType(WithName(Record(Field("id", U64())), "user"))
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	def := typ.(*wit.TypeDef)
	if def.Name == nil || *def.Name != "user" {
		t.Errorf("expected name user, got %v", def.Name)
	}
}
