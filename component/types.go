package component

import (
	"github.com/wippyai/wasm-ast/core"
)

// Index aliases into the component index spaces.
type (
	ComponentTypeIdx = uint32
	ComponentFuncIdx = uint32
	ComponentIdx     = uint32
	ModuleIdx        = uint32
	CoreInstanceIdx  = uint32
	InstanceIdx      = uint32
	ValueIdx         = uint32
	CoreTypeIdx      = uint32
)

// PrimitiveValueType is a primitive component model value type. The
// constants are its binary discriminants.
type PrimitiveValueType byte

const (
	PrimBool PrimitiveValueType = 0x7f
	PrimS8   PrimitiveValueType = 0x7e
	PrimU8   PrimitiveValueType = 0x7d
	PrimS16  PrimitiveValueType = 0x7c
	PrimU16  PrimitiveValueType = 0x7b
	PrimS32  PrimitiveValueType = 0x7a
	PrimU32  PrimitiveValueType = 0x79
	PrimS64  PrimitiveValueType = 0x78
	PrimU64  PrimitiveValueType = 0x77
	PrimF32  PrimitiveValueType = 0x76
	PrimF64  PrimitiveValueType = 0x75
	PrimChr  PrimitiveValueType = 0x74
	PrimStr  PrimitiveValueType = 0x73
)

func (p PrimitiveValueType) String() string {
	switch p {
	case PrimBool:
		return "bool"
	case PrimS8:
		return "s8"
	case PrimU8:
		return "u8"
	case PrimS16:
		return "s16"
	case PrimU16:
		return "u16"
	case PrimS32:
		return "s32"
	case PrimU32:
		return "u32"
	case PrimS64:
		return "s64"
	case PrimU64:
		return "u64"
	case PrimF32:
		return "f32"
	case PrimF64:
		return "f64"
	case PrimChr:
		return "char"
	case PrimStr:
		return "string"
	}
	return "unknown"
}

// ComponentValType is a component model value type: either a primitive or
// a reference into the component type index space.
type ComponentValType interface {
	isComponentValType()
}

// DefinedValType refers to a defined type by its component type index.
type DefinedValType uint32

func (PrimitiveValueType) isComponentValType() {}
func (DefinedValType) isComponentValType()     {}

// NamedValType is a (name, type) pair used by records, function parameters
// and named results.
type NamedValType struct {
	Name string
	Type ComponentValType
}

// VariantCase is a single case of a variant type. Refines points at an
// earlier case this one refines, if any.
type VariantCase struct {
	Name    string
	Type    ComponentValType
	Refines *uint32
}

// ComponentType is a component-level type definition. Besides being carried
// by type declarations, every variant is also a type section node.
type ComponentType interface {
	ComponentSection
	isComponentType()
}

// ComponentDefinedType is a structural value type definition.
type ComponentDefinedType interface {
	ComponentType
	isDefinedType()
}

type RecordType struct {
	Fields []NamedValType
}

type VariantType struct {
	Cases []VariantCase
}

type ListType struct {
	Elem ComponentValType
}

type TupleType struct {
	Elems []ComponentValType
}

type FlagsType struct {
	Names []string
}

type EnumType struct {
	Names []string
}

type OptionType struct {
	Type ComponentValType
}

// ResultType is a result type; either arm may be absent.
type ResultType struct {
	Ok  ComponentValType
	Err ComponentValType
}

type OwnedType struct {
	TypeIdx ComponentTypeIdx
}

type BorrowedType struct {
	TypeIdx ComponentTypeIdx
}

func (PrimitiveValueType) isDefinedType() {}
func (*RecordType) isDefinedType()        {}
func (*VariantType) isDefinedType()       {}
func (*ListType) isDefinedType()          {}
func (*TupleType) isDefinedType()         {}
func (*FlagsType) isDefinedType()         {}
func (*EnumType) isDefinedType()          {}
func (*OptionType) isDefinedType()        {}
func (*ResultType) isDefinedType()        {}
func (*OwnedType) isDefinedType()         {}
func (*BorrowedType) isDefinedType()      {}

// FuncResult is a function's result: a single unnamed type, a list of
// named results, or neither when the function returns nothing.
type FuncResult struct {
	Unnamed ComponentValType
	Named   []NamedValType
}

// FuncType is a component-level function type.
type FuncType struct {
	Params []NamedValType
	Result FuncResult
}

// ComponentTypeDecls is the declaration body of a component type.
type ComponentTypeDecls []TypeDeclaration

// InstanceTypeDecls is the declaration body of an instance type.
type InstanceTypeDecls []TypeDeclaration

// ResourceType declares a resource with its core representation and an
// optional destructor.
type ResourceType struct {
	Representation core.ValType
	Destructor     *ComponentFuncIdx
}

func (PrimitiveValueType) isComponentType() {}
func (*RecordType) isComponentType()        {}
func (*VariantType) isComponentType()       {}
func (*ListType) isComponentType()          {}
func (*TupleType) isComponentType()         {}
func (*FlagsType) isComponentType()         {}
func (*EnumType) isComponentType()          {}
func (*OptionType) isComponentType()        {}
func (*ResultType) isComponentType()        {}
func (*OwnedType) isComponentType()         {}
func (*BorrowedType) isComponentType()      {}
func (*FuncType) isComponentType()          {}
func (ComponentTypeDecls) isComponentType() {}
func (InstanceTypeDecls) isComponentType()  {}
func (*ResourceType) isComponentType()      {}

// TypeDeclaration is a declaration inside a component or instance type.
// Import declarations only occur in component types.
type TypeDeclaration interface {
	isTypeDeclaration()
}

type DeclCoreType struct {
	Type *CoreType
}

type DeclType struct {
	Type ComponentType
}

type DeclAlias struct {
	Alias Alias
}

type DeclImport struct {
	Import *Import
}

type DeclExport struct {
	Name string
	Desc ComponentTypeRef
}

func (DeclCoreType) isTypeDeclaration() {}
func (DeclType) isTypeDeclaration()     {}
func (DeclAlias) isTypeDeclaration()    {}
func (DeclImport) isTypeDeclaration()   {}
func (DeclExport) isTypeDeclaration()   {}

// FindExport returns the descriptor of the named export declaration.
func (d InstanceTypeDecls) FindExport(name string) (ComponentTypeRef, bool) {
	for _, decl := range d {
		if export, ok := decl.(DeclExport); ok && export.Name == name {
			return export.Desc, true
		}
	}
	return nil, false
}

// GetComponentType resolves a type index against the index space formed by
// the type-introducing declarations of this instance type.
func (d InstanceTypeDecls) GetComponentType(idx ComponentTypeIdx) (TypeDeclaration, bool) {
	var current ComponentTypeIdx
	for _, decl := range d {
		introduces := false
		switch t := decl.(type) {
		case DeclType:
			introduces = true
		case DeclAlias:
			switch alias := t.Alias.(type) {
			case *AliasOuter:
				introduces = alias.Kind == OuterAliasKindType
			case *AliasInstanceExport:
				introduces = alias.Kind == KindType
			}
		case DeclExport:
			_, introduces = t.Desc.(TypeRefType)
		}
		if !introduces {
			continue
		}
		if current == idx {
			return decl, true
		}
		current++
	}
	return nil, false
}

// ModuleDeclaration is a declaration inside a core module type.
type ModuleDeclaration interface {
	isModuleDeclaration()
}

type ModuleDeclType struct {
	Type *core.FuncType
}

type ModuleDeclExport struct {
	Name string
	Desc core.TypeRef
}

// ModuleDeclOuterAlias aliases a type from an enclosing component.
type ModuleDeclOuterAlias struct {
	Count uint32
	Index uint32
}

type ModuleDeclImport struct {
	Import *core.Import
}

func (ModuleDeclType) isModuleDeclaration()       {}
func (ModuleDeclExport) isModuleDeclaration()     {}
func (ModuleDeclOuterAlias) isModuleDeclaration() {}
func (ModuleDeclImport) isModuleDeclaration()     {}

// TypeBounds is the bound of an imported or exported type.
type TypeBounds interface {
	isTypeBounds()
}

// TypeBoundsEq binds the type to an existing one.
type TypeBoundsEq struct {
	TypeIdx ComponentTypeIdx
}

// TypeBoundsSubResource declares a fresh abstract resource type.
type TypeBoundsSubResource struct{}

func (TypeBoundsEq) isTypeBounds()          {}
func (TypeBoundsSubResource) isTypeBounds() {}

// ComponentTypeRef is the external descriptor of an import, export or
// export declaration.
type ComponentTypeRef interface {
	isComponentTypeRef()
	refIndexSpace() ComponentIndexSpace
}

type TypeRefModule struct{ TypeIdx ComponentTypeIdx }
type TypeRefFunc struct{ TypeIdx ComponentTypeIdx }
type TypeRefVal struct{ Type ComponentValType }
type TypeRefType struct{ Bounds TypeBounds }
type TypeRefInstance struct{ TypeIdx ComponentTypeIdx }
type TypeRefComponent struct{ TypeIdx ComponentTypeIdx }

func (TypeRefModule) isComponentTypeRef()    {}
func (TypeRefFunc) isComponentTypeRef()      {}
func (TypeRefVal) isComponentTypeRef()       {}
func (TypeRefType) isComponentTypeRef()      {}
func (TypeRefInstance) isComponentTypeRef()  {}
func (TypeRefComponent) isComponentTypeRef() {}

func (TypeRefModule) refIndexSpace() ComponentIndexSpace    { return SpaceModule }
func (TypeRefFunc) refIndexSpace() ComponentIndexSpace      { return SpaceFunc }
func (TypeRefVal) refIndexSpace() ComponentIndexSpace       { return SpaceValue }
func (TypeRefType) refIndexSpace() ComponentIndexSpace      { return SpaceType }
func (TypeRefInstance) refIndexSpace() ComponentIndexSpace  { return SpaceInstance }
func (TypeRefComponent) refIndexSpace() ComponentIndexSpace { return SpaceComponent }

// ComponentExternalKind is the sort of a definition referenced by an
// export, an instantiation argument or an alias.
type ComponentExternalKind byte

const (
	KindModule ComponentExternalKind = iota
	KindFunc
	KindValue
	KindType
	KindInstance
	KindComponent
)

func (k ComponentExternalKind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindFunc:
		return "func"
	case KindValue:
		return "value"
	case KindType:
		return "type"
	case KindInstance:
		return "instance"
	case KindComponent:
		return "component"
	}
	return "unknown"
}

func (k ComponentExternalKind) indexSpace() ComponentIndexSpace {
	switch k {
	case KindModule:
		return SpaceModule
	case KindFunc:
		return SpaceFunc
	case KindValue:
		return SpaceValue
	case KindType:
		return SpaceType
	case KindInstance:
		return SpaceInstance
	}
	return SpaceComponent
}

// OuterAliasKind is the sort of a definition aliased from an enclosing
// component.
type OuterAliasKind byte

const (
	OuterAliasKindCoreModule OuterAliasKind = iota
	OuterAliasKindCoreType
	OuterAliasKindType
	OuterAliasKindComponent
)

// CanonicalOption adjusts how a canonical function adapter lifts or lowers
// values.
type CanonicalOption interface {
	isCanonicalOption()
}

type CanonicalOptionUtf8 struct{}
type CanonicalOptionUtf16 struct{}
type CanonicalOptionCompactUtf16 struct{}
type CanonicalOptionMemory struct{ MemIdx core.MemIdx }
type CanonicalOptionRealloc struct{ FuncIdx core.FuncIdx }
type CanonicalOptionPostReturn struct{ FuncIdx core.FuncIdx }

func (CanonicalOptionUtf8) isCanonicalOption()         {}
func (CanonicalOptionUtf16) isCanonicalOption()        {}
func (CanonicalOptionCompactUtf16) isCanonicalOption() {}
func (CanonicalOptionMemory) isCanonicalOption()       {}
func (CanonicalOptionRealloc) isCanonicalOption()      {}
func (CanonicalOptionPostReturn) isCanonicalOption()   {}
