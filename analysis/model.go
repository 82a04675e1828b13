package analysis

import (
	"fmt"
	"strings"

	"github.com/wippyai/wasm-ast/component"
)

// AnalysedType is the recovered WIT-shaped type tree of an exported
// function signature.
type AnalysedType interface {
	isAnalysedType()
}

type TypeBool struct{}
type TypeS8 struct{}
type TypeU8 struct{}
type TypeS16 struct{}
type TypeU16 struct{}
type TypeS32 struct{}
type TypeU32 struct{}
type TypeS64 struct{}
type TypeU64 struct{}
type TypeF32 struct{}
type TypeF64 struct{}
type TypeChr struct{}
type TypeStr struct{}

// TypeName is the optional WIT declaration name of a type together with
// the interface or world that declared it. Anonymous types carry neither.
type TypeName struct {
	Name  *string
	Owner *string
}

type TypeList struct {
	TypeName
	Inner AnalysedType
}

type TypeTuple struct {
	TypeName
	Items []AnalysedType
}

// NameTypePair is a named field of a record type.
type NameTypePair struct {
	Name string
	Typ  AnalysedType
}

type TypeRecord struct {
	TypeName
	Fields []NameTypePair
}

// NameOptionTypePair is a variant case; Typ is nil for unit cases.
type NameOptionTypePair struct {
	Name string
	Typ  AnalysedType
}

type TypeVariant struct {
	TypeName
	Cases []NameOptionTypePair
}

type TypeFlags struct {
	TypeName
	Names []string
}

type TypeEnum struct {
	TypeName
	Cases []string
}

type TypeOption struct {
	TypeName
	Inner AnalysedType
}

// TypeResult has nil-able arms; a nil Ok or Err arm carries no payload.
type TypeResult struct {
	TypeName
	Ok  AnalysedType
	Err AnalysedType
}

// AnalysedResourceId identifies a resource within one analysis run. It is
// not stable across separate analyses.
type AnalysedResourceId uint64

type AnalysedResourceMode int

const (
	ResourceModeOwned AnalysedResourceMode = iota
	ResourceModeBorrowed
)

func (m AnalysedResourceMode) String() string {
	if m == ResourceModeBorrowed {
		return "borrowed"
	}
	return "owned"
}

type TypeHandle struct {
	TypeName
	ResourceID AnalysedResourceId
	Mode       AnalysedResourceMode
}

func (TypeBool) isAnalysedType()    {}
func (TypeS8) isAnalysedType()      {}
func (TypeU8) isAnalysedType()      {}
func (TypeS16) isAnalysedType()     {}
func (TypeU16) isAnalysedType()     {}
func (TypeS32) isAnalysedType()     {}
func (TypeU32) isAnalysedType()     {}
func (TypeS64) isAnalysedType()     {}
func (TypeU64) isAnalysedType()     {}
func (TypeF32) isAnalysedType()     {}
func (TypeF64) isAnalysedType()     {}
func (TypeChr) isAnalysedType()     {}
func (TypeStr) isAnalysedType()     {}
func (*TypeList) isAnalysedType()   {}
func (*TypeTuple) isAnalysedType()  {}
func (*TypeRecord) isAnalysedType() {}
func (*TypeVariant) isAnalysedType() {}
func (*TypeFlags) isAnalysedType()   {}
func (*TypeEnum) isAnalysedType()    {}
func (*TypeOption) isAnalysedType()  {}
func (*TypeResult) isAnalysedType()  {}
func (TypeHandle) isAnalysedType()   {}

// Builder helpers for constructing analysed types in tests and tooling.

func Bool() AnalysedType { return TypeBool{} }
func S8() AnalysedType   { return TypeS8{} }
func U8() AnalysedType   { return TypeU8{} }
func S16() AnalysedType  { return TypeS16{} }
func U16() AnalysedType  { return TypeU16{} }
func S32() AnalysedType  { return TypeS32{} }
func U32() AnalysedType  { return TypeU32{} }
func S64() AnalysedType  { return TypeS64{} }
func U64() AnalysedType  { return TypeU64{} }
func F32() AnalysedType  { return TypeF32{} }
func F64() AnalysedType  { return TypeF64{} }
func Chr() AnalysedType  { return TypeChr{} }
func Str() AnalysedType  { return TypeStr{} }

func List(inner AnalysedType) AnalysedType { return &TypeList{Inner: inner} }

func Tuple(items ...AnalysedType) AnalysedType { return &TypeTuple{Items: items} }

func Field(name string, typ AnalysedType) NameTypePair {
	return NameTypePair{Name: name, Typ: typ}
}

func Record(fields ...NameTypePair) AnalysedType { return &TypeRecord{Fields: fields} }

func Case(name string, typ AnalysedType) NameOptionTypePair {
	return NameOptionTypePair{Name: name, Typ: typ}
}

func UnitCase(name string) NameOptionTypePair { return NameOptionTypePair{Name: name} }

func Variant(cases ...NameOptionTypePair) AnalysedType { return &TypeVariant{Cases: cases} }

func Flags(names ...string) AnalysedType { return &TypeFlags{Names: names} }

func Enum(cases ...string) AnalysedType { return &TypeEnum{Cases: cases} }

func Option(inner AnalysedType) AnalysedType { return &TypeOption{Inner: inner} }

// Result builds a result type; pass nil for an arm without payload.
func Result(ok, err AnalysedType) AnalysedType { return &TypeResult{Ok: ok, Err: err} }

func Handle(id AnalysedResourceId, mode AnalysedResourceMode) AnalysedType {
	return TypeHandle{ResourceID: id, Mode: mode}
}

// WithName annotates a composite type with its WIT declaration name.
// Primitive types carry no name and pass through unchanged.
func WithName(typ AnalysedType, name string) AnalysedType {
	if handle, ok := typ.(TypeHandle); ok {
		handle.Name = &name
		return handle
	}
	if target := typeNameOf(typ); target != nil {
		target.Name = &name
	}
	return typ
}

// WithOwner annotates a composite type with the interface or world that
// declared it.
func WithOwner(typ AnalysedType, owner string) AnalysedType {
	if handle, ok := typ.(TypeHandle); ok {
		handle.Owner = &owner
		return handle
	}
	if target := typeNameOf(typ); target != nil {
		target.Owner = &owner
	}
	return typ
}

func typeNameOf(typ AnalysedType) *TypeName {
	switch t := typ.(type) {
	case *TypeList:
		return &t.TypeName
	case *TypeTuple:
		return &t.TypeName
	case *TypeRecord:
		return &t.TypeName
	case *TypeVariant:
		return &t.TypeName
	case *TypeFlags:
		return &t.TypeName
	case *TypeEnum:
		return &t.TypeName
	case *TypeOption:
		return &t.TypeName
	case *TypeResult:
		return &t.TypeName
	}
	return nil
}

// AnalysedExport is a fully typed top-level export: a function or an
// instance of functions.
type AnalysedExport interface {
	isAnalysedExport()
}

type AnalysedFunctionParameter struct {
	Name string
	Typ  AnalysedType
}

// AnalysedFunctionResult is a function result; Name is nil for the
// unnamed single-result form.
type AnalysedFunctionResult struct {
	Name *string
	Typ  AnalysedType
}

type AnalysedFunction struct {
	Name       string
	Parameters []AnalysedFunctionParameter
	Results    []AnalysedFunctionResult
}

type AnalysedInstance struct {
	Name      string
	Functions []AnalysedFunction
}

func (AnalysedFunction) isAnalysedExport() {}
func (AnalysedInstance) isAnalysedExport() {}

// IsConstructor reports whether the function follows the `[constructor]`
// naming convention and returns a single owned resource handle.
func (f *AnalysedFunction) IsConstructor() bool {
	if !strings.HasPrefix(f.Name, "[constructor]") {
		return false
	}
	if len(f.Results) != 1 {
		return false
	}
	handle, ok := f.Results[0].Typ.(TypeHandle)
	return ok && handle.Mode == ResourceModeOwned
}

// IsMethod reports whether the function follows the `[method]` naming
// convention and takes a borrowed resource handle as its first parameter.
func (f *AnalysedFunction) IsMethod() bool {
	if !strings.HasPrefix(f.Name, "[method]") {
		return false
	}
	if len(f.Parameters) == 0 {
		return false
	}
	handle, ok := f.Parameters[0].Typ.(TypeHandle)
	return ok && handle.Mode == ResourceModeBorrowed
}

// IsStaticMethod reports whether the function follows the `[static]`
// naming convention.
func (f *AnalysedFunction) IsStaticMethod() bool {
	return strings.HasPrefix(f.Name, "[static]")
}

// AnalysisFailure is a hard resolution failure: a missing referenced
// section, an unsupported construct, or a type mismatch.
type AnalysisFailure struct {
	Reason string
}

func (f *AnalysisFailure) Error() string {
	return f.Reason
}

func failed(format string, args ...any) *AnalysisFailure {
	if len(args) == 0 {
		return &AnalysisFailure{Reason: format}
	}
	return &AnalysisFailure{Reason: fmt.Sprintf(format, args...)}
}

// AnalysisWarning is a non-fatal issue collected during analysis instead
// of aborting it.
type AnalysisWarning interface {
	isAnalysisWarning()
	Warning() string
}

// UnsupportedExportWarning reports an export of a kind the analyzer does
// not recover signatures for.
type UnsupportedExportWarning struct {
	Kind component.ComponentExternalKind
	Name string
}

func (UnsupportedExportWarning) isAnalysisWarning() {}

func (w UnsupportedExportWarning) Warning() string {
	return fmt.Sprintf("unsupported export kind %s for %q", w.Kind, w.Name)
}
