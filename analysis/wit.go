package analysis

import (
	"fmt"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-ast/errors"
)

// ToWitType converts an analysed type into its WIT representation. Resource
// handles lose their identity: WIT has no stable equivalent for the
// run-unique resource ids the analysis assigns.
func ToWitType(typ AnalysedType) (wit.Type, error) {
	switch t := typ.(type) {
	case TypeBool:
		return wit.Bool{}, nil
	case TypeS8:
		return wit.S8{}, nil
	case TypeU8:
		return wit.U8{}, nil
	case TypeS16:
		return wit.S16{}, nil
	case TypeU16:
		return wit.U16{}, nil
	case TypeS32:
		return wit.S32{}, nil
	case TypeU32:
		return wit.U32{}, nil
	case TypeS64:
		return wit.S64{}, nil
	case TypeU64:
		return wit.U64{}, nil
	case TypeF32:
		return wit.F32{}, nil
	case TypeF64:
		return wit.F64{}, nil
	case TypeChr:
		return wit.Char{}, nil
	case TypeStr:
		return wit.String{}, nil
	case *TypeList:
		inner, err := ToWitType(t.Inner)
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Name: t.Name, Kind: &wit.List{Type: inner}}, nil
	case *TypeTuple:
		types := make([]wit.Type, 0, len(t.Items))
		for _, item := range t.Items {
			inner, err := ToWitType(item)
			if err != nil {
				return nil, err
			}
			types = append(types, inner)
		}
		return &wit.TypeDef{Name: t.Name, Kind: &wit.Tuple{Types: types}}, nil
	case *TypeRecord:
		fields := make([]wit.Field, 0, len(t.Fields))
		for _, field := range t.Fields {
			inner, err := ToWitType(field.Typ)
			if err != nil {
				return nil, err
			}
			fields = append(fields, wit.Field{Name: field.Name, Type: inner})
		}
		return &wit.TypeDef{Name: t.Name, Kind: &wit.Record{Fields: fields}}, nil
	case *TypeVariant:
		cases := make([]wit.Case, 0, len(t.Cases))
		for _, variantCase := range t.Cases {
			witCase := wit.Case{Name: variantCase.Name}
			if variantCase.Typ != nil {
				inner, err := ToWitType(variantCase.Typ)
				if err != nil {
					return nil, err
				}
				witCase.Type = inner
			}
			cases = append(cases, witCase)
		}
		return &wit.TypeDef{Name: t.Name, Kind: &wit.Variant{Cases: cases}}, nil
	case *TypeEnum:
		cases := make([]wit.EnumCase, 0, len(t.Cases))
		for _, name := range t.Cases {
			cases = append(cases, wit.EnumCase{Name: name})
		}
		return &wit.TypeDef{Name: t.Name, Kind: &wit.Enum{Cases: cases}}, nil
	case *TypeFlags:
		flags := make([]wit.Flag, 0, len(t.Names))
		for _, name := range t.Names {
			flags = append(flags, wit.Flag{Name: name})
		}
		return &wit.TypeDef{Name: t.Name, Kind: &wit.Flags{Flags: flags}}, nil
	case *TypeOption:
		inner, err := ToWitType(t.Inner)
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Name: t.Name, Kind: &wit.Option{Type: inner}}, nil
	case *TypeResult:
		result := &wit.Result{}
		if t.Ok != nil {
			ok, err := ToWitType(t.Ok)
			if err != nil {
				return nil, err
			}
			result.OK = ok
		}
		if t.Err != nil {
			errArm, err := ToWitType(t.Err)
			if err != nil {
				return nil, err
			}
			result.Err = errArm
		}
		return &wit.TypeDef{Name: t.Name, Kind: result}, nil
	case TypeHandle:
		switch t.Mode {
		case ResourceModeOwned:
			return &wit.TypeDef{Name: t.Name, Kind: &wit.Own{Type: nil}}, nil
		case ResourceModeBorrowed:
			return &wit.TypeDef{Name: t.Name, Kind: &wit.Borrow{Type: nil}}, nil
		}
	}
	return nil, errors.Internal(errors.PhaseAnalysis, "no WIT representation for analysed type")
}

// WitTypeResolver converts wit type graphs into the analysed model. It
// assigns run-unique resource ids to the resource types it encounters;
// ids are not stable across resolvers.
type WitTypeResolver struct {
	resourceIDs map[*wit.TypeDef]AnalysedResourceId
}

func NewWitTypeResolver() *WitTypeResolver {
	return &WitTypeResolver{resourceIDs: make(map[*wit.TypeDef]AnalysedResourceId)}
}

// FromWitType converts a wit type into an analysed type. Named types
// carry their declaration name and the interface or world that declared
// them; type aliases are unwrapped to their target.
func (r *WitTypeResolver) FromWitType(typ wit.Type) (AnalysedType, error) {
	switch t := typ.(type) {
	case wit.Bool:
		return Bool(), nil
	case wit.S8:
		return S8(), nil
	case wit.U8:
		return U8(), nil
	case wit.S16:
		return S16(), nil
	case wit.U16:
		return U16(), nil
	case wit.S32:
		return S32(), nil
	case wit.U32:
		return U32(), nil
	case wit.S64:
		return S64(), nil
	case wit.U64:
		return U64(), nil
	case wit.F32:
		return F32(), nil
	case wit.F64:
		return F64(), nil
	case wit.Char:
		return Chr(), nil
	case wit.String:
		return Str(), nil
	case *wit.TypeDef:
		return r.fromTypeDef(t)
	}
	return nil, errors.Internal(errors.PhaseAnalysis, "no analysed representation for WIT type")
}

func (r *WitTypeResolver) fromTypeDef(def *wit.TypeDef) (AnalysedType, error) {
	var typ AnalysedType
	switch kind := def.Kind.(type) {
	case *wit.Record:
		fields := make([]NameTypePair, 0, len(kind.Fields))
		for _, field := range kind.Fields {
			inner, err := r.FromWitType(field.Type)
			if err != nil {
				return nil, err
			}
			fields = append(fields, NameTypePair{Name: field.Name, Typ: inner})
		}
		typ = &TypeRecord{Fields: fields}
	case *wit.Variant:
		cases := make([]NameOptionTypePair, 0, len(kind.Cases))
		for _, variantCase := range kind.Cases {
			pair := NameOptionTypePair{Name: variantCase.Name}
			if variantCase.Type != nil {
				inner, err := r.FromWitType(variantCase.Type)
				if err != nil {
					return nil, err
				}
				pair.Typ = inner
			}
			cases = append(cases, pair)
		}
		typ = &TypeVariant{Cases: cases}
	case *wit.Enum:
		names := make([]string, 0, len(kind.Cases))
		for _, enumCase := range kind.Cases {
			names = append(names, enumCase.Name)
		}
		typ = &TypeEnum{Cases: names}
	case *wit.Flags:
		names := make([]string, 0, len(kind.Flags))
		for _, flag := range kind.Flags {
			names = append(names, flag.Name)
		}
		typ = &TypeFlags{Names: names}
	case *wit.Tuple:
		items := make([]AnalysedType, 0, len(kind.Types))
		for _, item := range kind.Types {
			inner, err := r.FromWitType(item)
			if err != nil {
				return nil, err
			}
			items = append(items, inner)
		}
		typ = &TypeTuple{Items: items}
	case *wit.List:
		inner, err := r.FromWitType(kind.Type)
		if err != nil {
			return nil, err
		}
		typ = &TypeList{Inner: inner}
	case *wit.Option:
		inner, err := r.FromWitType(kind.Type)
		if err != nil {
			return nil, err
		}
		typ = &TypeOption{Inner: inner}
	case *wit.Result:
		result := &TypeResult{}
		if kind.OK != nil {
			ok, err := r.FromWitType(kind.OK)
			if err != nil {
				return nil, err
			}
			result.Ok = ok
		}
		if kind.Err != nil {
			errArm, err := r.FromWitType(kind.Err)
			if err != nil {
				return nil, err
			}
			result.Err = errArm
		}
		typ = result
	case *wit.Own:
		return r.handleType(kind.Type, ResourceModeOwned, def.Name)
	case *wit.Borrow:
		return r.handleType(kind.Type, ResourceModeBorrowed, def.Name)
	case *wit.Resource:
		return nil, errors.Internal(errors.PhaseAnalysis, "no analysed representation for a bare resource type")
	case wit.Type:
		// A type alias: resolve to the aliased type.
		return r.FromWitType(kind)
	default:
		return nil, errors.Internal(errors.PhaseAnalysis,
			fmt.Sprintf("no analysed representation for WIT type kind %T", def.Kind))
	}

	if target := typeNameOf(typ); target != nil {
		if def.Name != nil {
			target.Name = def.Name
		}
		target.Owner = ownerName(def.Owner)
	}
	return typ, nil
}

// handleType builds a resource handle. Its name and owner come from the
// resource declaration the handle points at, falling back to the handle
// definition's own name when the resource is anonymous.
func (r *WitTypeResolver) handleType(def *wit.TypeDef, mode AnalysedResourceMode, handleName *string) (AnalysedType, error) {
	if def == nil {
		return nil, errors.Internal(errors.PhaseAnalysis, "handle type without a resource target")
	}
	handle := TypeHandle{ResourceID: r.resourceID(def), Mode: mode}
	handle.Name = handleName
	resource := followWitAliases(def)
	if resource.Name != nil {
		handle.Name = resource.Name
	}
	handle.Owner = ownerName(resource.Owner)
	return handle, nil
}

func (r *WitTypeResolver) resourceID(def *wit.TypeDef) AnalysedResourceId {
	if id, ok := r.resourceIDs[def]; ok {
		return id
	}
	id := AnalysedResourceId(len(r.resourceIDs))
	r.resourceIDs[def] = id
	return id
}

func followWitAliases(def *wit.TypeDef) *wit.TypeDef {
	for {
		inner, ok := def.Kind.(*wit.TypeDef)
		if !ok {
			return def
		}
		def = inner
	}
}

// ownerName renders a type owner: worlds by name, interfaces qualified
// by their package.
func ownerName(owner wit.TypeOwner) *string {
	switch o := owner.(type) {
	case *wit.World:
		return &o.Name
	case *wit.Interface:
		if o.Name == nil {
			return nil
		}
		if o.Package == nil {
			return o.Name
		}
		qualified := fmt.Sprintf("%s/%s", o.Package.Name.String(), *o.Name)
		return &qualified
	}
	return nil
}
