package component

import (
	"fmt"

	"github.com/wippyai/wasm-ast/core"
	"github.com/wippyai/wasm-ast/errors"
	"github.com/wippyai/wasm-ast/internal/binary"
)

// Encode serializes a component back to its binary form. Nested core
// modules and components are re-encoded recursively, so edits made
// anywhere in the tree survive the round trip.
func Encode(component *Component) ([]byte, error) {
	w := binary.NewWriter()
	w.WriteU32LE(core.Magic)
	w.WriteU32LE(Version)

	for _, group := range component.IntoGrouped() {
		if err := encodeGroup(w, group.Type, group.Sections); err != nil {
			return nil, fmt.Errorf("Error encoding component: %w", err)
		}
	}
	return w.Bytes(), nil
}

func encodeGroup(w *binary.Writer, kind ComponentSectionType, sections []ComponentSection) error {
	payload := binary.NewWriter()

	switch kind {
	case SecCustom:
		custom := sections[0].(*Custom)
		payload.WriteName(custom.Name)
		payload.WriteBytes(custom.Data)
		writeSection(w, sectionIDCustom, payload.Bytes())
		return nil
	case SecModule:
		module := sections[0].(*Module)
		encoded, err := core.Encode(module.Module)
		if err != nil {
			return err
		}
		writeSection(w, sectionIDModule, encoded)
		return nil
	case SecComponent:
		nested := sections[0].(*Component)
		encoded, err := Encode(nested)
		if err != nil {
			return err
		}
		writeSection(w, sectionIDComponent, encoded)
		return nil
	case SecStart:
		start := sections[0].(*Start)
		payload.WriteU32(start.FuncIdx)
		payload.WriteU32(uint32(len(start.Args)))
		for _, arg := range start.Args {
			payload.WriteU32(arg)
		}
		payload.WriteU32(start.Results)
		writeSection(w, sectionIDStart, payload.Bytes())
		return nil
	}

	payload.WriteU32(uint32(len(sections)))
	for _, section := range sections {
		if err := encodeSection(payload, section); err != nil {
			return err
		}
	}
	writeSection(w, sectionIDFor(kind), payload.Bytes())
	return nil
}

func sectionIDFor(kind ComponentSectionType) byte {
	switch kind {
	case SecCoreInstance:
		return sectionIDCoreInstance
	case SecCoreType:
		return sectionIDCoreType
	case SecInstance:
		return sectionIDInstance
	case SecAlias:
		return sectionIDAlias
	case SecType:
		return sectionIDType
	case SecCanon:
		return sectionIDCanon
	case SecImport:
		return sectionIDImport
	case SecExport:
		return sectionIDExport
	}
	return sectionIDCustom
}

func writeSection(w *binary.Writer, id byte, payload []byte) {
	w.Byte(id)
	w.WriteByteVector(payload)
}

func encodeSection(w *binary.Writer, section ComponentSection) error {
	switch s := section.(type) {
	case CoreInstance:
		return writeCoreInstance(w, s)
	case *CoreType:
		return writeCoreType(w, s)
	case Instance:
		return writeInstance(w, s)
	case Alias:
		return writeAlias(w, s)
	case ComponentType:
		return writeComponentType(w, s)
	case Canon:
		return writeCanon(w, s)
	case *Import:
		return writeComponentImport(w, s)
	case *Export:
		return writeComponentExport(w, s)
	}
	return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected section node %T", section))
}

func writeCoreInstance(w *binary.Writer, instance CoreInstance) error {
	switch inst := instance.(type) {
	case *CoreInstantiate:
		w.Byte(0x00)
		w.WriteU32(inst.ModuleIdx)
		w.WriteU32(uint32(len(inst.Args)))
		for _, arg := range inst.Args {
			w.WriteName(arg.Name)
			w.Byte(0x12)
			w.WriteU32(arg.Instance)
		}
		return nil
	case *CoreInstanceFromExports:
		w.Byte(0x01)
		w.WriteU32(uint32(len(inst.Exports)))
		for _, export := range inst.Exports {
			w.WriteName(export.Name)
			w.Byte(byte(export.Desc.Kind))
			w.WriteU32(export.Desc.Idx)
		}
		return nil
	}
	return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected core instance node %T", instance))
}

func writeCoreType(w *binary.Writer, coreType *CoreType) error {
	if coreType.Func != nil {
		return core.WriteFuncType(w, coreType.Func)
	}
	w.Byte(0x50)
	w.WriteU32(uint32(len(coreType.Module)))
	for _, decl := range coreType.Module {
		if err := writeModuleDeclaration(w, decl); err != nil {
			return err
		}
	}
	return nil
}

func writeModuleDeclaration(w *binary.Writer, decl ModuleDeclaration) error {
	switch d := decl.(type) {
	case ModuleDeclImport:
		w.Byte(0x00)
		return core.WriteImport(w, d.Import)
	case ModuleDeclType:
		w.Byte(0x01)
		return core.WriteFuncType(w, d.Type)
	case ModuleDeclOuterAlias:
		w.Byte(0x02)
		w.Byte(0x10)
		w.Byte(0x01)
		w.WriteU32(d.Count)
		w.WriteU32(d.Index)
		return nil
	case ModuleDeclExport:
		w.Byte(0x03)
		w.WriteName(d.Name)
		return core.WriteTypeRef(w, d.Desc)
	}
	return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected module declaration %T", decl))
}

func writeInstance(w *binary.Writer, instance Instance) error {
	switch inst := instance.(type) {
	case *Instantiate:
		w.Byte(0x00)
		w.WriteU32(inst.ComponentIdx)
		w.WriteU32(uint32(len(inst.Args)))
		for _, arg := range inst.Args {
			w.WriteName(arg.Name)
			if err := writeSort(w, arg.Kind); err != nil {
				return err
			}
			w.WriteU32(arg.Idx)
		}
		return nil
	case *InstanceFromExports:
		w.Byte(0x01)
		w.WriteU32(uint32(len(inst.Exports)))
		for _, export := range inst.Exports {
			writeExternName(w, export.Name)
			if err := writeSort(w, export.Kind); err != nil {
				return err
			}
			w.WriteU32(export.Idx)
		}
		return nil
	}
	return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected instance node %T", instance))
}

func writeSort(w *binary.Writer, kind ComponentExternalKind) error {
	switch kind {
	case KindModule:
		w.Byte(0x00)
		w.Byte(0x11)
	case KindFunc:
		w.Byte(0x01)
	case KindValue:
		w.Byte(0x02)
	case KindType:
		w.Byte(0x03)
	case KindComponent:
		w.Byte(0x04)
	case KindInstance:
		w.Byte(0x05)
	default:
		return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected external kind %v", kind))
	}
	return nil
}

func writeExternName(w *binary.Writer, name string) {
	w.Byte(0x00)
	w.WriteName(name)
}

func writeAlias(w *binary.Writer, alias Alias) error {
	switch a := alias.(type) {
	case *AliasInstanceExport:
		if err := writeSort(w, a.Kind); err != nil {
			return err
		}
		w.Byte(0x00)
		w.WriteU32(a.InstanceIdx)
		w.WriteName(a.Name)
		return nil
	case *AliasCoreInstanceExport:
		w.Byte(0x00)
		w.Byte(byte(a.Kind))
		w.Byte(0x01)
		w.WriteU32(a.InstanceIdx)
		w.WriteName(a.Name)
		return nil
	case *AliasOuter:
		switch a.Kind {
		case OuterAliasKindCoreModule:
			w.Byte(0x00)
			w.Byte(0x11)
		case OuterAliasKindCoreType:
			w.Byte(0x00)
			w.Byte(0x10)
		case OuterAliasKindType:
			w.Byte(0x03)
		case OuterAliasKindComponent:
			w.Byte(0x04)
		default:
			return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected outer alias kind %v", a.Kind))
		}
		w.Byte(0x02)
		w.WriteU32(a.Count)
		w.WriteU32(a.Index)
		return nil
	}
	return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected alias node %T", alias))
}

func writeComponentType(w *binary.Writer, componentType ComponentType) error {
	switch t := componentType.(type) {
	case *FuncType:
		return writeFuncType(w, t)
	case ComponentTypeDecls:
		w.Byte(0x41)
		w.WriteU32(uint32(len(t)))
		for _, decl := range t {
			if err := writeTypeDeclaration(w, decl); err != nil {
				return err
			}
		}
		return nil
	case InstanceTypeDecls:
		w.Byte(0x42)
		w.WriteU32(uint32(len(t)))
		for _, decl := range t {
			if err := writeTypeDeclaration(w, decl); err != nil {
				return err
			}
		}
		return nil
	case *ResourceType:
		w.Byte(0x3f)
		w.Byte(byte(t.Representation))
		if t.Destructor != nil {
			w.Byte(0x01)
			w.WriteU32(*t.Destructor)
		} else {
			w.Byte(0x00)
		}
		return nil
	}
	if defined, ok := componentType.(ComponentDefinedType); ok {
		return writeDefinedType(w, defined)
	}
	return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected component type %T", componentType))
}

func writeFuncType(w *binary.Writer, ft *FuncType) error {
	w.Byte(0x40)
	w.WriteU32(uint32(len(ft.Params)))
	for _, param := range ft.Params {
		w.WriteName(param.Name)
		if err := writeValTypeRef(w, param.Type); err != nil {
			return err
		}
	}
	if ft.Result.Named != nil {
		w.Byte(0x01)
		w.WriteU32(uint32(len(ft.Result.Named)))
		for _, named := range ft.Result.Named {
			w.WriteName(named.Name)
			if err := writeValTypeRef(w, named.Type); err != nil {
				return err
			}
		}
		return nil
	}
	w.Byte(0x00)
	return writeValTypeRef(w, ft.Result.Unnamed)
}

func writeTypeDeclaration(w *binary.Writer, decl TypeDeclaration) error {
	switch d := decl.(type) {
	case DeclCoreType:
		w.Byte(0x00)
		return writeCoreType(w, d.Type)
	case DeclType:
		w.Byte(0x01)
		return writeComponentType(w, d.Type)
	case DeclAlias:
		w.Byte(0x02)
		return writeAlias(w, d.Alias)
	case DeclImport:
		w.Byte(0x03)
		return writeComponentImport(w, d.Import)
	case DeclExport:
		w.Byte(0x04)
		writeExternName(w, d.Name)
		return writeTypeRef(w, d.Desc)
	}
	return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected type declaration %T", decl))
}

func writeDefinedType(w *binary.Writer, defined ComponentDefinedType) error {
	switch t := defined.(type) {
	case PrimitiveValueType:
		w.Byte(byte(t))
		return nil
	case *RecordType:
		w.Byte(0x72)
		w.WriteU32(uint32(len(t.Fields)))
		for _, field := range t.Fields {
			w.WriteName(field.Name)
			if err := writeValTypeRef(w, field.Type); err != nil {
				return err
			}
		}
		return nil
	case *VariantType:
		w.Byte(0x71)
		w.WriteU32(uint32(len(t.Cases)))
		for _, variantCase := range t.Cases {
			w.WriteName(variantCase.Name)
			if err := writeOptionalValType(w, variantCase.Type); err != nil {
				return err
			}
			if variantCase.Refines != nil {
				w.Byte(0x01)
				w.WriteU32(*variantCase.Refines)
			} else {
				w.Byte(0x00)
			}
		}
		return nil
	case *ListType:
		w.Byte(0x70)
		return writeValTypeRef(w, t.Elem)
	case *TupleType:
		w.Byte(0x6f)
		w.WriteU32(uint32(len(t.Elems)))
		for _, elem := range t.Elems {
			if err := writeValTypeRef(w, elem); err != nil {
				return err
			}
		}
		return nil
	case *FlagsType:
		w.Byte(0x6e)
		writeNameVec(w, t.Names)
		return nil
	case *EnumType:
		w.Byte(0x6d)
		writeNameVec(w, t.Names)
		return nil
	case *OptionType:
		w.Byte(0x6b)
		return writeValTypeRef(w, t.Type)
	case *ResultType:
		w.Byte(0x6a)
		if err := writeOptionalValType(w, t.Ok); err != nil {
			return err
		}
		return writeOptionalValType(w, t.Err)
	case *OwnedType:
		w.Byte(0x69)
		w.WriteU32(t.TypeIdx)
		return nil
	case *BorrowedType:
		w.Byte(0x68)
		w.WriteU32(t.TypeIdx)
		return nil
	}
	return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected defined type %T", defined))
}

func writeOptionalValType(w *binary.Writer, vt ComponentValType) error {
	if vt == nil {
		w.Byte(0x00)
		return nil
	}
	w.Byte(0x01)
	return writeValTypeRef(w, vt)
}

func writeValTypeRef(w *binary.Writer, vt ComponentValType) error {
	switch t := vt.(type) {
	case PrimitiveValueType:
		w.Byte(byte(t))
		return nil
	case DefinedValType:
		w.WriteS64(int64(t))
		return nil
	}
	return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected value type %T", vt))
}

func writeNameVec(w *binary.Writer, names []string) {
	w.WriteU32(uint32(len(names)))
	for _, name := range names {
		w.WriteName(name)
	}
}

func writeTypeRef(w *binary.Writer, ref ComponentTypeRef) error {
	switch r := ref.(type) {
	case TypeRefModule:
		w.Byte(0x00)
		w.Byte(0x11)
		w.WriteU32(r.TypeIdx)
		return nil
	case TypeRefFunc:
		w.Byte(0x01)
		w.WriteU32(r.TypeIdx)
		return nil
	case TypeRefVal:
		w.Byte(0x02)
		return writeValTypeRef(w, r.Type)
	case TypeRefType:
		w.Byte(0x03)
		switch bounds := r.Bounds.(type) {
		case TypeBoundsEq:
			w.Byte(0x00)
			w.WriteU32(bounds.TypeIdx)
		case TypeBoundsSubResource:
			w.Byte(0x01)
		default:
			return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected type bounds %T", r.Bounds))
		}
		return nil
	case TypeRefComponent:
		w.Byte(0x04)
		w.WriteU32(r.TypeIdx)
		return nil
	case TypeRefInstance:
		w.Byte(0x05)
		w.WriteU32(r.TypeIdx)
		return nil
	}
	return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected descriptor %T", ref))
}

func writeCanon(w *binary.Writer, canon Canon) error {
	switch c := canon.(type) {
	case *CanonLift:
		w.Byte(0x00)
		w.Byte(0x00)
		w.WriteU32(c.FuncIdx)
		if err := writeCanonicalOptions(w, c.Opts); err != nil {
			return err
		}
		w.WriteU32(c.FunctionType)
		return nil
	case *CanonLower:
		w.Byte(0x01)
		w.Byte(0x00)
		w.WriteU32(c.FuncIdx)
		return writeCanonicalOptions(w, c.Opts)
	case *CanonResourceNew:
		w.Byte(0x02)
		w.WriteU32(c.TypeIdx)
		return nil
	case *CanonResourceDrop:
		w.Byte(0x03)
		w.WriteU32(c.TypeIdx)
		return nil
	case *CanonResourceRep:
		w.Byte(0x04)
		w.WriteU32(c.TypeIdx)
		return nil
	}
	return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected canonical function %T", canon))
}

func writeCanonicalOptions(w *binary.Writer, opts []CanonicalOption) error {
	w.WriteU32(uint32(len(opts)))
	for _, opt := range opts {
		switch o := opt.(type) {
		case CanonicalOptionUtf8:
			w.Byte(0x00)
		case CanonicalOptionUtf16:
			w.Byte(0x01)
		case CanonicalOptionCompactUtf16:
			w.Byte(0x02)
		case CanonicalOptionMemory:
			w.Byte(0x03)
			w.WriteU32(o.MemIdx)
		case CanonicalOptionRealloc:
			w.Byte(0x04)
			w.WriteU32(o.FuncIdx)
		case CanonicalOptionPostReturn:
			w.Byte(0x05)
			w.WriteU32(o.FuncIdx)
		default:
			return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected canonical option %T", opt))
		}
	}
	return nil
}

func writeComponentImport(w *binary.Writer, imp *Import) error {
	writeExternName(w, imp.Name)
	return writeTypeRef(w, imp.Desc)
}

func writeComponentExport(w *binary.Writer, export *Export) error {
	writeExternName(w, export.Name)
	if err := writeSort(w, export.Kind); err != nil {
		return err
	}
	w.WriteU32(export.Idx)
	if export.Desc != nil {
		w.Byte(0x01)
		return writeTypeRef(w, export.Desc)
	}
	w.Byte(0x00)
	return nil
}
