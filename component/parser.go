package component

import (
	"fmt"

	wasmast "github.com/wippyai/wasm-ast"
	"github.com/wippyai/wasm-ast/core"
	"github.com/wippyai/wasm-ast/errors"
	"github.com/wippyai/wasm-ast/internal/binary"
)

// Version is the component preamble word after the magic: version 0x0d in
// the low half, layer 0x01 in the high half.
const Version uint32 = 0x0001000d

// Component binary section IDs
const (
	sectionIDCustom       byte = 0
	sectionIDModule       byte = 1
	sectionIDCoreInstance byte = 2
	sectionIDCoreType     byte = 3
	sectionIDComponent    byte = 4
	sectionIDInstance     byte = 5
	sectionIDAlias        byte = 6
	sectionIDType         byte = 7
	sectionIDCanon        byte = 8
	sectionIDStart        byte = 9
	sectionIDImport       byte = 10
	sectionIDExport       byte = 11
)

const unsupportedP3 = "WASI P3 future and stream support is not supported yet"

// IsComponent reports whether the binary carries a component preamble
// rather than a core module one.
func IsComponent(data []byte) bool {
	r := binary.NewReader(data)
	magic, err := r.ReadU32LE()
	if err != nil || magic != core.Magic {
		return false
	}
	version, err := r.ReadU32LE()
	return err == nil && version == Version
}

// Parse decodes a component binary, including its preamble. Nested core
// modules and components are decoded recursively with the same
// customization.
func Parse(data []byte, custom wasmast.Customization) (*Component, error) {
	if custom == nil {
		custom = wasmast.Full
	}
	p := &componentParser{r: binary.NewReader(data), custom: custom}
	component, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("Error parsing component: %w", err)
	}
	return component, nil
}

type componentParser struct {
	r      *binary.Reader
	custom wasmast.Customization

	sections *ComponentSections
}

func (p *componentParser) parse() (*Component, error) {
	magic, err := p.r.ReadU32LE()
	if err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if magic != core.Magic {
		return nil, errors.Malformed(errors.PhaseParse, []string{"preamble"}, "invalid magic number")
	}
	version, err := p.r.ReadU32LE()
	if err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	if version != Version {
		return nil, errors.Malformed(errors.PhaseParse, []string{"preamble"},
			fmt.Sprintf("unsupported version 0x%08x", version))
	}

	p.sections = wasmast.NewSections[ComponentIndexSpace, ComponentSectionType, ComponentSection]()
	for p.r.Remaining() > 0 {
		if err := p.parseSection(); err != nil {
			return nil, err
		}
	}
	return NewComponent(p.sections, p.custom), nil
}

func (p *componentParser) parseSection() error {
	id, err := p.r.ReadByte()
	if err != nil {
		return fmt.Errorf("reading section id: %w", err)
	}
	size, err := p.r.ReadU32()
	if err != nil {
		return fmt.Errorf("reading section size: %w", err)
	}
	payload, err := p.r.ReadBytes(int(size))
	if err != nil {
		return fmt.Errorf("reading section payload: %w", err)
	}
	r := binary.NewReader(payload)

	switch id {
	case sectionIDCustom:
		return p.parseCustomSection(r)
	case sectionIDModule:
		module, err := core.Parse(payload, p.custom)
		if err != nil {
			return err
		}
		p.sections.Add(&Module{Module: module})
		return nil
	case sectionIDCoreInstance:
		return p.parseCoreInstanceSection(r)
	case sectionIDCoreType:
		return p.parseCoreTypeSection(r)
	case sectionIDComponent:
		nested, err := Parse(payload, p.custom)
		if err != nil {
			return err
		}
		p.sections.Add(nested)
		return nil
	case sectionIDInstance:
		return p.parseInstanceSection(r)
	case sectionIDAlias:
		return p.parseAliasSection(r)
	case sectionIDType:
		return p.parseTypeSection(r)
	case sectionIDCanon:
		return p.parseCanonSection(r)
	case sectionIDStart:
		return p.parseStartSection(r)
	case sectionIDImport:
		return p.parseImportSection(r)
	case sectionIDExport:
		return p.parseExportSection(r)
	}
	return errors.Malformed(errors.PhaseParse, nil, fmt.Sprintf("unknown section id %d", id))
}

func (p *componentParser) parseCustomSection(r *binary.Reader) error {
	name, err := r.ReadName()
	if err != nil {
		return fmt.Errorf("Error parsing custom section: %w", err)
	}
	data, err := r.ReadRemaining()
	if err != nil {
		return fmt.Errorf("Error parsing custom section %q: %w", name, err)
	}
	if p.custom.KeepCustomSection(name) {
		p.sections.Add(&Custom{Name: name, Data: data})
	}
	return nil
}

func (p *componentParser) parseCoreInstanceSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing component core instance section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		instance, err := readCoreInstance(r)
		if err != nil {
			return fmt.Errorf("Error parsing component core instance section: %w", err)
		}
		p.sections.Add(instance)
	}
	return nil
}

func readCoreInstance(r *binary.Reader) (CoreInstance, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0x00:
		moduleIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		argCount, err := readCount(r)
		if err != nil {
			return nil, err
		}
		args := make([]InstantiationArg, argCount)
		for i := range args {
			name, err := r.ReadName()
			if err != nil {
				return nil, err
			}
			kind, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			if kind != 0x12 {
				return nil, errors.Malformed(errors.PhaseParse, []string{"core instance"},
					fmt.Sprintf("invalid instantiation argument kind 0x%02x", kind))
			}
			idx, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			args[i] = InstantiationArg{Name: name, Instance: idx}
		}
		return &CoreInstantiate{ModuleIdx: moduleIdx, Args: args}, nil
	case 0x01:
		exportCount, err := readCount(r)
		if err != nil {
			return nil, err
		}
		exports := make([]*core.Export, exportCount)
		for i := range exports {
			name, err := r.ReadName()
			if err != nil {
				return nil, err
			}
			kind, err := readCoreExportKind(r)
			if err != nil {
				return nil, err
			}
			idx, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			exports[i] = &core.Export{Name: name, Desc: core.ExportDesc{Kind: kind, Idx: idx}}
		}
		return &CoreInstanceFromExports{Exports: exports}, nil
	}
	return nil, errors.Malformed(errors.PhaseParse, []string{"core instance"},
		fmt.Sprintf("invalid core instance tag 0x%02x", tag))
}

func readCoreExportKind(r *binary.Reader) (core.ExportKind, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch b {
	case 0x00, 0x01, 0x02, 0x03:
		return core.ExportKind(b), nil
	case 0x04:
		return 0, errors.Unsupported(errors.PhaseParse, "Exception handling proposal is not supported")
	}
	return 0, errors.Malformed(errors.PhaseParse, nil, fmt.Sprintf("invalid core sort 0x%02x", b))
}

func (p *componentParser) parseCoreTypeSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing component core type section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		coreType, err := readCoreType(r)
		if err != nil {
			return fmt.Errorf("Error parsing component core type section: %w", err)
		}
		p.sections.Add(coreType)
	}
	return nil
}

func readCoreType(r *binary.Reader) (*CoreType, error) {
	form, err := r.PeekByte()
	if err != nil {
		return nil, err
	}
	if form != 0x50 {
		ft, err := core.ReadFuncType(r)
		if err != nil {
			return nil, err
		}
		return &CoreType{Func: ft}, nil
	}
	if _, err := r.ReadByte(); err != nil {
		return nil, err
	}
	declCount, err := readCount(r)
	if err != nil {
		return nil, err
	}
	decls := make([]ModuleDeclaration, declCount)
	for i := range decls {
		decl, err := readModuleDeclaration(r)
		if err != nil {
			return nil, err
		}
		decls[i] = decl
	}
	return &CoreType{Module: decls}, nil
}

func readModuleDeclaration(r *binary.Reader) (ModuleDeclaration, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0x00:
		imp, err := core.ReadImport(r)
		if err != nil {
			return nil, err
		}
		return ModuleDeclImport{Import: imp}, nil
	case 0x01:
		ft, err := core.ReadFuncType(r)
		if err != nil {
			return nil, err
		}
		return ModuleDeclType{Type: ft}, nil
	case 0x02:
		// Only outer type aliases exist at the core level.
		sort, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if sort != 0x10 {
			return nil, errors.Malformed(errors.PhaseParse, []string{"module declaration"},
				fmt.Sprintf("invalid core alias sort 0x%02x", sort))
		}
		target, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if target != 0x01 {
			return nil, errors.Malformed(errors.PhaseParse, []string{"module declaration"},
				fmt.Sprintf("invalid core alias target 0x%02x", target))
		}
		count, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		index, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return ModuleDeclOuterAlias{Count: count, Index: index}, nil
	case 0x03:
		name, err := r.ReadName()
		if err != nil {
			return nil, err
		}
		desc, err := core.ReadTypeRef(r)
		if err != nil {
			return nil, err
		}
		return ModuleDeclExport{Name: name, Desc: desc}, nil
	}
	return nil, errors.Malformed(errors.PhaseParse, []string{"module declaration"},
		fmt.Sprintf("invalid module declaration tag 0x%02x", tag))
}

func (p *componentParser) parseInstanceSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing component instance section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		instance, err := readInstance(r)
		if err != nil {
			return fmt.Errorf("Error parsing component instance section: %w", err)
		}
		p.sections.Add(instance)
	}
	return nil
}

func readInstance(r *binary.Reader) (Instance, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0x00:
		componentIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		argCount, err := readCount(r)
		if err != nil {
			return nil, err
		}
		args := make([]ComponentInstantiationArg, argCount)
		for i := range args {
			name, err := r.ReadName()
			if err != nil {
				return nil, err
			}
			kind, err := readSort(r)
			if err != nil {
				return nil, err
			}
			idx, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			args[i] = ComponentInstantiationArg{Name: name, Kind: kind, Idx: idx}
		}
		return &Instantiate{ComponentIdx: componentIdx, Args: args}, nil
	case 0x01:
		exportCount, err := readCount(r)
		if err != nil {
			return nil, err
		}
		exports := make([]*Export, exportCount)
		for i := range exports {
			name, err := readExternName(r)
			if err != nil {
				return nil, err
			}
			kind, err := readSort(r)
			if err != nil {
				return nil, err
			}
			idx, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			exports[i] = &Export{Name: name, Kind: kind, Idx: idx}
		}
		return &InstanceFromExports{Exports: exports}, nil
	}
	return nil, errors.Malformed(errors.PhaseParse, []string{"instance"},
		fmt.Sprintf("invalid instance tag 0x%02x", tag))
}

// readSort decodes a sort into an external kind. The core sort space only
// contributes modules here; core functions, tables, memories and globals
// are reached through core instance aliases instead.
func readSort(r *binary.Reader) (ComponentExternalKind, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch b {
	case 0x00:
		coreSort, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if coreSort != 0x11 {
			return 0, errors.Malformed(errors.PhaseParse, nil,
				fmt.Sprintf("invalid core sort 0x%02x in component context", coreSort))
		}
		return KindModule, nil
	case 0x01:
		return KindFunc, nil
	case 0x02:
		return KindValue, nil
	case 0x03:
		return KindType, nil
	case 0x04:
		return KindComponent, nil
	case 0x05:
		return KindInstance, nil
	}
	return 0, errors.Malformed(errors.PhaseParse, nil, fmt.Sprintf("invalid sort 0x%02x", b))
}

// readExternName reads an import or export name with its leading
// discriminator byte.
func readExternName(r *binary.Reader) (string, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	if kind != 0x00 && kind != 0x01 {
		return "", errors.Malformed(errors.PhaseParse, nil,
			fmt.Sprintf("invalid extern name discriminator 0x%02x", kind))
	}
	return r.ReadName()
}

func (p *componentParser) parseAliasSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing component alias section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		alias, err := readAlias(r)
		if err != nil {
			return fmt.Errorf("Error parsing component alias section: %w", err)
		}
		p.sections.Add(alias)
	}
	return nil
}

func readAlias(r *binary.Reader) (Alias, error) {
	sort, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	var coreSort byte
	if sort == 0x00 {
		coreSort, err = r.ReadByte()
		if err != nil {
			return nil, err
		}
	}
	target, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch target {
	case 0x00:
		instanceIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadName()
		if err != nil {
			return nil, err
		}
		kind, err := externalKindOfSort(sort, coreSort)
		if err != nil {
			return nil, err
		}
		return &AliasInstanceExport{Kind: kind, InstanceIdx: instanceIdx, Name: name}, nil
	case 0x01:
		if sort != 0x00 {
			return nil, errors.Malformed(errors.PhaseParse, []string{"alias"},
				fmt.Sprintf("core instance export alias with sort 0x%02x", sort))
		}
		instanceIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadName()
		if err != nil {
			return nil, err
		}
		if coreSort > 0x03 {
			if coreSort == 0x04 {
				return nil, errors.Unsupported(errors.PhaseParse, "Exception handling proposal is not supported")
			}
			return nil, errors.Malformed(errors.PhaseParse, []string{"alias"},
				fmt.Sprintf("invalid core sort 0x%02x", coreSort))
		}
		return &AliasCoreInstanceExport{Kind: core.ExportKind(coreSort), InstanceIdx: instanceIdx, Name: name}, nil
	case 0x02:
		count, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		index, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		kind, err := outerAliasKindOfSort(sort, coreSort)
		if err != nil {
			return nil, err
		}
		return &AliasOuter{Kind: kind, Count: count, Index: index}, nil
	}
	return nil, errors.Malformed(errors.PhaseParse, []string{"alias"},
		fmt.Sprintf("invalid alias target 0x%02x", target))
}

func externalKindOfSort(sort, coreSort byte) (ComponentExternalKind, error) {
	switch sort {
	case 0x00:
		if coreSort == 0x11 {
			return KindModule, nil
		}
	case 0x01:
		return KindFunc, nil
	case 0x02:
		return KindValue, nil
	case 0x03:
		return KindType, nil
	case 0x04:
		return KindComponent, nil
	case 0x05:
		return KindInstance, nil
	}
	return 0, errors.Malformed(errors.PhaseParse, []string{"alias"},
		fmt.Sprintf("invalid sort 0x%02x 0x%02x", sort, coreSort))
}

func outerAliasKindOfSort(sort, coreSort byte) (OuterAliasKind, error) {
	switch sort {
	case 0x00:
		switch coreSort {
		case 0x10:
			return OuterAliasKindCoreType, nil
		case 0x11:
			return OuterAliasKindCoreModule, nil
		}
	case 0x03:
		return OuterAliasKindType, nil
	case 0x04:
		return OuterAliasKindComponent, nil
	}
	return 0, errors.Malformed(errors.PhaseParse, []string{"alias"},
		fmt.Sprintf("invalid outer alias sort 0x%02x 0x%02x", sort, coreSort))
}

func (p *componentParser) parseTypeSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing component type section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		componentType, err := readComponentType(r)
		if err != nil {
			return fmt.Errorf("Error parsing component type section: %w", err)
		}
		p.sections.Add(componentType)
	}
	return nil
}

func readComponentType(r *binary.Reader) (ComponentType, error) {
	form, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch form {
	case 0x40:
		return readFuncType(r)
	case 0x41:
		declCount, err := readCount(r)
		if err != nil {
			return nil, err
		}
		decls := make(ComponentTypeDecls, declCount)
		for i := range decls {
			decl, err := readTypeDeclaration(r, true)
			if err != nil {
				return nil, err
			}
			decls[i] = decl
		}
		return decls, nil
	case 0x42:
		declCount, err := readCount(r)
		if err != nil {
			return nil, err
		}
		decls := make(InstanceTypeDecls, declCount)
		for i := range decls {
			decl, err := readTypeDeclaration(r, false)
			if err != nil {
				return nil, err
			}
			decls[i] = decl
		}
		return decls, nil
	case 0x3f:
		return readResourceType(r)
	}
	return readDefinedType(r, form)
}

func readFuncType(r *binary.Reader) (*FuncType, error) {
	paramCount, err := readCount(r)
	if err != nil {
		return nil, err
	}
	params := make([]NamedValType, paramCount)
	for i := range params {
		name, err := r.ReadName()
		if err != nil {
			return nil, err
		}
		vt, err := readValTypeRef(r)
		if err != nil {
			return nil, err
		}
		params[i] = NamedValType{Name: name, Type: vt}
	}
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	var result FuncResult
	switch tag {
	case 0x00:
		vt, err := readValTypeRef(r)
		if err != nil {
			return nil, err
		}
		result.Unnamed = vt
	case 0x01:
		namedCount, err := readCount(r)
		if err != nil {
			return nil, err
		}
		result.Named = make([]NamedValType, namedCount)
		for i := range result.Named {
			name, err := r.ReadName()
			if err != nil {
				return nil, err
			}
			vt, err := readValTypeRef(r)
			if err != nil {
				return nil, err
			}
			result.Named[i] = NamedValType{Name: name, Type: vt}
		}
	default:
		return nil, errors.Malformed(errors.PhaseParse, []string{"function type"},
			fmt.Sprintf("invalid result list tag 0x%02x", tag))
	}
	return &FuncType{Params: params, Result: result}, nil
}

func readTypeDeclaration(r *binary.Reader, allowImports bool) (TypeDeclaration, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0x00:
		coreType, err := readCoreType(r)
		if err != nil {
			return nil, err
		}
		return DeclCoreType{Type: coreType}, nil
	case 0x01:
		componentType, err := readComponentType(r)
		if err != nil {
			return nil, err
		}
		return DeclType{Type: componentType}, nil
	case 0x02:
		alias, err := readAlias(r)
		if err != nil {
			return nil, err
		}
		return DeclAlias{Alias: alias}, nil
	case 0x03:
		if !allowImports {
			break
		}
		imp, err := readComponentImport(r)
		if err != nil {
			return nil, err
		}
		return DeclImport{Import: imp}, nil
	case 0x04:
		name, err := readExternName(r)
		if err != nil {
			return nil, err
		}
		desc, err := readTypeRef(r)
		if err != nil {
			return nil, err
		}
		return DeclExport{Name: name, Desc: desc}, nil
	}
	return nil, errors.Malformed(errors.PhaseParse, []string{"type declaration"},
		fmt.Sprintf("invalid declaration tag 0x%02x", tag))
}

func readResourceType(r *binary.Reader) (*ResourceType, error) {
	rep, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch rep {
	case 0x7f, 0x7e, 0x7d, 0x7c, 0x7b, 0x70, 0x6f:
	default:
		return nil, errors.Malformed(errors.PhaseParse, []string{"resource type"},
			fmt.Sprintf("invalid representation type 0x%02x", rep))
	}
	dtorFlag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	resource := &ResourceType{Representation: core.ValType(rep)}
	switch dtorFlag {
	case 0x00:
	case 0x01:
		dtor, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		resource.Destructor = &dtor
	default:
		return nil, errors.Malformed(errors.PhaseParse, []string{"resource type"},
			fmt.Sprintf("invalid destructor flag 0x%02x", dtorFlag))
	}
	return resource, nil
}

func readDefinedType(r *binary.Reader, form byte) (ComponentDefinedType, error) {
	if form >= 0x73 && form <= 0x7f {
		return PrimitiveValueType(form), nil
	}
	switch form {
	case 0x72:
		fieldCount, err := readCount(r)
		if err != nil {
			return nil, err
		}
		fields := make([]NamedValType, fieldCount)
		for i := range fields {
			name, err := r.ReadName()
			if err != nil {
				return nil, err
			}
			vt, err := readValTypeRef(r)
			if err != nil {
				return nil, err
			}
			fields[i] = NamedValType{Name: name, Type: vt}
		}
		return &RecordType{Fields: fields}, nil
	case 0x71:
		caseCount, err := readCount(r)
		if err != nil {
			return nil, err
		}
		cases := make([]VariantCase, caseCount)
		for i := range cases {
			variantCase, err := readVariantCase(r)
			if err != nil {
				return nil, err
			}
			cases[i] = variantCase
		}
		return &VariantType{Cases: cases}, nil
	case 0x70:
		elem, err := readValTypeRef(r)
		if err != nil {
			return nil, err
		}
		return &ListType{Elem: elem}, nil
	case 0x6f:
		elemCount, err := readCount(r)
		if err != nil {
			return nil, err
		}
		elems := make([]ComponentValType, elemCount)
		for i := range elems {
			vt, err := readValTypeRef(r)
			if err != nil {
				return nil, err
			}
			elems[i] = vt
		}
		return &TupleType{Elems: elems}, nil
	case 0x6e:
		names, err := readNameVec(r)
		if err != nil {
			return nil, err
		}
		return &FlagsType{Names: names}, nil
	case 0x6d:
		names, err := readNameVec(r)
		if err != nil {
			return nil, err
		}
		return &EnumType{Names: names}, nil
	case 0x6b:
		vt, err := readValTypeRef(r)
		if err != nil {
			return nil, err
		}
		return &OptionType{Type: vt}, nil
	case 0x6a:
		ok, err := readOptionalValType(r)
		if err != nil {
			return nil, err
		}
		errArm, err := readOptionalValType(r)
		if err != nil {
			return nil, err
		}
		return &ResultType{Ok: ok, Err: errArm}, nil
	case 0x69:
		typeIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return &OwnedType{TypeIdx: typeIdx}, nil
	case 0x68:
		typeIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return &BorrowedType{TypeIdx: typeIdx}, nil
	case 0x66, 0x65, 0x64:
		return nil, errors.Unsupported(errors.PhaseParse, unsupportedP3)
	case 0x67:
		return nil, errors.Unsupported(errors.PhaseParse, "Fixed-size lists are not supported")
	}
	return nil, errors.Malformed(errors.PhaseParse, []string{"defined type"},
		fmt.Sprintf("invalid defined type form 0x%02x", form))
}

func readVariantCase(r *binary.Reader) (VariantCase, error) {
	name, err := r.ReadName()
	if err != nil {
		return VariantCase{}, err
	}
	typ, err := readOptionalValType(r)
	if err != nil {
		return VariantCase{}, err
	}
	refinesFlag, err := r.ReadByte()
	if err != nil {
		return VariantCase{}, err
	}
	variantCase := VariantCase{Name: name, Type: typ}
	switch refinesFlag {
	case 0x00:
	case 0x01:
		refines, err := r.ReadU32()
		if err != nil {
			return VariantCase{}, err
		}
		variantCase.Refines = &refines
	default:
		return VariantCase{}, errors.Malformed(errors.PhaseParse, []string{"variant case"},
			fmt.Sprintf("invalid refines flag 0x%02x", refinesFlag))
	}
	return variantCase, nil
}

func readOptionalValType(r *binary.Reader) (ComponentValType, error) {
	flag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch flag {
	case 0x00:
		return nil, nil
	case 0x01:
		return readValTypeRef(r)
	}
	return nil, errors.Malformed(errors.PhaseParse, nil, fmt.Sprintf("invalid option flag 0x%02x", flag))
}

// readValTypeRef decodes a value type: primitives occupy the single-byte
// negative range, everything else is a non-negative type index.
func readValTypeRef(r *binary.Reader) (ComponentValType, error) {
	b, err := r.PeekByte()
	if err != nil {
		return nil, err
	}
	if b >= 0x73 && b <= 0x7f {
		if _, err := r.ReadByte(); err != nil {
			return nil, err
		}
		return PrimitiveValueType(b), nil
	}
	if b == 0x66 || b == 0x65 || b == 0x64 {
		return nil, errors.Unsupported(errors.PhaseParse, unsupportedP3)
	}
	idx, err := r.ReadS64()
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, errors.Malformed(errors.PhaseParse, []string{"value type"},
			fmt.Sprintf("invalid value type index %d", idx))
	}
	return DefinedValType(uint32(idx)), nil
}

func readNameVec(r *binary.Reader) ([]string, error) {
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}
	names := make([]string, count)
	for i := range names {
		name, err := r.ReadName()
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	return names, nil
}

func readTypeRef(r *binary.Reader) (ComponentTypeRef, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0x00:
		coreSort, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if coreSort != 0x11 {
			return nil, errors.Malformed(errors.PhaseParse, []string{"extern descriptor"},
				fmt.Sprintf("invalid core sort 0x%02x", coreSort))
		}
		typeIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return TypeRefModule{TypeIdx: typeIdx}, nil
	case 0x01:
		typeIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return TypeRefFunc{TypeIdx: typeIdx}, nil
	case 0x02:
		vt, err := readValTypeRef(r)
		if err != nil {
			return nil, err
		}
		return TypeRefVal{Type: vt}, nil
	case 0x03:
		boundsTag, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		switch boundsTag {
		case 0x00:
			typeIdx, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			return TypeRefType{Bounds: TypeBoundsEq{TypeIdx: typeIdx}}, nil
		case 0x01:
			return TypeRefType{Bounds: TypeBoundsSubResource{}}, nil
		}
		return nil, errors.Malformed(errors.PhaseParse, []string{"extern descriptor"},
			fmt.Sprintf("invalid type bounds tag 0x%02x", boundsTag))
	case 0x04:
		typeIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return TypeRefComponent{TypeIdx: typeIdx}, nil
	case 0x05:
		typeIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return TypeRefInstance{TypeIdx: typeIdx}, nil
	}
	return nil, errors.Malformed(errors.PhaseParse, []string{"extern descriptor"},
		fmt.Sprintf("invalid descriptor tag 0x%02x", tag))
}

func (p *componentParser) parseCanonSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing component canonical section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		canon, err := readCanon(r)
		if err != nil {
			return fmt.Errorf("Error parsing component canonical section: %w", err)
		}
		p.sections.Add(canon)
	}
	return nil
}

func readCanon(r *binary.Reader) (Canon, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0x00:
		if err := readCanonSubTag(r); err != nil {
			return nil, err
		}
		funcIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		opts, err := readCanonicalOptions(r)
		if err != nil {
			return nil, err
		}
		typeIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return &CanonLift{FuncIdx: funcIdx, Opts: opts, FunctionType: typeIdx}, nil
	case 0x01:
		if err := readCanonSubTag(r); err != nil {
			return nil, err
		}
		funcIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		opts, err := readCanonicalOptions(r)
		if err != nil {
			return nil, err
		}
		return &CanonLower{FuncIdx: funcIdx, Opts: opts}, nil
	case 0x02:
		typeIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return &CanonResourceNew{TypeIdx: typeIdx}, nil
	case 0x03:
		typeIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return &CanonResourceDrop{TypeIdx: typeIdx}, nil
	case 0x04:
		typeIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return &CanonResourceRep{TypeIdx: typeIdx}, nil
	}
	return nil, errors.Unsupported(errors.PhaseParse, unsupportedP3)
}

func readCanonSubTag(r *binary.Reader) error {
	sub, err := r.ReadByte()
	if err != nil {
		return err
	}
	if sub != 0x00 {
		return errors.Malformed(errors.PhaseParse, []string{"canonical function"},
			fmt.Sprintf("invalid canonical sub-tag 0x%02x", sub))
	}
	return nil
}

func readCanonicalOptions(r *binary.Reader) ([]CanonicalOption, error) {
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}
	opts := make([]CanonicalOption, count)
	for i := range opts {
		tag, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		switch tag {
		case 0x00:
			opts[i] = CanonicalOptionUtf8{}
		case 0x01:
			opts[i] = CanonicalOptionUtf16{}
		case 0x02:
			opts[i] = CanonicalOptionCompactUtf16{}
		case 0x03:
			idx, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			opts[i] = CanonicalOptionMemory{MemIdx: idx}
		case 0x04:
			idx, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			opts[i] = CanonicalOptionRealloc{FuncIdx: idx}
		case 0x05:
			idx, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			opts[i] = CanonicalOptionPostReturn{FuncIdx: idx}
		case 0x06, 0x07:
			return nil, errors.Unsupported(errors.PhaseParse, unsupportedP3)
		default:
			return nil, errors.Malformed(errors.PhaseParse, []string{"canonical option"},
				fmt.Sprintf("invalid canonical option 0x%02x", tag))
		}
	}
	return opts, nil
}

func (p *componentParser) parseStartSection(r *binary.Reader) error {
	funcIdx, err := r.ReadU32()
	if err != nil {
		return fmt.Errorf("Error parsing component start section: %w", err)
	}
	argCount, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing component start section: %w", err)
	}
	args := make([]ValueIdx, argCount)
	for i := range args {
		args[i], err = r.ReadU32()
		if err != nil {
			return fmt.Errorf("Error parsing component start section: %w", err)
		}
	}
	results, err := r.ReadU32()
	if err != nil {
		return fmt.Errorf("Error parsing component start section: %w", err)
	}
	p.sections.Add(&Start{FuncIdx: funcIdx, Args: args, Results: results})
	return nil
}

func (p *componentParser) parseImportSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing component import section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		imp, err := readComponentImport(r)
		if err != nil {
			return fmt.Errorf("Error parsing component import section: %w", err)
		}
		p.sections.Add(imp)
	}
	return nil
}

func readComponentImport(r *binary.Reader) (*Import, error) {
	name, err := readExternName(r)
	if err != nil {
		return nil, err
	}
	desc, err := readTypeRef(r)
	if err != nil {
		return nil, err
	}
	return &Import{Name: name, Desc: desc}, nil
}

func (p *componentParser) parseExportSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing component export section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		name, err := readExternName(r)
		if err != nil {
			return fmt.Errorf("Error parsing component export section: %w", err)
		}
		kind, err := readSort(r)
		if err != nil {
			return fmt.Errorf("Error parsing component export section: %w", err)
		}
		idx, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("Error parsing component export section: %w", err)
		}
		descFlag, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("Error parsing component export section: %w", err)
		}
		export := &Export{Name: name, Kind: kind, Idx: idx}
		switch descFlag {
		case 0x00:
		case 0x01:
			desc, err := readTypeRef(r)
			if err != nil {
				return fmt.Errorf("Error parsing component export section: %w", err)
			}
			export.Desc = desc
		default:
			return errors.Malformed(errors.PhaseParse, []string{"export section"},
				fmt.Sprintf("invalid descriptor flag 0x%02x", descFlag))
		}
		p.sections.Add(export)
	}
	return nil
}

// readCount reads a vector length, bounding it by the bytes that remain so
// a corrupted length cannot trigger a huge allocation.
func readCount(r *binary.Reader) (uint32, error) {
	count, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	if int64(count) > int64(r.Remaining()) {
		return 0, errors.Malformed(errors.PhaseParse, nil,
			fmt.Sprintf("count %d exceeds remaining input", count))
	}
	return count, nil
}
