package component

import (
	wasmast "github.com/wippyai/wasm-ast"
	"github.com/wippyai/wasm-ast/core"
	"github.com/wippyai/wasm-ast/metadata"
)

// ComponentIndexSpace is the index space a component section node occupies.
type ComponentIndexSpace byte

const (
	SpaceFunc ComponentIndexSpace = iota
	SpaceCoreType
	SpaceType
	SpaceModule
	SpaceComponent
	SpaceCoreInstance
	SpaceInstance
	SpaceValue
	SpaceCoreTable
	SpaceCoreFunc
	SpaceCoreGlobal
	SpaceCoreMem
	SpaceStart
	SpaceCustom
)

// ComponentSectionType is the binary section a component section node
// serializes to.
type ComponentSectionType byte

const (
	SecModule ComponentSectionType = iota
	SecCoreInstance
	SecCoreType
	SecComponent
	SecInstance
	SecAlias
	SecType
	SecCanon
	SecStart
	SecImport
	SecExport
	SecCustom
)

// AllowGrouping reports whether consecutive sections of this type may merge
// into one binary section. Nested modules and components are standalone
// sections, as are start and custom sections.
func (t ComponentSectionType) AllowGrouping() bool {
	switch t {
	case SecModule, SecComponent, SecStart, SecCustom:
		return false
	}
	return true
}

func (t ComponentSectionType) String() string {
	switch t {
	case SecModule:
		return "module"
	case SecCoreInstance:
		return "core instance"
	case SecCoreType:
		return "core type"
	case SecComponent:
		return "component"
	case SecInstance:
		return "instance"
	case SecAlias:
		return "alias"
	case SecType:
		return "type"
	case SecCanon:
		return "canon"
	case SecStart:
		return "start"
	case SecImport:
		return "import"
	case SecExport:
		return "export"
	case SecCustom:
		return "custom"
	}
	return "unknown"
}

// ComponentSection is any section node of a component.
type ComponentSection interface {
	wasmast.Section[ComponentIndexSpace, ComponentSectionType]
	isComponentSection()
}

// Module is a nested core module section.
type Module struct {
	*core.Module
}

// InstantiationArg names a core instance passed to a core module
// instantiation.
type InstantiationArg struct {
	Name     string
	Instance CoreInstanceIdx
}

// CoreInstance is a core instance section node: either the instantiation
// of a core module or an instance synthesized from exports.
type CoreInstance interface {
	ComponentSection
	isCoreInstance()
}

// CoreInstantiate instantiates a nested core module.
type CoreInstantiate struct {
	ModuleIdx ModuleIdx
	Args      []InstantiationArg
}

// CoreInstanceFromExports forms a core instance directly from exports.
type CoreInstanceFromExports struct {
	Exports []*core.Export
}

func (*CoreInstantiate) isCoreInstance()         {}
func (*CoreInstanceFromExports) isCoreInstance() {}

// CoreType is a core type section node: a core function type or a core
// module type.
//
// Exactly one of Func and Module is set.
type CoreType struct {
	Func   *core.FuncType
	Module []ModuleDeclaration
}

// ComponentInstantiationArg names a definition passed to a component
// instantiation.
type ComponentInstantiationArg struct {
	Name string
	Kind ComponentExternalKind
	Idx  uint32
}

// Instance is an instance section node: either the instantiation of a
// nested component or an instance synthesized from exports.
type Instance interface {
	ComponentSection
	isInstance()
}

// Instantiate instantiates a nested component.
type Instantiate struct {
	ComponentIdx ComponentIdx
	Args         []ComponentInstantiationArg
}

// InstanceFromExports forms an instance directly from exports.
type InstanceFromExports struct {
	Exports []*Export
}

func (*Instantiate) isInstance()         {}
func (*InstanceFromExports) isInstance() {}

// Alias projects a definition from an instance or an enclosing component
// into one of this component's index spaces.
type Alias interface {
	ComponentSection
	isAlias()
}

// AliasInstanceExport aliases an export of a component instance.
type AliasInstanceExport struct {
	Kind        ComponentExternalKind
	InstanceIdx InstanceIdx
	Name        string
}

// AliasCoreInstanceExport aliases an export of a core instance.
type AliasCoreInstanceExport struct {
	Kind        core.ExportKind
	InstanceIdx CoreInstanceIdx
	Name        string
}

// AliasOuter aliases a definition from a component Count levels up the
// enclosure chain.
type AliasOuter struct {
	Kind  OuterAliasKind
	Count uint32
	Index uint32
}

func (*AliasInstanceExport) isAlias()     {}
func (*AliasCoreInstanceExport) isAlias() {}
func (*AliasOuter) isAlias()              {}

// Canon is a canonical function section node.
type Canon interface {
	ComponentSection
	isCanon()
}

// CanonLift lifts a core function into a component function of the given
// declared type.
type CanonLift struct {
	FuncIdx      core.FuncIdx
	Opts         []CanonicalOption
	FunctionType ComponentTypeIdx
}

// CanonLower lowers a component function into a core function.
type CanonLower struct {
	FuncIdx ComponentFuncIdx
	Opts    []CanonicalOption
}

// CanonResourceNew creates a core function producing fresh resource
// handles.
type CanonResourceNew struct {
	TypeIdx ComponentTypeIdx
}

// CanonResourceDrop creates a core function dropping resource handles.
type CanonResourceDrop struct {
	TypeIdx ComponentTypeIdx
}

// CanonResourceRep creates a core function extracting a resource's
// representation.
type CanonResourceRep struct {
	TypeIdx ComponentTypeIdx
}

func (*CanonLift) isCanon()         {}
func (*CanonLower) isCanon()        {}
func (*CanonResourceNew) isCanon()  {}
func (*CanonResourceDrop) isCanon() {}
func (*CanonResourceRep) isCanon()  {}

// Start designates the component's start function with its value arguments
// and the number of values it returns.
type Start struct {
	FuncIdx ComponentFuncIdx
	Args    []ValueIdx
	Results uint32
}

// Import brings an external definition into the component's index spaces.
type Import struct {
	Name string
	Desc ComponentTypeRef
}

// Export makes a definition visible outside the component, optionally with
// an explicit descriptor. Exports are themselves indexed in the target
// kind's index space.
type Export struct {
	Name string
	Kind ComponentExternalKind
	Idx  uint32
	Desc ComponentTypeRef
}

// Custom is an uninterpreted custom section.
type Custom struct {
	Name string
	Data []byte
}

func (*Module) IndexSpace() ComponentIndexSpace          { return SpaceModule }
func (*Module) SectionType() ComponentSectionType        { return SecModule }
func (*CoreInstantiate) IndexSpace() ComponentIndexSpace { return SpaceCoreInstance }
func (*CoreInstantiate) SectionType() ComponentSectionType {
	return SecCoreInstance
}
func (*CoreInstanceFromExports) IndexSpace() ComponentIndexSpace { return SpaceCoreInstance }
func (*CoreInstanceFromExports) SectionType() ComponentSectionType {
	return SecCoreInstance
}
func (*CoreType) IndexSpace() ComponentIndexSpace      { return SpaceCoreType }
func (*CoreType) SectionType() ComponentSectionType    { return SecCoreType }
func (*Component) IndexSpace() ComponentIndexSpace     { return SpaceComponent }
func (*Component) SectionType() ComponentSectionType   { return SecComponent }
func (*Instantiate) IndexSpace() ComponentIndexSpace   { return SpaceInstance }
func (*Instantiate) SectionType() ComponentSectionType { return SecInstance }
func (*InstanceFromExports) IndexSpace() ComponentIndexSpace { return SpaceInstance }
func (*InstanceFromExports) SectionType() ComponentSectionType {
	return SecInstance
}

func (a *AliasInstanceExport) IndexSpace() ComponentIndexSpace {
	return a.Kind.indexSpace()
}
func (*AliasInstanceExport) SectionType() ComponentSectionType { return SecAlias }

func (a *AliasCoreInstanceExport) IndexSpace() ComponentIndexSpace {
	switch a.Kind {
	case core.ExportKindTable:
		return SpaceCoreTable
	case core.ExportKindMem:
		return SpaceCoreMem
	case core.ExportKindGlobal:
		return SpaceCoreGlobal
	}
	return SpaceCoreFunc
}
func (*AliasCoreInstanceExport) SectionType() ComponentSectionType { return SecAlias }

func (a *AliasOuter) IndexSpace() ComponentIndexSpace {
	switch a.Kind {
	case OuterAliasKindCoreModule:
		return SpaceModule
	case OuterAliasKindCoreType:
		return SpaceCoreType
	case OuterAliasKindComponent:
		return SpaceComponent
	}
	return SpaceType
}
func (*AliasOuter) SectionType() ComponentSectionType { return SecAlias }

func (*CanonLift) IndexSpace() ComponentIndexSpace            { return SpaceFunc }
func (*CanonLift) SectionType() ComponentSectionType          { return SecCanon }
func (*CanonLower) IndexSpace() ComponentIndexSpace           { return SpaceCoreFunc }
func (*CanonLower) SectionType() ComponentSectionType         { return SecCanon }
func (*CanonResourceNew) IndexSpace() ComponentIndexSpace     { return SpaceCoreFunc }
func (*CanonResourceNew) SectionType() ComponentSectionType   { return SecCanon }
func (*CanonResourceDrop) IndexSpace() ComponentIndexSpace    { return SpaceCoreFunc }
func (*CanonResourceDrop) SectionType() ComponentSectionType  { return SecCanon }
func (*CanonResourceRep) IndexSpace() ComponentIndexSpace     { return SpaceCoreFunc }
func (*CanonResourceRep) SectionType() ComponentSectionType   { return SecCanon }
func (*Start) IndexSpace() ComponentIndexSpace                { return SpaceStart }
func (*Start) SectionType() ComponentSectionType              { return SecStart }
func (imp *Import) IndexSpace() ComponentIndexSpace           { return imp.Desc.refIndexSpace() }
func (*Import) SectionType() ComponentSectionType             { return SecImport }
func (e *Export) IndexSpace() ComponentIndexSpace             { return e.Kind.indexSpace() }
func (*Export) SectionType() ComponentSectionType             { return SecExport }
func (*Custom) IndexSpace() ComponentIndexSpace               { return SpaceCustom }
func (*Custom) SectionType() ComponentSectionType             { return SecCustom }

// Every component type variant is a type section node.
func (PrimitiveValueType) IndexSpace() ComponentIndexSpace   { return SpaceType }
func (PrimitiveValueType) SectionType() ComponentSectionType { return SecType }
func (*RecordType) IndexSpace() ComponentIndexSpace          { return SpaceType }
func (*RecordType) SectionType() ComponentSectionType        { return SecType }
func (*VariantType) IndexSpace() ComponentIndexSpace         { return SpaceType }
func (*VariantType) SectionType() ComponentSectionType       { return SecType }
func (*ListType) IndexSpace() ComponentIndexSpace            { return SpaceType }
func (*ListType) SectionType() ComponentSectionType          { return SecType }
func (*TupleType) IndexSpace() ComponentIndexSpace           { return SpaceType }
func (*TupleType) SectionType() ComponentSectionType         { return SecType }
func (*FlagsType) IndexSpace() ComponentIndexSpace           { return SpaceType }
func (*FlagsType) SectionType() ComponentSectionType         { return SecType }
func (*EnumType) IndexSpace() ComponentIndexSpace            { return SpaceType }
func (*EnumType) SectionType() ComponentSectionType          { return SecType }
func (*OptionType) IndexSpace() ComponentIndexSpace          { return SpaceType }
func (*OptionType) SectionType() ComponentSectionType        { return SecType }
func (*ResultType) IndexSpace() ComponentIndexSpace          { return SpaceType }
func (*ResultType) SectionType() ComponentSectionType        { return SecType }
func (*OwnedType) IndexSpace() ComponentIndexSpace           { return SpaceType }
func (*OwnedType) SectionType() ComponentSectionType         { return SecType }
func (*BorrowedType) IndexSpace() ComponentIndexSpace        { return SpaceType }
func (*BorrowedType) SectionType() ComponentSectionType      { return SecType }
func (*FuncType) IndexSpace() ComponentIndexSpace            { return SpaceType }
func (*FuncType) SectionType() ComponentSectionType          { return SecType }
func (ComponentTypeDecls) IndexSpace() ComponentIndexSpace   { return SpaceType }
func (ComponentTypeDecls) SectionType() ComponentSectionType { return SecType }
func (InstanceTypeDecls) IndexSpace() ComponentIndexSpace    { return SpaceType }
func (InstanceTypeDecls) SectionType() ComponentSectionType  { return SecType }
func (*ResourceType) IndexSpace() ComponentIndexSpace        { return SpaceType }
func (*ResourceType) SectionType() ComponentSectionType      { return SecType }

func (*Module) isComponentSection()                  {}
func (*CoreInstantiate) isComponentSection()         {}
func (*CoreInstanceFromExports) isComponentSection() {}
func (*CoreType) isComponentSection()                {}
func (*Component) isComponentSection()               {}
func (*Instantiate) isComponentSection()             {}
func (*InstanceFromExports) isComponentSection()     {}
func (*AliasInstanceExport) isComponentSection()     {}
func (*AliasCoreInstanceExport) isComponentSection() {}
func (*AliasOuter) isComponentSection()              {}
func (*CanonLift) isComponentSection()               {}
func (*CanonLower) isComponentSection()              {}
func (*CanonResourceNew) isComponentSection()        {}
func (*CanonResourceDrop) isComponentSection()       {}
func (*CanonResourceRep) isComponentSection()        {}
func (*Start) isComponentSection()                   {}
func (*Import) isComponentSection()                  {}
func (*Export) isComponentSection()                  {}
func (*Custom) isComponentSection()                  {}
func (PrimitiveValueType) isComponentSection()       {}
func (*RecordType) isComponentSection()              {}
func (*VariantType) isComponentSection()             {}
func (*ListType) isComponentSection()                {}
func (*TupleType) isComponentSection()               {}
func (*FlagsType) isComponentSection()               {}
func (*EnumType) isComponentSection()                {}
func (*OptionType) isComponentSection()              {}
func (*ResultType) isComponentSection()              {}
func (*OwnedType) isComponentSection()               {}
func (*BorrowedType) isComponentSection()            {}
func (*FuncType) isComponentSection()                {}
func (ComponentTypeDecls) isComponentSection()       {}
func (InstanceTypeDecls) isComponentSection()        {}
func (*ResourceType) isComponentSection()            {}

// ComponentSections is the ordered section store of a component.
type ComponentSections = wasmast.Sections[ComponentIndexSpace, ComponentSectionType, ComponentSection]

type componentCache[T any] = wasmast.SectionCache[T, ComponentIndexSpace, ComponentSectionType, ComponentSection]
type componentIndex = wasmast.SectionIndex[ComponentIndexSpace, ComponentSectionType, ComponentSection]

func newComponentCache[T ComponentSection](kind ComponentSectionType) *componentCache[T] {
	return wasmast.NewSectionCache[T, ComponentIndexSpace, ComponentSectionType, ComponentSection](
		kind,
		func(s ComponentSection) T { return s.(T) },
	)
}

func newComponentIndex(space ComponentIndexSpace) *componentIndex {
	return wasmast.NewSectionIndex[ComponentIndexSpace, ComponentSectionType, ComponentSection](space)
}

// Component is the top-level AST node of a WebAssembly component. It is
// itself a section node, since components nest.
type Component struct {
	sections *ComponentSections
	custom   wasmast.Customization

	imports        *componentCache[*Import]
	exports        *componentCache[*Export]
	coreInstances  *componentCache[CoreInstance]
	instances      *componentCache[Instance]
	componentTypes *componentCache[ComponentType]
	coreTypes      *componentCache[*CoreType]
	canons         *componentCache[Canon]
	aliases        *componentCache[Alias]
	components     *componentCache[*Component]
	modules        *componentCache[*Module]
	customs        *componentCache[*Custom]

	coreInstanceIndex  *componentIndex
	instanceIndex      *componentIndex
	componentTypeIndex *componentIndex
	coreFuncIndex      *componentIndex
	componentIndex     *componentIndex
	componentFuncIndex *componentIndex
	valueIndex         *componentIndex
	moduleIndex        *componentIndex
}

// NewComponent creates a component from an ordered section list.
func NewComponent(sections *ComponentSections, custom wasmast.Customization) *Component {
	if custom == nil {
		custom = wasmast.Full
	}
	return &Component{
		sections: sections,
		custom:   custom,

		imports:        newComponentCache[*Import](SecImport),
		exports:        newComponentCache[*Export](SecExport),
		coreInstances:  newComponentCache[CoreInstance](SecCoreInstance),
		instances:      newComponentCache[Instance](SecInstance),
		componentTypes: newComponentCache[ComponentType](SecType),
		coreTypes:      newComponentCache[*CoreType](SecCoreType),
		canons:         newComponentCache[Canon](SecCanon),
		aliases:        newComponentCache[Alias](SecAlias),
		components:     newComponentCache[*Component](SecComponent),
		modules:        newComponentCache[*Module](SecModule),
		customs:        newComponentCache[*Custom](SecCustom),

		coreInstanceIndex:  newComponentIndex(SpaceCoreInstance),
		instanceIndex:      newComponentIndex(SpaceInstance),
		componentTypeIndex: newComponentIndex(SpaceType),
		coreFuncIndex:      newComponentIndex(SpaceCoreFunc),
		componentIndex:     newComponentIndex(SpaceComponent),
		componentFuncIndex: newComponentIndex(SpaceFunc),
		valueIndex:         newComponentIndex(SpaceValue),
		moduleIndex:        newComponentIndex(SpaceModule),
	}
}

// EmptyComponent creates a component with no sections.
func EmptyComponent() *Component {
	return NewComponent(wasmast.NewSections[ComponentIndexSpace, ComponentSectionType, ComponentSection](), wasmast.Full)
}

// Sections returns the underlying section store.
func (c *Component) Sections() *ComponentSections {
	return c.sections
}

// Customization returns the customization the component was parsed with.
func (c *Component) Customization() wasmast.Customization {
	return c.custom
}

// Imports returns the imports in declaration order.
func (c *Component) Imports() []*Import {
	return c.imports.All(c.sections)
}

// Exports returns the exports in declaration order.
func (c *Component) Exports() []*Export {
	return c.exports.All(c.sections)
}

// CoreInstances returns the core instances in index order.
func (c *Component) CoreInstances() []CoreInstance {
	return c.coreInstances.All(c.sections)
}

// Instances returns the component instances in index order.
func (c *Component) Instances() []Instance {
	return c.instances.All(c.sections)
}

// ComponentTypes returns the component type definitions in section order.
func (c *Component) ComponentTypes() []ComponentType {
	return c.componentTypes.All(c.sections)
}

// CoreTypes returns the core type definitions in index order.
func (c *Component) CoreTypes() []*CoreType {
	return c.coreTypes.All(c.sections)
}

// Canons returns the canonical function definitions in section order.
func (c *Component) Canons() []Canon {
	return c.canons.All(c.sections)
}

// Aliases returns the aliases in section order.
func (c *Component) Aliases() []Alias {
	return c.aliases.All(c.sections)
}

// Components returns the nested components in index order.
func (c *Component) Components() []*Component {
	return c.components.All(c.sections)
}

// Modules returns the nested core modules in index order.
func (c *Component) Modules() []*Module {
	return c.modules.All(c.sections)
}

// Customs returns the retained custom sections in order.
func (c *Component) Customs() []*Custom {
	return c.customs.All(c.sections)
}

// Start returns the start section, if present.
func (c *Component) Start() *Start {
	for _, section := range c.sections.FilterBySectionType(SecStart) {
		return section.(*Start)
	}
	return nil
}

// GetCoreInstance returns the core instance at the given index.
func (c *Component) GetCoreInstance(idx CoreInstanceIdx) (CoreInstance, bool) {
	section, ok := c.coreInstanceIndex.Get(c.sections, idx)
	if !ok {
		return nil, false
	}
	instance, ok := section.(CoreInstance)
	return instance, ok
}

// GetInstanceWrapped returns the section node occupying the given position
// of the instance index space. It can be an Instance, an Alias, an Export
// or an Import.
func (c *Component) GetInstanceWrapped(idx InstanceIdx) (ComponentSection, bool) {
	return c.instanceIndex.Get(c.sections, idx)
}

// GetInstance returns the component instance at the given index, if the
// index space position holds an instance section.
func (c *Component) GetInstance(idx InstanceIdx) (Instance, bool) {
	section, ok := c.GetInstanceWrapped(idx)
	if !ok {
		return nil, false
	}
	instance, ok := section.(Instance)
	return instance, ok
}

// GetComponentType returns the section node occupying the given position
// of the type index space. It can be a ComponentType, an Alias, an Export
// or an Import.
func (c *Component) GetComponentType(idx ComponentTypeIdx) (ComponentSection, bool) {
	return c.componentTypeIndex.Get(c.sections, idx)
}

// GetCoreFunc returns the section node occupying the given position of the
// core func index space. It can be a Canon or an Alias.
func (c *Component) GetCoreFunc(idx core.FuncIdx) (ComponentSection, bool) {
	return c.coreFuncIndex.Get(c.sections, idx)
}

// GetComponent returns the section node occupying the given position of
// the component index space. It can be a Component, an Alias, an Export
// or an Import.
func (c *Component) GetComponent(idx ComponentIdx) (ComponentSection, bool) {
	return c.componentIndex.Get(c.sections, idx)
}

// GetComponentFunc returns the section node occupying the given position
// of the component func index space. It can be a Canon, an Alias, an
// Export or an Import.
func (c *Component) GetComponentFunc(idx ComponentFuncIdx) (ComponentSection, bool) {
	return c.componentFuncIndex.Get(c.sections, idx)
}

// GetValue returns the section node occupying the given position of the
// value index space. It can be an Alias, an Export or an Import.
func (c *Component) GetValue(idx ValueIdx) (ComponentSection, bool) {
	return c.valueIndex.Get(c.sections, idx)
}

// GetModule returns the section node occupying the given position of the
// module index space. It can be a Module, an Alias, an Export or an
// Import.
func (c *Component) GetModule(idx ModuleIdx) (ComponentSection, bool) {
	return c.moduleIndex.Get(c.sections, idx)
}

// GetAllModules collects the core modules of this component and all nested
// components, depth first.
func (c *Component) GetAllModules() []*Module {
	var result []*Module
	result = append(result, c.Modules()...)
	for _, nested := range c.Components() {
		result = append(result, nested.GetAllModules()...)
	}
	return result
}

// GetAllComponents collects all nested components, depth first.
func (c *Component) GetAllComponents() []*Component {
	var result []*Component
	for _, nested := range c.Components() {
		result = append(result, nested)
		result = append(result, nested.GetAllComponents()...)
	}
	return result
}

// IntoGrouped returns the sections grouped exactly as they are written to
// a binary component file.
func (c *Component) IntoGrouped() []wasmast.Grouped[ComponentIndexSpace, ComponentSectionType, ComponentSection] {
	return c.sections.IntoGrouped()
}

// Metadata extracts the producers, registry metadata and symbol name
// information stored in the component's custom sections. Component name
// sections use either the "name" or "component-name" custom section.
func (c *Component) Metadata() *metadata.Metadata {
	var result *metadata.Metadata
	ensure := func() *metadata.Metadata {
		if result == nil {
			result = &metadata.Metadata{}
		}
		return result
	}
	for _, custom := range c.Customs() {
		switch custom.Name {
		case "producers":
			if producers, err := metadata.ParseProducers(custom.Data); err == nil {
				ensure().Producers = producers
			}
		case "registry-metadata":
			if registry, err := metadata.ParseRegistry(custom.Data); err == nil {
				ensure().Registry = registry
			}
		case "name", "component-name":
			if name, err := metadata.ParseName(custom.Data); err == nil {
				ensure().Name = name
			}
		}
	}
	return result
}

// GetAllProducers collects the producers sections of this component, its
// nested modules and all nested components.
func (c *Component) GetAllProducers() []*metadata.Producers {
	var result []*metadata.Producers
	if meta := c.Metadata(); meta != nil && meta.Producers != nil {
		result = append(result, meta.Producers)
	}
	for _, module := range c.Modules() {
		if meta := module.Metadata(); meta != nil && meta.Producers != nil {
			result = append(result, meta.Producers)
		}
	}
	for _, nested := range c.Components() {
		result = append(result, nested.GetAllProducers()...)
	}
	return result
}
