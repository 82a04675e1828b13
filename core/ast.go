package core

import (
	wasmast "github.com/wippyai/wasm-ast"
	"github.com/wippyai/wasm-ast/metadata"
)

// CoreIndexSpace is the index space a core section node occupies.
type CoreIndexSpace byte

const (
	SpaceType CoreIndexSpace = iota
	SpaceFunc
	SpaceTable
	SpaceMem
	SpaceGlobal
	SpaceElem
	SpaceData
	SpaceLocal
	SpaceLabel
	SpaceCode
	SpaceExport
	SpaceStart
	SpaceCustom
)

// CoreSectionType is the binary section a core section node serializes to.
type CoreSectionType byte

const (
	SecType CoreSectionType = iota
	SecImport
	SecFunc
	SecTable
	SecMem
	SecGlobal
	SecExport
	SecStart
	SecElem
	SecCode
	SecData
	SecDataCount
	SecCustom
)

// AllowGrouping reports whether consecutive sections of this type may merge
// into one binary section.
func (t CoreSectionType) AllowGrouping() bool {
	switch t {
	case SecDataCount, SecStart, SecCustom:
		return false
	}
	return true
}

func (t CoreSectionType) String() string {
	switch t {
	case SecType:
		return "type"
	case SecImport:
		return "import"
	case SecFunc:
		return "func"
	case SecTable:
		return "table"
	case SecMem:
		return "mem"
	case SecGlobal:
		return "global"
	case SecExport:
		return "export"
	case SecStart:
		return "start"
	case SecElem:
		return "elem"
	case SecCode:
		return "code"
	case SecData:
		return "data"
	case SecDataCount:
		return "data count"
	case SecCustom:
		return "custom"
	}
	return "unknown"
}

// CoreSection is any section node of a core module.
type CoreSection interface {
	wasmast.Section[CoreIndexSpace, CoreSectionType]
	isCoreSection()
}

// FuncTypeRef assigns a function type to a function in the func index space.
type FuncTypeRef struct {
	TypeIdx TypeIdx
}

// FuncCode is a function body: its local declarations and instructions.
// Body is nil when the parse customization dropped instruction bodies.
type FuncCode struct {
	Locals []ValType
	Body   *Expr
}

// Func pairs a function's type index with its body.
type Func struct {
	TypeIdx TypeIdx
	Code    *FuncCode
}

// Table declares a table.
type Table struct {
	Type TableType
}

// Mem declares a linear memory.
type Mem struct {
	Type MemType
}

// Global declares a global with its initializer expression.
type Global struct {
	Type GlobalType
	Init *Expr
}

// ElemMode is the mode of an element segment.
type ElemMode interface {
	isElemMode()
}

type ElemModeActive struct {
	TableIdx TableIdx
	Offset   *Expr
}
type ElemModePassive struct{}
type ElemModeDeclarative struct{}

func (ElemModeActive) isElemMode()      {}
func (ElemModePassive) isElemMode()     {}
func (ElemModeDeclarative) isElemMode() {}

// Elem is an element segment initializing a table region.
type Elem struct {
	Kind RefType
	Mode ElemMode
	Init []*Expr
}

// DataMode is the mode of a data segment.
type DataMode interface {
	isDataMode()
}

type DataModeActive struct {
	MemIdx MemIdx
	Offset *Expr
}
type DataModePassive struct{}

func (DataModeActive) isDataMode()  {}
func (DataModePassive) isDataMode() {}

// Data is a data segment. Init is nil when the parse customization dropped
// data payloads.
type Data struct {
	Mode DataMode
	Init []byte
}

// DataCount declares the number of data segments ahead of the code section.
type DataCount struct {
	Count uint32
}

// Start designates the module's start function.
type Start struct {
	Func FuncIdx
}

// TypeRef is the descriptor of an import.
type TypeRef interface {
	isTypeRef()
}

type TypeRefFunc struct{ TypeIdx TypeIdx }
type TypeRefTable struct{ Type TableType }
type TypeRefMem struct{ Type MemType }
type TypeRefGlobal struct{ Type GlobalType }

func (TypeRefFunc) isTypeRef()   {}
func (TypeRefTable) isTypeRef()  {}
func (TypeRefMem) isTypeRef()    {}
func (TypeRefGlobal) isTypeRef() {}

// Import brings an external definition into the module's index spaces.
// Imports precede all definitions contained in the module itself, so in each
// index space the indices of imports come first.
type Import struct {
	Module string
	Name   string
	Desc   TypeRef
}

// ExportKind is the binary discriminant of an export descriptor.
type ExportKind byte

const (
	ExportKindFunc   ExportKind = 0x00
	ExportKindTable  ExportKind = 0x01
	ExportKindMem    ExportKind = 0x02
	ExportKindGlobal ExportKind = 0x03
)

// ExportDesc names the index space and index of an exported definition.
type ExportDesc struct {
	Kind ExportKind
	Idx  uint32
}

// Export makes a definition visible outside the module.
type Export struct {
	Name string
	Desc ExportDesc
}

// Custom is an uninterpreted custom section.
type Custom struct {
	Name string
	Data []byte
}

func (*FuncType) IndexSpace() CoreIndexSpace     { return SpaceType }
func (*FuncType) SectionType() CoreSectionType   { return SecType }
func (*Import) IndexSpace() CoreIndexSpace       { return SpaceFunc }
func (*Import) SectionType() CoreSectionType     { return SecImport }
func (*FuncTypeRef) IndexSpace() CoreIndexSpace  { return SpaceFunc }
func (*FuncTypeRef) SectionType() CoreSectionType { return SecFunc }
func (*FuncCode) IndexSpace() CoreIndexSpace     { return SpaceCode }
func (*FuncCode) SectionType() CoreSectionType   { return SecCode }
func (*Table) IndexSpace() CoreIndexSpace        { return SpaceTable }
func (*Table) SectionType() CoreSectionType      { return SecTable }
func (*Mem) IndexSpace() CoreIndexSpace          { return SpaceMem }
func (*Mem) SectionType() CoreSectionType        { return SecMem }
func (*Global) IndexSpace() CoreIndexSpace       { return SpaceGlobal }
func (*Global) SectionType() CoreSectionType     { return SecGlobal }
func (*Elem) IndexSpace() CoreIndexSpace         { return SpaceElem }
func (*Elem) SectionType() CoreSectionType       { return SecElem }
func (*Data) IndexSpace() CoreIndexSpace         { return SpaceData }
func (*Data) SectionType() CoreSectionType       { return SecData }
func (*DataCount) IndexSpace() CoreIndexSpace    { return SpaceData }
func (*DataCount) SectionType() CoreSectionType  { return SecDataCount }
func (*Start) IndexSpace() CoreIndexSpace        { return SpaceStart }
func (*Start) SectionType() CoreSectionType      { return SecStart }
func (*Export) IndexSpace() CoreIndexSpace       { return SpaceExport }
func (*Export) SectionType() CoreSectionType     { return SecExport }
func (*Custom) IndexSpace() CoreIndexSpace       { return SpaceCustom }
func (*Custom) SectionType() CoreSectionType     { return SecCustom }

func (*FuncType) isCoreSection()    {}
func (*Import) isCoreSection()      {}
func (*FuncTypeRef) isCoreSection() {}
func (*FuncCode) isCoreSection()    {}
func (*Table) isCoreSection()       {}
func (*Mem) isCoreSection()         {}
func (*Global) isCoreSection()      {}
func (*Elem) isCoreSection()        {}
func (*Data) isCoreSection()        {}
func (*DataCount) isCoreSection()   {}
func (*Start) isCoreSection()       {}
func (*Export) isCoreSection()      {}
func (*Custom) isCoreSection()      {}

// CoreSections is the ordered section store of a core module.
type CoreSections = wasmast.Sections[CoreIndexSpace, CoreSectionType, CoreSection]

type coreCache[T any] = wasmast.SectionCache[T, CoreIndexSpace, CoreSectionType, CoreSection]
type coreIndex = wasmast.SectionIndex[CoreIndexSpace, CoreSectionType, CoreSection]

func newCoreCache[T CoreSection](kind CoreSectionType) *coreCache[T] {
	return wasmast.NewSectionCache[T, CoreIndexSpace, CoreSectionType, CoreSection](
		kind,
		func(s CoreSection) T { return s.(T) },
	)
}

func newCoreIndex(space CoreIndexSpace) *coreIndex {
	return wasmast.NewSectionIndex[CoreIndexSpace, CoreSectionType, CoreSection](space)
}

// Module is the top-level AST node of a core WASM module.
//
// All section nodes are shared and immutable once stored; mutators append
// new nodes and invalidate the lazily built caches.
type Module struct {
	sections *CoreSections
	custom   wasmast.Customization

	types        *coreCache[*FuncType]
	funcTypeRefs *coreCache[*FuncTypeRef]
	codes        *coreCache[*FuncCode]
	tables       *coreCache[*Table]
	mems         *coreCache[*Mem]
	globals      *coreCache[*Global]
	elems        *coreCache[*Elem]
	datas        *coreCache[*Data]
	imports      *coreCache[*Import]
	exports      *coreCache[*Export]
	customs      *coreCache[*Custom]
	starts       *coreCache[*Start]

	typeIndex   *coreIndex
	funcIndex   *coreIndex
	codeIndex   *coreIndex
	tableIndex  *coreIndex
	memIndex    *coreIndex
	globalIndex *coreIndex
	elemIndex   *coreIndex
	dataIndex   *coreIndex
	exportIndex *coreIndex
}

// NewModule creates a module from an ordered section list.
func NewModule(sections *CoreSections, custom wasmast.Customization) *Module {
	if custom == nil {
		custom = wasmast.Full
	}
	return &Module{
		sections: sections,
		custom:   custom,

		types:        newCoreCache[*FuncType](SecType),
		funcTypeRefs: newCoreCache[*FuncTypeRef](SecFunc),
		codes:        newCoreCache[*FuncCode](SecCode),
		tables:       newCoreCache[*Table](SecTable),
		mems:         newCoreCache[*Mem](SecMem),
		globals:      newCoreCache[*Global](SecGlobal),
		elems:        newCoreCache[*Elem](SecElem),
		datas:        newCoreCache[*Data](SecData),
		imports:      newCoreCache[*Import](SecImport),
		exports:      newCoreCache[*Export](SecExport),
		customs:      newCoreCache[*Custom](SecCustom),
		starts:       newCoreCache[*Start](SecStart),

		typeIndex:   newCoreIndex(SpaceType),
		funcIndex:   newCoreIndex(SpaceFunc),
		codeIndex:   newCoreIndex(SpaceCode),
		tableIndex:  newCoreIndex(SpaceTable),
		memIndex:    newCoreIndex(SpaceMem),
		globalIndex: newCoreIndex(SpaceGlobal),
		elemIndex:   newCoreIndex(SpaceElem),
		dataIndex:   newCoreIndex(SpaceData),
		exportIndex: newCoreIndex(SpaceExport),
	}
}

// EmptyModule creates a module with no sections.
func EmptyModule() *Module {
	return NewModule(wasmast.NewSections[CoreIndexSpace, CoreSectionType, CoreSection](), wasmast.Full)
}

// Sections returns the underlying section store.
func (m *Module) Sections() *CoreSections {
	return m.sections
}

// Customization returns the customization the module was parsed with.
func (m *Module) Customization() wasmast.Customization {
	return m.custom
}

// Types returns the function types in index order.
func (m *Module) Types() []*FuncType {
	return m.types.All(m.sections)
}

// FuncTypeRefs returns the type references of the defined functions.
func (m *Module) FuncTypeRefs() []*FuncTypeRef {
	return m.funcTypeRefs.All(m.sections)
}

// Codes returns the function bodies in definition order.
func (m *Module) Codes() []*FuncCode {
	return m.codes.All(m.sections)
}

// Funcs pairs each defined function's type index with its body.
func (m *Module) Funcs() []Func {
	refs := m.FuncTypeRefs()
	codes := m.Codes()
	funcs := make([]Func, 0, len(refs))
	for i, ref := range refs {
		var code *FuncCode
		if i < len(codes) {
			code = codes[i]
		}
		funcs = append(funcs, Func{TypeIdx: ref.TypeIdx, Code: code})
	}
	return funcs
}

// Tables returns the tables in index order.
func (m *Module) Tables() []*Table {
	return m.tables.All(m.sections)
}

// Mems returns the memories in index order.
func (m *Module) Mems() []*Mem {
	return m.mems.All(m.sections)
}

// Globals returns the globals in index order.
func (m *Module) Globals() []*Global {
	return m.globals.All(m.sections)
}

// Elems returns the element segments in index order.
func (m *Module) Elems() []*Elem {
	return m.elems.All(m.sections)
}

// Datas returns the data segments in index order.
func (m *Module) Datas() []*Data {
	return m.datas.All(m.sections)
}

// Imports returns the imports in declaration order.
func (m *Module) Imports() []*Import {
	return m.imports.All(m.sections)
}

// Exports returns the exports in declaration order.
func (m *Module) Exports() []*Export {
	return m.exports.All(m.sections)
}

// Customs returns the retained custom sections in order.
func (m *Module) Customs() []*Custom {
	return m.customs.All(m.sections)
}

// Start returns the start section, if present.
func (m *Module) Start() *Start {
	starts := m.starts.All(m.sections)
	if len(starts) == 0 {
		return nil
	}
	return starts[0]
}

// AddData appends a data segment and regenerates the data count section.
func (m *Module) AddData(data *Data) {
	m.datas.Invalidate()
	m.dataIndex.Invalidate()
	m.sections.AddToLastGroup(data)
	count := m.datas.Count(m.sections)
	m.sections.ClearGroup(SecDataCount)
	m.sections.AddToLastGroup(&DataCount{Count: uint32(count)})
}

// AddElem appends an element segment.
func (m *Module) AddElem(elem *Elem) {
	m.elems.Invalidate()
	m.elemIndex.Invalidate()
	m.sections.AddToLastGroup(elem)
}

// AddExport appends an export.
func (m *Module) AddExport(export *Export) {
	m.exports.Invalidate()
	m.exportIndex.Invalidate()
	m.sections.AddToLastGroup(export)
}

// AddImport appends an import.
func (m *Module) AddImport(imp *Import) {
	m.imports.Invalidate()
	m.funcIndex.Invalidate()
	m.sections.AddToFirstGroupStart(imp)
}

// AddFunction appends a function with the given type, reusing an existing
// type section entry when one matches. It returns the new function's index
// in the func index space, counting imported functions first.
func (m *Module) AddFunction(funcType *FuncType, locals []ValType, body *Expr) FuncIdx {
	typeIdx, ok := m.TypeIdxOf(funcType)
	if !ok {
		typeIdx = TypeIdx(m.types.Count(m.sections))
		m.types.Invalidate()
		m.typeIndex.Invalidate()
		m.sections.AddToLastGroup(funcType)
	}
	m.codes.Invalidate()
	m.codeIndex.Invalidate()
	m.funcTypeRefs.Invalidate()
	m.funcIndex.Invalidate()
	m.sections.AddToLastGroup(&FuncTypeRef{TypeIdx: typeIdx})
	m.sections.AddToLastGroup(&FuncCode{Locals: locals, Body: body})
	imported := 0
	for _, imp := range m.Imports() {
		if _, ok := imp.Desc.(TypeRefFunc); ok {
			imported++
		}
	}
	return FuncIdx(imported + m.funcTypeRefs.Count(m.sections) - 1)
}

// AddGlobal appends a global.
func (m *Module) AddGlobal(global *Global) {
	m.globals.Invalidate()
	m.globalIndex.Invalidate()
	m.sections.AddToLastGroup(global)
}

// AddMemory appends a memory.
func (m *Module) AddMemory(mem *Mem) {
	m.mems.Invalidate()
	m.memIndex.Invalidate()
	m.sections.AddToLastGroup(mem)
}

// AddTable appends a table.
func (m *Module) AddTable(table *Table) {
	m.tables.Invalidate()
	m.tableIndex.Invalidate()
	m.sections.AddToLastGroup(table)
}

// AddType appends a function type.
func (m *Module) AddType(funcType *FuncType) {
	m.types.Invalidate()
	m.typeIndex.Invalidate()
	m.sections.AddToLastGroup(funcType)
}

// AddCustom appends a custom section.
func (m *Module) AddCustom(custom *Custom) {
	m.customs.Invalidate()
	m.sections.AddToLastGroup(custom)
}

// GetCode returns the body of the idx-th defined function.
func (m *Module) GetCode(idx FuncIdx) (*FuncCode, bool) {
	section, ok := m.codeIndex.Get(m.sections, idx)
	if !ok {
		return nil, false
	}
	code, ok := section.(*FuncCode)
	return code, ok
}

// GetData returns a data segment by index.
func (m *Module) GetData(idx DataIdx) (*Data, bool) {
	section, ok := m.dataIndex.Get(m.sections, idx)
	if !ok {
		return nil, false
	}
	data, ok := section.(*Data)
	return data, ok
}

// GetElem returns an element segment by index.
func (m *Module) GetElem(idx ElemIdx) (*Elem, bool) {
	section, ok := m.elemIndex.Get(m.sections, idx)
	if !ok {
		return nil, false
	}
	elem, ok := section.(*Elem)
	return elem, ok
}

// GetExport returns an export by index.
func (m *Module) GetExport(idx uint32) (*Export, bool) {
	section, ok := m.exportIndex.Get(m.sections, idx)
	if !ok {
		return nil, false
	}
	export, ok := section.(*Export)
	return export, ok
}

// ImportOrFunc is the result of a func index space lookup: exactly one of
// Import and Func is set, since imported functions precede defined ones.
type ImportOrFunc struct {
	Import *Import
	Func   *Func
}

// GetFunction returns the function at the given func index space position.
// The space holds imported functions first, then defined functions.
func (m *Module) GetFunction(idx FuncIdx) (ImportOrFunc, bool) {
	section, ok := m.funcIndex.Get(m.sections, idx)
	if !ok {
		return ImportOrFunc{}, false
	}
	switch s := section.(type) {
	case *Import:
		return ImportOrFunc{Import: s}, true
	case *FuncTypeRef:
		imported := uint32(0)
		for _, imp := range m.Imports() {
			if _, ok := imp.Desc.(TypeRefFunc); ok {
				imported++
			}
		}
		code, _ := m.GetCode(idx - imported)
		return ImportOrFunc{Func: &Func{TypeIdx: s.TypeIdx, Code: code}}, true
	}
	return ImportOrFunc{}, false
}

// GetGlobal returns a global by index.
func (m *Module) GetGlobal(idx GlobalIdx) (*Global, bool) {
	section, ok := m.globalIndex.Get(m.sections, idx)
	if !ok {
		return nil, false
	}
	global, ok := section.(*Global)
	return global, ok
}

// GetMemory returns a memory by index.
func (m *Module) GetMemory(idx MemIdx) (*Mem, bool) {
	section, ok := m.memIndex.Get(m.sections, idx)
	if !ok {
		return nil, false
	}
	mem, ok := section.(*Mem)
	return mem, ok
}

// GetTable returns a table by index.
func (m *Module) GetTable(idx TableIdx) (*Table, bool) {
	section, ok := m.tableIndex.Get(m.sections, idx)
	if !ok {
		return nil, false
	}
	table, ok := section.(*Table)
	return table, ok
}

// TypeIdxOf returns the index of an already defined matching function type.
func (m *Module) TypeIdxOf(funcType *FuncType) (TypeIdx, bool) {
	for i, existing := range m.Types() {
		if existing.Equal(funcType) {
			return TypeIdx(i), true
		}
	}
	return 0, false
}

// IntoGrouped returns the sections grouped exactly as they are written to a
// binary WASM file.
func (m *Module) IntoGrouped() []wasmast.Grouped[CoreIndexSpace, CoreSectionType, CoreSection] {
	return m.sections.IntoGrouped()
}

// Metadata extracts the producers, registry metadata and symbol name
// information stored in the module's custom sections.
func (m *Module) Metadata() *metadata.Metadata {
	return metadataFromCustoms(m.Customs())
}

func metadataFromCustoms(customs []*Custom) *metadata.Metadata {
	var result *metadata.Metadata
	ensure := func() *metadata.Metadata {
		if result == nil {
			result = &metadata.Metadata{}
		}
		return result
	}
	for _, custom := range customs {
		switch custom.Name {
		case "producers":
			if producers, err := metadata.ParseProducers(custom.Data); err == nil {
				ensure().Producers = producers
			}
		case "registry-metadata":
			if registry, err := metadata.ParseRegistry(custom.Data); err == nil {
				ensure().Registry = registry
			}
		case "name":
			if name, err := metadata.ParseName(custom.Data); err == nil {
				ensure().Name = name
			}
		}
	}
	return result
}
