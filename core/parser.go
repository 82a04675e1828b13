package core

import (
	"fmt"
	"math"

	wasmast "github.com/wippyai/wasm-ast"
	"github.com/wippyai/wasm-ast/errors"
	"github.com/wippyai/wasm-ast/internal/binary"
)

// Binary format constants
const (
	Magic   uint32 = 0x6d736100 // "\0asm"
	Version uint32 = 0x00000001
)

// Core binary section IDs
const (
	sectionIDCustom    byte = 0
	sectionIDType      byte = 1
	sectionIDImport    byte = 2
	sectionIDFunction  byte = 3
	sectionIDTable     byte = 4
	sectionIDMemory    byte = 5
	sectionIDGlobal    byte = 6
	sectionIDExport    byte = 7
	sectionIDStart     byte = 8
	sectionIDElement   byte = 9
	sectionIDCode      byte = 10
	sectionIDData      byte = 11
	sectionIDDataCount byte = 12
	sectionIDTag       byte = 13
)

// Parse decodes a core WASM module binary, including its preamble. The
// customization controls whether instruction bodies, data payloads and
// custom sections are retained.
func Parse(data []byte, custom wasmast.Customization) (*Module, error) {
	if custom == nil {
		custom = wasmast.Full
	}
	p := &moduleParser{r: binary.NewReader(data), custom: custom}
	module, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("Error parsing core module: %w", err)
	}
	return module, nil
}

type moduleParser struct {
	r        *binary.Reader
	custom   wasmast.Customization
	sections *CoreSections
}

func (p *moduleParser) parse() (*Module, error) {
	magic, err := p.r.ReadU32LE()
	if err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if magic != Magic {
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

	p.sections = wasmast.NewSections[CoreIndexSpace, CoreSectionType, CoreSection]()
	for p.r.Remaining() > 0 {
		if err := p.parseSection(); err != nil {
			return nil, err
		}
	}
	return NewModule(p.sections, p.custom), nil
}

func (p *moduleParser) parseSection() error {
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
	case sectionIDType:
		return p.parseTypeSection(r)
	case sectionIDImport:
		return p.parseImportSection(r)
	case sectionIDFunction:
		return p.parseFunctionSection(r)
	case sectionIDTable:
		return p.parseTableSection(r)
	case sectionIDMemory:
		return p.parseMemorySection(r)
	case sectionIDGlobal:
		return p.parseGlobalSection(r)
	case sectionIDExport:
		return p.parseExportSection(r)
	case sectionIDStart:
		return p.parseStartSection(r)
	case sectionIDElement:
		return p.parseElementSection(r)
	case sectionIDCode:
		return p.parseCodeSection(r)
	case sectionIDData:
		return p.parseDataSection(r)
	case sectionIDDataCount:
		return p.parseDataCountSection(r)
	case sectionIDTag:
		return errors.Unsupported(errors.PhaseParse,
			"Unexpected tag section in core module; exception handling proposal is not supported")
	}
	return errors.Malformed(errors.PhaseParse, nil, fmt.Sprintf("unknown section id %d", id))
}

// readCount reads a vector count and sanity checks it against the remaining
// payload so a corrupt count cannot trigger a huge allocation.
func readCount(r *binary.Reader) (uint32, error) {
	count, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	if int(count) > r.Remaining() {
		return 0, errors.Malformed(errors.PhaseParse, nil,
			fmt.Sprintf("vector count %d exceeds remaining payload %d", count, r.Remaining()))
	}
	return count, nil
}

func (p *moduleParser) parseCustomSection(r *binary.Reader) error {
	name, err := r.ReadName()
	if err != nil {
		return fmt.Errorf("Error parsing custom section name: %w", err)
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

func (p *moduleParser) parseTypeSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing core module type section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		ft, err := readFuncType(r)
		if err != nil {
			return fmt.Errorf("Error parsing core module type section: %w", err)
		}
		p.sections.Add(ft)
	}
	return nil
}

func readFuncType(r *binary.Reader) (*FuncType, error) {
	form, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch form {
	case 0x60:
	case 0x5e, 0x5f, 0x50, 0x4f: // array, struct, sub, sub final
		return nil, errors.Unsupported(errors.PhaseParse, "GC Proposal is not supported")
	default:
		return nil, errors.Malformed(errors.PhaseParse, []string{"type section"},
			fmt.Sprintf("invalid type form 0x%02x", form))
	}
	params, err := readValTypeVec(r)
	if err != nil {
		return nil, err
	}
	results, err := readValTypeVec(r)
	if err != nil {
		return nil, err
	}
	return &FuncType{Params: params, Results: results}, nil
}

func readValTypeVec(r *binary.Reader) ([]ValType, error) {
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}
	types := make([]ValType, count)
	for i := range types {
		vt, err := readValType(r)
		if err != nil {
			return nil, err
		}
		types[i] = vt
	}
	return types, nil
}

func readValType(r *binary.Reader) (ValType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch b {
	case 0x7f, 0x7e, 0x7d, 0x7c, 0x7b, 0x70, 0x6f:
		return ValType(b), nil
	case 0x6e, 0x6d, 0x6c, 0x6b, 0x6a, 0x69, 0x64, 0x63:
		return 0, errors.Unsupported(errors.PhaseParse, "GC proposal is not supported")
	}
	return 0, errors.Malformed(errors.PhaseParse, nil, fmt.Sprintf("invalid value type 0x%02x", b))
}

func readRefType(r *binary.Reader) (RefType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch b {
	case 0x70, 0x6f:
		return RefType(b), nil
	case 0x6e, 0x6d, 0x6c, 0x6b, 0x6a, 0x69, 0x64, 0x63:
		return 0, errors.Unsupported(errors.PhaseParse, "GC proposal is not supported")
	}
	return 0, errors.Malformed(errors.PhaseParse, nil, fmt.Sprintf("invalid reference type 0x%02x", b))
}

func readLimits(r *binary.Reader) (Limits, error) {
	flag, err := r.ReadByte()
	if err != nil {
		return Limits{}, err
	}
	switch flag {
	case 0x00, 0x01:
	case 0x02, 0x03:
		return Limits{}, errors.Unsupported(errors.PhaseParse, "Threads proposal is not supported")
	case 0x04, 0x05:
		return Limits{}, errors.Unsupported(errors.PhaseParse, "64-bit memories are not supported")
	default:
		return Limits{}, errors.Malformed(errors.PhaseParse, nil, fmt.Sprintf("invalid limits flag 0x%02x", flag))
	}
	min, err := r.ReadU32()
	if err != nil {
		return Limits{}, err
	}
	limits := Limits{Min: uint64(min)}
	if flag == 0x01 {
		max, err := r.ReadU32()
		if err != nil {
			return Limits{}, err
		}
		max64 := uint64(max)
		limits.Max = &max64
	}
	return limits, nil
}

func readTableType(r *binary.Reader) (TableType, error) {
	elements, err := readRefType(r)
	if err != nil {
		return TableType{}, err
	}
	limits, err := readLimits(r)
	if err != nil {
		return TableType{}, err
	}
	return TableType{Limits: limits, Elements: elements}, nil
}

func readMemType(r *binary.Reader) (MemType, error) {
	limits, err := readLimits(r)
	if err != nil {
		return MemType{}, err
	}
	return MemType{Limits: limits}, nil
}

func readGlobalType(r *binary.Reader) (GlobalType, error) {
	vt, err := readValType(r)
	if err != nil {
		return GlobalType{}, err
	}
	mut, err := r.ReadByte()
	if err != nil {
		return GlobalType{}, err
	}
	switch mut {
	case 0x00:
		return GlobalType{ValType: vt, Mutable: false}, nil
	case 0x01:
		return GlobalType{ValType: vt, Mutable: true}, nil
	}
	return GlobalType{}, errors.Malformed(errors.PhaseParse, nil, fmt.Sprintf("invalid mutability flag 0x%02x", mut))
}

func (p *moduleParser) parseImportSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing core module import section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		module, err := r.ReadName()
		if err != nil {
			return fmt.Errorf("Error parsing core module import section: %w", err)
		}
		name, err := r.ReadName()
		if err != nil {
			return fmt.Errorf("Error parsing core module import section: %w", err)
		}
		desc, err := ReadTypeRef(r)
		if err != nil {
			return fmt.Errorf("Error parsing core module import section: %w", err)
		}
		p.sections.Add(&Import{Module: module, Name: name, Desc: desc})
	}
	return nil
}

func (p *moduleParser) parseFunctionSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing core module function section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		typeIdx, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("Error parsing core module function section: %w", err)
		}
		p.sections.Add(&FuncTypeRef{TypeIdx: typeIdx})
	}
	return nil
}

func (p *moduleParser) parseTableSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing core module table section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		tt, err := readTableType(r)
		if err != nil {
			return fmt.Errorf("Error parsing core module table section: %w", err)
		}
		p.sections.Add(&Table{Type: tt})
	}
	return nil
}

func (p *moduleParser) parseMemorySection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing core module memory section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		mt, err := readMemType(r)
		if err != nil {
			return fmt.Errorf("Error parsing core module memory section: %w", err)
		}
		p.sections.Add(&Mem{Type: mt})
	}
	return nil
}

func (p *moduleParser) parseGlobalSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing core module global section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		gt, err := readGlobalType(r)
		if err != nil {
			return fmt.Errorf("Error parsing core module global section: %w", err)
		}
		init, err := readExpr(r)
		if err != nil {
			return fmt.Errorf("Error parsing core module global section: %w", err)
		}
		if !p.custom.KeepInstructions() {
			init = nil
		}
		p.sections.Add(&Global{Type: gt, Init: init})
	}
	return nil
}

func (p *moduleParser) parseExportSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing core module export section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadName()
		if err != nil {
			return fmt.Errorf("Error parsing core module export section: %w", err)
		}
		kind, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("Error parsing core module export section: %w", err)
		}
		if kind > 0x03 {
			return errors.Malformed(errors.PhaseParse, []string{"export section"},
				fmt.Sprintf("invalid export kind 0x%02x", kind))
		}
		idx, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("Error parsing core module export section: %w", err)
		}
		p.sections.Add(&Export{Name: name, Desc: ExportDesc{Kind: ExportKind(kind), Idx: idx}})
	}
	return nil
}

func (p *moduleParser) parseStartSection(r *binary.Reader) error {
	funcIdx, err := r.ReadU32()
	if err != nil {
		return fmt.Errorf("Error parsing core module start section: %w", err)
	}
	p.sections.Add(&Start{Func: funcIdx})
	return nil
}

func (p *moduleParser) parseElementSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing core module element section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		elem, err := p.readElem(r)
		if err != nil {
			return fmt.Errorf("Error parsing core module element section: %w", err)
		}
		p.sections.Add(elem)
	}
	return nil
}

func (p *moduleParser) readElem(r *binary.Reader) (*Elem, error) {
	flags, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if flags > 7 {
		return nil, errors.Malformed(errors.PhaseParse, []string{"element section"},
			fmt.Sprintf("invalid element segment flags %d", flags))
	}

	elem := &Elem{Kind: FuncRef}

	// Bits: 0 = passive/declarative, 1 = explicit table index or declarative,
	// 2 = element expressions instead of function indices.
	active := flags&0x01 == 0
	explicit := flags&0x02 != 0
	useExprs := flags&0x04 != 0

	if active {
		var tableIdx TableIdx
		if explicit {
			tableIdx, err = r.ReadU32()
			if err != nil {
				return nil, err
			}
		}
		offset, err := readExpr(r)
		if err != nil {
			return nil, err
		}
		if !p.custom.KeepInstructions() {
			offset = nil
		}
		elem.Mode = ElemModeActive{TableIdx: tableIdx, Offset: offset}
	} else if explicit {
		elem.Mode = ElemModeDeclarative{}
	} else {
		elem.Mode = ElemModePassive{}
	}

	// The kind/type field is present unless this is form 0 or 4.
	hasKind := flags&0x03 != 0
	if hasKind {
		if useExprs {
			elem.Kind, err = readRefType(r)
			if err != nil {
				return nil, err
			}
		} else {
			kind, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			if kind != 0x00 {
				return nil, errors.Malformed(errors.PhaseParse, []string{"element section"},
					fmt.Sprintf("invalid element kind 0x%02x", kind))
			}
		}
	}

	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	for j := uint32(0); j < n; j++ {
		var init *Expr
		if useExprs {
			init, err = readExpr(r)
			if err != nil {
				return nil, err
			}
		} else {
			funcIdx, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			init = &Expr{Instrs: []Instr{RefFunc{Func: funcIdx}}}
		}
		if !p.custom.KeepInstructions() {
			init = nil
		}
		elem.Init = append(elem.Init, init)
	}
	return elem, nil
}

func (p *moduleParser) parseCodeSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing core module code section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		size, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("Error parsing core module code section: %w", err)
		}
		payload, err := r.ReadBytes(int(size))
		if err != nil {
			return fmt.Errorf("Error parsing core module code section: %w", err)
		}
		body := binary.NewReader(payload)
		locals, err := readLocals(body)
		if err != nil {
			return fmt.Errorf("Error parsing core module code section: %w", err)
		}
		var expr *Expr
		if p.custom.KeepInstructions() {
			expr, err = readExpr(body)
			if err != nil {
				return fmt.Errorf("Error parsing core module code section: %w", err)
			}
		}
		p.sections.Add(&FuncCode{Locals: locals, Body: expr})
	}
	return nil
}

func readLocals(r *binary.Reader) ([]ValType, error) {
	groups, err := readCount(r)
	if err != nil {
		return nil, err
	}
	var locals []ValType
	for i := uint32(0); i < groups; i++ {
		n, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		vt, err := readValType(r)
		if err != nil {
			return nil, err
		}
		if n > uint32(1<<24) {
			return nil, errors.Malformed(errors.PhaseParse, []string{"code section"},
				fmt.Sprintf("local group of %d entries", n))
		}
		for j := uint32(0); j < n; j++ {
			locals = append(locals, vt)
		}
	}
	return locals, nil
}

func (p *moduleParser) parseDataSection(r *binary.Reader) error {
	count, err := readCount(r)
	if err != nil {
		return fmt.Errorf("Error parsing core module data section: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		flags, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("Error parsing core module data section: %w", err)
		}
		data := &Data{}
		switch flags {
		case 0x00, 0x02:
			var memIdx MemIdx
			if flags == 0x02 {
				memIdx, err = r.ReadU32()
				if err != nil {
					return fmt.Errorf("Error parsing core module data section: %w", err)
				}
			}
			offset, err := readExpr(r)
			if err != nil {
				return fmt.Errorf("Error parsing core module data section: %w", err)
			}
			if !p.custom.KeepInstructions() {
				offset = nil
			}
			data.Mode = DataModeActive{MemIdx: memIdx, Offset: offset}
		case 0x01:
			data.Mode = DataModePassive{}
		default:
			return errors.Malformed(errors.PhaseParse, []string{"data section"},
				fmt.Sprintf("invalid data segment flags %d", flags))
		}
		size, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("Error parsing core module data section: %w", err)
		}
		payload, err := r.ReadBytes(int(size))
		if err != nil {
			return fmt.Errorf("Error parsing core module data section: %w", err)
		}
		if p.custom.KeepDataPayload() {
			data.Init = payload
		}
		p.sections.Add(data)
	}
	return nil
}

func (p *moduleParser) parseDataCountSection(r *binary.Reader) error {
	count, err := r.ReadU32()
	if err != nil {
		return fmt.Errorf("Error parsing core module data count section: %w", err)
	}
	p.sections.Add(&DataCount{Count: count})
	return nil
}

// Expression decoding

type targetKind byte

const (
	targetTopLevel targetKind = iota
	targetBlock
	targetLoop
	targetIf
	targetElse
)

type operatorTarget struct {
	kind      targetKind
	blockType BlockType
	instrs    []Instr
	// then-branch saved when an else arm starts
	thenInstrs []Instr
}

// readExpr decodes an instruction sequence up to and including its matching
// end opcode, tracking structured blocks with an explicit target stack.
func readExpr(r *binary.Reader) (*Expr, error) {
	stack := []*operatorTarget{{kind: targetTopLevel}}

	for {
		opcode, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("reading opcode: %w", err)
		}

		switch opcode {
		case 0x02: // block
			bt, err := readBlockType(r)
			if err != nil {
				return nil, err
			}
			stack = append(stack, &operatorTarget{kind: targetBlock, blockType: bt})
			continue
		case 0x03: // loop
			bt, err := readBlockType(r)
			if err != nil {
				return nil, err
			}
			stack = append(stack, &operatorTarget{kind: targetLoop, blockType: bt})
			continue
		case 0x04: // if
			bt, err := readBlockType(r)
			if err != nil {
				return nil, err
			}
			stack = append(stack, &operatorTarget{kind: targetIf, blockType: bt})
			continue
		case 0x05: // else
			top := stack[len(stack)-1]
			if top.kind != targetIf {
				return nil, errors.Malformed(errors.PhaseParse, []string{"code"}, "else without matching if")
			}
			top.kind = targetElse
			top.thenInstrs = top.instrs
			top.instrs = nil
			continue
		case 0x0b: // end
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			switch top.kind {
			case targetTopLevel:
				if len(stack) != 0 {
					return nil, errors.Internal(errors.PhaseParse, "unexpected expression stack state")
				}
				return &Expr{Instrs: top.instrs}, nil
			case targetBlock:
				appendInstr(stack, Block{Type: top.blockType, Body: top.instrs})
			case targetLoop:
				appendInstr(stack, Loop{Type: top.blockType, Body: top.instrs})
			case targetIf:
				appendInstr(stack, If{Type: top.blockType, Then: top.instrs})
			case targetElse:
				appendInstr(stack, If{Type: top.blockType, Then: top.thenInstrs, Else: top.instrs})
			}
			continue
		}

		instr, err := readInstr(r, opcode)
		if err != nil {
			return nil, err
		}
		appendInstr(stack, instr)
	}
}

func appendInstr(stack []*operatorTarget, instr Instr) {
	top := stack[len(stack)-1]
	top.instrs = append(top.instrs, instr)
}

func readBlockType(r *binary.Reader) (BlockType, error) {
	b, err := r.PeekByte()
	if err != nil {
		return BlockType{}, err
	}
	if b == 0x40 {
		_, _ = r.ReadByte()
		return BlockTypeNone(), nil
	}
	switch b {
	case 0x7f, 0x7e, 0x7d, 0x7c, 0x7b, 0x70, 0x6f:
		_, _ = r.ReadByte()
		return BlockTypeValue(ValType(b)), nil
	}
	// Otherwise a signed 33-bit LEB type index.
	idx, err := r.ReadS64()
	if err != nil {
		return BlockType{}, err
	}
	if idx < 0 || idx > math.MaxUint32 {
		return BlockType{}, errors.Malformed(errors.PhaseParse, []string{"code"},
			fmt.Sprintf("invalid block type index %d", idx))
	}
	return BlockTypeIndex(TypeIdx(idx)), nil
}

func readMemArg(r *binary.Reader) (MemArg, error) {
	align, err := r.ReadU32()
	if err != nil {
		return MemArg{}, err
	}
	if align >= 0x40 {
		return MemArg{}, errors.Unsupported(errors.PhaseParse,
			"Fine grained control of memory proposal is not supported")
	}
	offset, err := r.ReadU64()
	if err != nil {
		return MemArg{}, err
	}
	if offset > math.MaxUint32 {
		return MemArg{}, errors.Unsupported(errors.PhaseParse, "64-bit memories are not supported")
	}
	return MemArg{Align: uint8(align), Offset: uint32(offset)}, nil
}

func readZeroByte(r *binary.Reader) error {
	b, err := r.ReadByte()
	if err != nil {
		return err
	}
	if b != 0x00 {
		return errors.Malformed(errors.PhaseParse, []string{"code"},
			fmt.Sprintf("invalid reserved byte 0x%02x", b))
	}
	return nil
}

func readLaneIdx(r *binary.Reader) (LaneIdx, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	return LaneIdx(b), nil
}

// readInstr decodes a single non-structured instruction whose opcode byte
// has already been consumed.
func readInstr(r *binary.Reader, opcode byte) (Instr, error) {
	switch opcode {
	case 0x00:
		return Unreachable{}, nil
	case 0x01:
		return Nop{}, nil
	case 0x06, 0x07, 0x08, 0x09, 0x0a, 0x18, 0x19, 0x1f:
		return nil, errors.Unsupported(errors.PhaseParse, "Exception handling proposal is not supported")
	case 0x0c: // br
		label, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return Br{Label: label}, nil
	case 0x0d: // br_if
		label, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return BrIf{Label: label}, nil
	case 0x0e: // br_table
		count, err := readCount(r)
		if err != nil {
			return nil, err
		}
		labels := make([]LabelIdx, count)
		for i := range labels {
			labels[i], err = r.ReadU32()
			if err != nil {
				return nil, err
			}
		}
		def, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return BrTable{Labels: labels, Default: def}, nil
	case 0x0f:
		return Return{}, nil
	case 0x10: // call
		funcIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return Call{Func: funcIdx}, nil
	case 0x11: // call_indirect
		typeIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		tableIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return CallIndirect{Table: tableIdx, Type: typeIdx}, nil
	case 0x12, 0x13:
		return nil, errors.Unsupported(errors.PhaseParse, "Tail call proposal is not supported")
	case 0x14, 0x15:
		return nil, errors.Unsupported(errors.PhaseParse, "Function Reference Types Proposal is not supported")

	case 0x1a:
		return Drop{}, nil
	case 0x1b: // select
		return Select{}, nil
	case 0x1c: // select with explicit types
		types, err := readValTypeVec(r)
		if err != nil {
			return nil, err
		}
		return Select{Types: types}, nil

	case 0x20: // local.get
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return LocalGet{Local: idx}, nil
	case 0x21: // local.set
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return LocalSet{Local: idx}, nil
	case 0x22: // local.tee
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return LocalTee{Local: idx}, nil
	case 0x23: // global.get
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return GlobalGet{Global: idx}, nil
	case 0x24: // global.set
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return GlobalSet{Global: idx}, nil

	case 0x25: // table.get
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return TableGet{Table: idx}, nil
	case 0x26: // table.set
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return TableSet{Table: idx}, nil

	case 0x28: // i32.load
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Load{Type: ValI32, Arg: arg}, nil
	case 0x29:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Load{Type: ValI64, Arg: arg}, nil
	case 0x2a:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Load{Type: ValF32, Arg: arg}, nil
	case 0x2b:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Load{Type: ValF64, Arg: arg}, nil
	case 0x2c, 0x2d: // i32.load8_s / _u
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Load8{Type: ValI32, Sign: signFor(opcode == 0x2c), Arg: arg}, nil
	case 0x2e, 0x2f: // i32.load16_s / _u
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Load16{Type: ValI32, Sign: signFor(opcode == 0x2e), Arg: arg}, nil
	case 0x30, 0x31: // i64.load8_s / _u
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Load8{Type: ValI64, Sign: signFor(opcode == 0x30), Arg: arg}, nil
	case 0x32, 0x33: // i64.load16_s / _u
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Load16{Type: ValI64, Sign: signFor(opcode == 0x32), Arg: arg}, nil
	case 0x34, 0x35: // i64.load32_s / _u
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Load32{Sign: signFor(opcode == 0x34), Arg: arg}, nil
	case 0x36:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Store{Type: ValI32, Arg: arg}, nil
	case 0x37:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Store{Type: ValI64, Arg: arg}, nil
	case 0x38:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Store{Type: ValF32, Arg: arg}, nil
	case 0x39:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Store{Type: ValF64, Arg: arg}, nil
	case 0x3a:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Store8{Type: ValI32, Arg: arg}, nil
	case 0x3b:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Store16{Type: ValI32, Arg: arg}, nil
	case 0x3c:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Store8{Type: ValI64, Arg: arg}, nil
	case 0x3d:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Store16{Type: ValI64, Arg: arg}, nil
	case 0x3e:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Store32{Arg: arg}, nil
	case 0x3f: // memory.size
		if err := readZeroByte(r); err != nil {
			return nil, err
		}
		return MemorySize{}, nil
	case 0x40: // memory.grow
		if err := readZeroByte(r); err != nil {
			return nil, err
		}
		return MemoryGrow{}, nil

	case 0x41: // i32.const
		v, err := r.ReadS32()
		if err != nil {
			return nil, err
		}
		return I32Const{Val: v}, nil
	case 0x42: // i64.const
		v, err := r.ReadS64()
		if err != nil {
			return nil, err
		}
		return I64Const{Val: v}, nil
	case 0x43: // f32.const
		v, err := r.ReadF32()
		if err != nil {
			return nil, err
		}
		return F32Const{Val: v}, nil
	case 0x44: // f64.const
		v, err := r.ReadF64()
		if err != nil {
			return nil, err
		}
		return F64Const{Val: v}, nil

	case 0x45:
		return IEqz{Width: I32}, nil
	case 0x46:
		return IEq{Width: I32}, nil
	case 0x47:
		return INe{Width: I32}, nil
	case 0x48:
		return ILt{Width: I32, Sign: Signed}, nil
	case 0x49:
		return ILt{Width: I32, Sign: Unsigned}, nil
	case 0x4a:
		return IGt{Width: I32, Sign: Signed}, nil
	case 0x4b:
		return IGt{Width: I32, Sign: Unsigned}, nil
	case 0x4c:
		return ILe{Width: I32, Sign: Signed}, nil
	case 0x4d:
		return ILe{Width: I32, Sign: Unsigned}, nil
	case 0x4e:
		return IGe{Width: I32, Sign: Signed}, nil
	case 0x4f:
		return IGe{Width: I32, Sign: Unsigned}, nil

	case 0x50:
		return IEqz{Width: I64}, nil
	case 0x51:
		return IEq{Width: I64}, nil
	case 0x52:
		return INe{Width: I64}, nil
	case 0x53:
		return ILt{Width: I64, Sign: Signed}, nil
	case 0x54:
		return ILt{Width: I64, Sign: Unsigned}, nil
	case 0x55:
		return IGt{Width: I64, Sign: Signed}, nil
	case 0x56:
		return IGt{Width: I64, Sign: Unsigned}, nil
	case 0x57:
		return ILe{Width: I64, Sign: Signed}, nil
	case 0x58:
		return ILe{Width: I64, Sign: Unsigned}, nil
	case 0x59:
		return IGe{Width: I64, Sign: Signed}, nil
	case 0x5a:
		return IGe{Width: I64, Sign: Unsigned}, nil

	case 0x5b:
		return FEq{Width: F32}, nil
	case 0x5c:
		return FNe{Width: F32}, nil
	case 0x5d:
		return FLt{Width: F32}, nil
	case 0x5e:
		return FGt{Width: F32}, nil
	case 0x5f:
		return FLe{Width: F32}, nil
	case 0x60:
		return FGe{Width: F32}, nil
	case 0x61:
		return FEq{Width: F64}, nil
	case 0x62:
		return FNe{Width: F64}, nil
	case 0x63:
		return FLt{Width: F64}, nil
	case 0x64:
		return FGt{Width: F64}, nil
	case 0x65:
		return FLe{Width: F64}, nil
	case 0x66:
		return FGe{Width: F64}, nil

	case 0x67:
		return IClz{Width: I32}, nil
	case 0x68:
		return ICtz{Width: I32}, nil
	case 0x69:
		return IPopCnt{Width: I32}, nil
	case 0x6a:
		return IAdd{Width: I32}, nil
	case 0x6b:
		return ISub{Width: I32}, nil
	case 0x6c:
		return IMul{Width: I32}, nil
	case 0x6d:
		return IDiv{Width: I32, Sign: Signed}, nil
	case 0x6e:
		return IDiv{Width: I32, Sign: Unsigned}, nil
	case 0x6f:
		return IRem{Width: I32, Sign: Signed}, nil
	case 0x70:
		return IRem{Width: I32, Sign: Unsigned}, nil
	case 0x71:
		return IAnd{Width: I32}, nil
	case 0x72:
		return IOr{Width: I32}, nil
	case 0x73:
		return IXor{Width: I32}, nil
	case 0x74:
		return IShl{Width: I32}, nil
	case 0x75:
		return IShr{Width: I32, Sign: Signed}, nil
	case 0x76:
		return IShr{Width: I32, Sign: Unsigned}, nil
	case 0x77:
		return IRotL{Width: I32}, nil
	case 0x78:
		return IRotR{Width: I32}, nil

	case 0x79:
		return IClz{Width: I64}, nil
	case 0x7a:
		return ICtz{Width: I64}, nil
	case 0x7b:
		return IPopCnt{Width: I64}, nil
	case 0x7c:
		return IAdd{Width: I64}, nil
	case 0x7d:
		return ISub{Width: I64}, nil
	case 0x7e:
		return IMul{Width: I64}, nil
	case 0x7f:
		return IDiv{Width: I64, Sign: Signed}, nil
	case 0x80:
		return IDiv{Width: I64, Sign: Unsigned}, nil
	case 0x81:
		return IRem{Width: I64, Sign: Signed}, nil
	case 0x82:
		return IRem{Width: I64, Sign: Unsigned}, nil
	case 0x83:
		return IAnd{Width: I64}, nil
	case 0x84:
		return IOr{Width: I64}, nil
	case 0x85:
		return IXor{Width: I64}, nil
	case 0x86:
		return IShl{Width: I64}, nil
	case 0x87:
		return IShr{Width: I64, Sign: Signed}, nil
	case 0x88:
		return IShr{Width: I64, Sign: Unsigned}, nil
	case 0x89:
		return IRotL{Width: I64}, nil
	case 0x8a:
		return IRotR{Width: I64}, nil

	case 0x8b:
		return FAbs{Width: F32}, nil
	case 0x8c:
		return FNeg{Width: F32}, nil
	case 0x8d:
		return FCeil{Width: F32}, nil
	case 0x8e:
		return FFloor{Width: F32}, nil
	case 0x8f:
		return FTrunc{Width: F32}, nil
	case 0x90:
		return FNearest{Width: F32}, nil
	case 0x91:
		return FSqrt{Width: F32}, nil
	case 0x92:
		return FAdd{Width: F32}, nil
	case 0x93:
		return FSub{Width: F32}, nil
	case 0x94:
		return FMul{Width: F32}, nil
	case 0x95:
		return FDiv{Width: F32}, nil
	case 0x96:
		return FMin{Width: F32}, nil
	case 0x97:
		return FMax{Width: F32}, nil
	case 0x98:
		return FCopySign{Width: F32}, nil

	case 0x99:
		return FAbs{Width: F64}, nil
	case 0x9a:
		return FNeg{Width: F64}, nil
	case 0x9b:
		return FCeil{Width: F64}, nil
	case 0x9c:
		return FFloor{Width: F64}, nil
	case 0x9d:
		return FTrunc{Width: F64}, nil
	case 0x9e:
		return FNearest{Width: F64}, nil
	case 0x9f:
		return FSqrt{Width: F64}, nil
	case 0xa0:
		return FAdd{Width: F64}, nil
	case 0xa1:
		return FSub{Width: F64}, nil
	case 0xa2:
		return FMul{Width: F64}, nil
	case 0xa3:
		return FDiv{Width: F64}, nil
	case 0xa4:
		return FMin{Width: F64}, nil
	case 0xa5:
		return FMax{Width: F64}, nil
	case 0xa6:
		return FCopySign{Width: F64}, nil

	case 0xa7:
		return I32WrapI64{}, nil
	case 0xa8:
		return ITruncF{IntWidth: I32, FloatWidth: F32, Sign: Signed}, nil
	case 0xa9:
		return ITruncF{IntWidth: I32, FloatWidth: F32, Sign: Unsigned}, nil
	case 0xaa:
		return ITruncF{IntWidth: I32, FloatWidth: F64, Sign: Signed}, nil
	case 0xab:
		return ITruncF{IntWidth: I32, FloatWidth: F64, Sign: Unsigned}, nil
	case 0xac:
		return I64ExtendI32{Sign: Signed}, nil
	case 0xad:
		return I64ExtendI32{Sign: Unsigned}, nil
	case 0xae:
		return ITruncF{IntWidth: I64, FloatWidth: F32, Sign: Signed}, nil
	case 0xaf:
		return ITruncF{IntWidth: I64, FloatWidth: F32, Sign: Unsigned}, nil
	case 0xb0:
		return ITruncF{IntWidth: I64, FloatWidth: F64, Sign: Signed}, nil
	case 0xb1:
		return ITruncF{IntWidth: I64, FloatWidth: F64, Sign: Unsigned}, nil
	case 0xb2:
		return FConvertI{FloatWidth: F32, IntWidth: I32, Sign: Signed}, nil
	case 0xb3:
		return FConvertI{FloatWidth: F32, IntWidth: I32, Sign: Unsigned}, nil
	case 0xb4:
		return FConvertI{FloatWidth: F32, IntWidth: I64, Sign: Signed}, nil
	case 0xb5:
		return FConvertI{FloatWidth: F32, IntWidth: I64, Sign: Unsigned}, nil
	case 0xb6:
		return F32DemoteF64{}, nil
	case 0xb7:
		return FConvertI{FloatWidth: F64, IntWidth: I32, Sign: Signed}, nil
	case 0xb8:
		return FConvertI{FloatWidth: F64, IntWidth: I32, Sign: Unsigned}, nil
	case 0xb9:
		return FConvertI{FloatWidth: F64, IntWidth: I64, Sign: Signed}, nil
	case 0xba:
		return FConvertI{FloatWidth: F64, IntWidth: I64, Sign: Unsigned}, nil
	case 0xbb:
		return F64PromoteF32{}, nil
	case 0xbc:
		return IReinterpretF{Width: I32}, nil
	case 0xbd:
		return IReinterpretF{Width: I64}, nil
	case 0xbe:
		return FReinterpretI{Width: F32}, nil
	case 0xbf:
		return FReinterpretI{Width: F64}, nil

	case 0xc0:
		return IExtend8S{Width: I32}, nil
	case 0xc1:
		return IExtend16S{Width: I32}, nil
	case 0xc2:
		return IExtend8S{Width: I64}, nil
	case 0xc3:
		return IExtend16S{Width: I64}, nil
	case 0xc4:
		return I64Extend32S{}, nil

	case 0xd0: // ref.null
		rt, err := readRefType(r)
		if err != nil {
			return nil, err
		}
		return RefNull{Type: rt}, nil
	case 0xd1:
		return RefIsNull{}, nil
	case 0xd2: // ref.func
		funcIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return RefFunc{Func: funcIdx}, nil
	case 0xd3:
		return nil, errors.Unsupported(errors.PhaseParse, "GC Proposal is not supported")
	case 0xd4, 0xd5, 0xd6:
		return nil, errors.Unsupported(errors.PhaseParse, "Function Reference Types Proposal is not supported")

	case 0xfb:
		return nil, errors.Unsupported(errors.PhaseParse, "GC Proposal is not supported")
	case 0xfc:
		return readMiscInstr(r)
	case 0xfd:
		return readVectorInstr(r)
	case 0xfe:
		return nil, errors.Unsupported(errors.PhaseParse, "Threads proposal is not supported")
	}
	return nil, errors.Unsupported(errors.PhaseParse, fmt.Sprintf("Unsupported operator: 0x%02x", opcode))
}

func signFor(signed bool) Signedness {
	if signed {
		return Signed
	}
	return Unsigned
}

// readMiscInstr decodes the 0xfc-prefixed instruction group.
func readMiscInstr(r *binary.Reader) (Instr, error) {
	sub, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	switch sub {
	case 0:
		return ITruncSatF{IntWidth: I32, FloatWidth: F32, Sign: Signed}, nil
	case 1:
		return ITruncSatF{IntWidth: I32, FloatWidth: F32, Sign: Unsigned}, nil
	case 2:
		return ITruncSatF{IntWidth: I32, FloatWidth: F64, Sign: Signed}, nil
	case 3:
		return ITruncSatF{IntWidth: I32, FloatWidth: F64, Sign: Unsigned}, nil
	case 4:
		return ITruncSatF{IntWidth: I64, FloatWidth: F32, Sign: Signed}, nil
	case 5:
		return ITruncSatF{IntWidth: I64, FloatWidth: F32, Sign: Unsigned}, nil
	case 6:
		return ITruncSatF{IntWidth: I64, FloatWidth: F64, Sign: Signed}, nil
	case 7:
		return ITruncSatF{IntWidth: I64, FloatWidth: F64, Sign: Unsigned}, nil
	case 8: // memory.init
		dataIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		if err := readZeroByte(r); err != nil {
			return nil, err
		}
		return MemoryInit{Data: dataIdx}, nil
	case 9: // data.drop
		dataIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return DataDrop{Data: dataIdx}, nil
	case 10: // memory.copy
		if err := readZeroByte(r); err != nil {
			return nil, err
		}
		if err := readZeroByte(r); err != nil {
			return nil, err
		}
		return MemoryCopy{}, nil
	case 11: // memory.fill
		if err := readZeroByte(r); err != nil {
			return nil, err
		}
		return MemoryFill{}, nil
	case 12: // table.init
		elemIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		tableIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return TableInit{Table: tableIdx, Elem: elemIdx}, nil
	case 13: // elem.drop
		elemIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return ElemDrop{Elem: elemIdx}, nil
	case 14: // table.copy
		dst, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		src, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return TableCopy{Source: src, Destination: dst}, nil
	case 15: // table.grow
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return TableGrow{Table: idx}, nil
	case 16: // table.size
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return TableSize{Table: idx}, nil
	case 17: // table.fill
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return TableFill{Table: idx}, nil
	case 18: // memory.discard
		return nil, errors.Unsupported(errors.PhaseParse,
			"Fine grained control of memory proposal is not supported")
	}
	return nil, errors.Unsupported(errors.PhaseParse, fmt.Sprintf("Unsupported operator: 0xfc %d", sub))
}
