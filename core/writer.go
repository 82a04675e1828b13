package core

import (
	"fmt"

	"github.com/wippyai/wasm-ast/errors"
	"github.com/wippyai/wasm-ast/internal/binary"
)

// Encode serializes a core module back to its binary form. Consecutive
// sections of the same groupable type are emitted as a single binary
// section, so a module assembled through the mutators round-trips to the
// canonical layout.
//
// Encode fails if the module was parsed with a customization that dropped
// instruction bodies or data payloads.
func Encode(module *Module) ([]byte, error) {
	w := binary.NewWriter()
	w.WriteU32LE(Magic)
	w.WriteU32LE(Version)

	for _, group := range module.IntoGrouped() {
		if err := encodeGroup(w, group.Type, group.Sections); err != nil {
			return nil, fmt.Errorf("Error encoding core module: %w", err)
		}
	}
	return w.Bytes(), nil
}

func encodeGroup(w *binary.Writer, kind CoreSectionType, sections []CoreSection) error {
	payload := binary.NewWriter()

	switch kind {
	case SecCustom:
		// Grouping never merges custom sections, so there is exactly one.
		custom := sections[0].(*Custom)
		payload.WriteName(custom.Name)
		payload.WriteBytes(custom.Data)
		writeSection(w, sectionIDCustom, payload.Bytes())
		return nil
	case SecStart:
		start := sections[0].(*Start)
		payload.WriteU32(start.Func)
		writeSection(w, sectionIDStart, payload.Bytes())
		return nil
	case SecDataCount:
		dc := sections[0].(*DataCount)
		payload.WriteU32(dc.Count)
		writeSection(w, sectionIDDataCount, payload.Bytes())
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

func sectionIDFor(kind CoreSectionType) byte {
	switch kind {
	case SecType:
		return sectionIDType
	case SecImport:
		return sectionIDImport
	case SecFunc:
		return sectionIDFunction
	case SecTable:
		return sectionIDTable
	case SecMem:
		return sectionIDMemory
	case SecGlobal:
		return sectionIDGlobal
	case SecExport:
		return sectionIDExport
	case SecElem:
		return sectionIDElement
	case SecCode:
		return sectionIDCode
	case SecData:
		return sectionIDData
	}
	return sectionIDCustom
}

func writeSection(w *binary.Writer, id byte, payload []byte) {
	w.Byte(id)
	w.WriteByteVector(payload)
}

func encodeSection(w *binary.Writer, section CoreSection) error {
	switch s := section.(type) {
	case *FuncType:
		return writeFuncType(w, s)
	case *Import:
		return writeImport(w, s)
	case *FuncTypeRef:
		w.WriteU32(s.TypeIdx)
		return nil
	case *Table:
		return writeTableType(w, s.Type)
	case *Mem:
		writeLimits(w, s.Type.Limits)
		return nil
	case *Global:
		return writeGlobal(w, s)
	case *Export:
		w.WriteName(s.Name)
		w.Byte(byte(s.Desc.Kind))
		w.WriteU32(s.Desc.Idx)
		return nil
	case *Elem:
		return writeElem(w, s)
	case *FuncCode:
		return writeCode(w, s)
	case *Data:
		return writeData(w, s)
	}
	return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected section node %T", section))
}

func writeFuncType(w *binary.Writer, ft *FuncType) error {
	w.Byte(0x60)
	w.WriteU32(uint32(len(ft.Params)))
	for _, vt := range ft.Params {
		w.Byte(byte(vt))
	}
	w.WriteU32(uint32(len(ft.Results)))
	for _, vt := range ft.Results {
		w.Byte(byte(vt))
	}
	return nil
}

func writeImport(w *binary.Writer, imp *Import) error {
	w.WriteName(imp.Module)
	w.WriteName(imp.Name)
	return WriteTypeRef(w, imp.Desc)
}

func writeTableType(w *binary.Writer, tt TableType) error {
	w.Byte(byte(tt.Elements))
	writeLimits(w, tt.Limits)
	return nil
}

func writeLimits(w *binary.Writer, limits Limits) {
	if limits.Max != nil {
		w.Byte(0x01)
		w.WriteU32(uint32(limits.Min))
		w.WriteU32(uint32(*limits.Max))
	} else {
		w.Byte(0x00)
		w.WriteU32(uint32(limits.Min))
	}
}

func writeGlobalType(w *binary.Writer, gt GlobalType) {
	w.Byte(byte(gt.ValType))
	if gt.Mutable {
		w.Byte(0x01)
	} else {
		w.Byte(0x00)
	}
}

func writeGlobal(w *binary.Writer, g *Global) error {
	writeGlobalType(w, g.Type)
	return writeExpr(w, g.Init)
}

func writeElem(w *binary.Writer, elem *Elem) error {
	// Init entries holding a single ref.func can use the compact function
	// index encoding; anything else needs element expressions.
	useExprs := elem.Kind != FuncRef
	for _, init := range elem.Init {
		if init == nil {
			return errors.InvalidData(errors.PhaseEncode, []string{"element segment"},
				"initializer dropped during parsing")
		}
		if !isRefFuncExpr(init) {
			useExprs = true
		}
	}

	var flags uint32
	var active *ElemModeActive
	switch mode := elem.Mode.(type) {
	case ElemModeActive:
		if mode.TableIdx != 0 {
			flags |= 0x02
		}
		active = &mode
	case ElemModePassive:
		flags |= 0x01
	case ElemModeDeclarative:
		flags |= 0x03
	default:
		return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected element mode %T", elem.Mode))
	}
	if useExprs {
		flags |= 0x04
	}

	w.WriteU32(flags)
	if active != nil {
		if flags&0x02 != 0 {
			w.WriteU32(active.TableIdx)
		}
		if err := writeExpr(w, active.Offset); err != nil {
			return err
		}
	}
	if flags&0x03 != 0 {
		if useExprs {
			w.Byte(byte(elem.Kind))
		} else {
			w.Byte(0x00) // elemkind: funcref
		}
	}
	w.WriteU32(uint32(len(elem.Init)))
	for _, init := range elem.Init {
		if useExprs {
			if err := writeExpr(w, init); err != nil {
				return err
			}
		} else {
			w.WriteU32(init.Instrs[0].(RefFunc).Func)
		}
	}
	return nil
}

func isRefFuncExpr(expr *Expr) bool {
	if len(expr.Instrs) != 1 {
		return false
	}
	_, ok := expr.Instrs[0].(RefFunc)
	return ok
}

func writeCode(w *binary.Writer, code *FuncCode) error {
	if code.Body == nil {
		return errors.InvalidData(errors.PhaseEncode, []string{"code section"},
			"function body dropped during parsing")
	}
	body := binary.NewWriter()
	writeLocals(body, code.Locals)
	if err := writeInstrs(body, code.Body.Instrs); err != nil {
		return err
	}
	body.Byte(0x0b)
	w.WriteByteVector(body.Bytes())
	return nil
}

// writeLocals run-length encodes consecutive locals of the same type.
func writeLocals(w *binary.Writer, locals []ValType) {
	type group struct {
		count uint32
		vt    ValType
	}
	var groups []group
	for _, vt := range locals {
		if len(groups) > 0 && groups[len(groups)-1].vt == vt {
			groups[len(groups)-1].count++
		} else {
			groups = append(groups, group{count: 1, vt: vt})
		}
	}
	w.WriteU32(uint32(len(groups)))
	for _, g := range groups {
		w.WriteU32(g.count)
		w.Byte(byte(g.vt))
	}
}

func writeData(w *binary.Writer, data *Data) error {
	switch mode := data.Mode.(type) {
	case DataModeActive:
		if mode.MemIdx == 0 {
			w.WriteU32(0x00)
		} else {
			w.WriteU32(0x02)
			w.WriteU32(mode.MemIdx)
		}
		if err := writeExpr(w, mode.Offset); err != nil {
			return err
		}
	case DataModePassive:
		w.WriteU32(0x01)
	default:
		return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected data mode %T", data.Mode))
	}
	if data.Init == nil {
		return errors.InvalidData(errors.PhaseEncode, []string{"data section"},
			"data payload dropped during parsing")
	}
	w.WriteByteVector(data.Init)
	return nil
}

func writeExpr(w *binary.Writer, expr *Expr) error {
	if expr == nil {
		return errors.InvalidData(errors.PhaseEncode, []string{"expression"},
			"instructions dropped during parsing")
	}
	if err := writeInstrs(w, expr.Instrs); err != nil {
		return err
	}
	w.Byte(0x0b)
	return nil
}

func writeInstrs(w *binary.Writer, instrs []Instr) error {
	for _, instr := range instrs {
		if err := writeInstr(w, instr); err != nil {
			return err
		}
	}
	return nil
}

func writeBlockType(w *binary.Writer, bt BlockType) error {
	switch {
	case bt.Index != nil:
		w.WriteS64(int64(*bt.Index))
	case bt.Value != nil:
		w.Byte(byte(*bt.Value))
	default:
		w.Byte(0x40)
	}
	return nil
}

func writeMemArg(w *binary.Writer, arg MemArg) {
	w.WriteU32(uint32(arg.Align))
	w.WriteU32(arg.Offset)
}
