package core

import (
	"fmt"

	"github.com/wippyai/wasm-ast/errors"
	"github.com/wippyai/wasm-ast/internal/binary"
)

// Readers and writers for core entities embedded in enclosing formats,
// such as the core type and import declarations of a component's module
// types.

// ReadFuncType decodes a core function type, including its leading form
// byte.
func ReadFuncType(r *binary.Reader) (*FuncType, error) {
	return readFuncType(r)
}

// ReadTypeRef decodes a core import descriptor.
func ReadTypeRef(r *binary.Reader) (TypeRef, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch kind {
	case 0x00:
		typeIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return TypeRefFunc{TypeIdx: typeIdx}, nil
	case 0x01:
		tt, err := readTableType(r)
		if err != nil {
			return nil, err
		}
		return TypeRefTable{Type: tt}, nil
	case 0x02:
		mt, err := readMemType(r)
		if err != nil {
			return nil, err
		}
		return TypeRefMem{Type: mt}, nil
	case 0x03:
		gt, err := readGlobalType(r)
		if err != nil {
			return nil, err
		}
		return TypeRefGlobal{Type: gt}, nil
	case 0x04:
		return nil, errors.Unsupported(errors.PhaseParse, "Exception handling proposal is not supported")
	}
	return nil, errors.Malformed(errors.PhaseParse, []string{"import descriptor"},
		fmt.Sprintf("invalid import kind 0x%02x", kind))
}

// ReadImport decodes a core import.
func ReadImport(r *binary.Reader) (*Import, error) {
	module, err := r.ReadName()
	if err != nil {
		return nil, err
	}
	name, err := r.ReadName()
	if err != nil {
		return nil, err
	}
	desc, err := ReadTypeRef(r)
	if err != nil {
		return nil, err
	}
	return &Import{Module: module, Name: name, Desc: desc}, nil
}

// WriteFuncType encodes a core function type, including its form byte.
func WriteFuncType(w *binary.Writer, ft *FuncType) error {
	return writeFuncType(w, ft)
}

// WriteTypeRef encodes a core import descriptor.
func WriteTypeRef(w *binary.Writer, ref TypeRef) error {
	switch desc := ref.(type) {
	case TypeRefFunc:
		w.Byte(0x00)
		w.WriteU32(desc.TypeIdx)
	case TypeRefTable:
		w.Byte(0x01)
		if err := writeTableType(w, desc.Type); err != nil {
			return err
		}
	case TypeRefMem:
		w.Byte(0x02)
		writeLimits(w, desc.Type.Limits)
	case TypeRefGlobal:
		w.Byte(0x03)
		writeGlobalType(w, desc.Type)
	default:
		return errors.Internal(errors.PhaseEncode, fmt.Sprintf("unexpected import descriptor %T", ref))
	}
	return nil
}

// WriteImport encodes a core import.
func WriteImport(w *binary.Writer, imp *Import) error {
	return writeImport(w, imp)
}
