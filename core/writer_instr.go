package core

import (
	"fmt"

	"github.com/wippyai/wasm-ast/errors"
	"github.com/wippyai/wasm-ast/internal/binary"
)

func invalidInstr(format string, args ...any) error {
	return errors.InvalidData(errors.PhaseEncode, []string{"instruction"}, fmt.Sprintf(format, args...))
}

// widthOff resolves the opcode offset between the i32 and i64 variant of a
// factored integer instruction.
func widthOff(width IntWidth, off byte) byte {
	if width == I64 {
		return off
	}
	return 0
}

func signOff(sign Signedness) byte {
	if sign == Unsigned {
		return 1
	}
	return 0
}

func floatOff(width FloatWidth, off byte) byte {
	if width == F64 {
		return off
	}
	return 0
}

func writeMisc(w *binary.Writer, sub uint32) {
	w.Byte(0xfc)
	w.WriteU32(sub)
}

func writeInstr(w *binary.Writer, instr Instr) error {
	switch op := instr.(type) {
	case Unreachable:
		w.Byte(0x00)
	case Nop:
		w.Byte(0x01)
	case Block:
		w.Byte(0x02)
		if err := writeBlockType(w, op.Type); err != nil {
			return err
		}
		if err := writeInstrs(w, op.Body); err != nil {
			return err
		}
		w.Byte(0x0b)
	case Loop:
		w.Byte(0x03)
		if err := writeBlockType(w, op.Type); err != nil {
			return err
		}
		if err := writeInstrs(w, op.Body); err != nil {
			return err
		}
		w.Byte(0x0b)
	case If:
		w.Byte(0x04)
		if err := writeBlockType(w, op.Type); err != nil {
			return err
		}
		if err := writeInstrs(w, op.Then); err != nil {
			return err
		}
		// The else arm is only emitted when it has instructions; an empty
		// arm round-trips to a bare if.
		if len(op.Else) > 0 {
			w.Byte(0x05)
			if err := writeInstrs(w, op.Else); err != nil {
				return err
			}
		}
		w.Byte(0x0b)
	case Br:
		w.Byte(0x0c)
		w.WriteU32(op.Label)
	case BrIf:
		w.Byte(0x0d)
		w.WriteU32(op.Label)
	case BrTable:
		w.Byte(0x0e)
		w.WriteU32(uint32(len(op.Labels)))
		for _, label := range op.Labels {
			w.WriteU32(label)
		}
		w.WriteU32(op.Default)
	case Return:
		w.Byte(0x0f)
	case Call:
		w.Byte(0x10)
		w.WriteU32(op.Func)
	case CallIndirect:
		w.Byte(0x11)
		w.WriteU32(op.Type)
		w.WriteU32(op.Table)

	case Drop:
		w.Byte(0x1a)
	case Select:
		if op.Types == nil {
			w.Byte(0x1b)
		} else {
			w.Byte(0x1c)
			w.WriteU32(uint32(len(op.Types)))
			for _, vt := range op.Types {
				w.Byte(byte(vt))
			}
		}

	case LocalGet:
		w.Byte(0x20)
		w.WriteU32(op.Local)
	case LocalSet:
		w.Byte(0x21)
		w.WriteU32(op.Local)
	case LocalTee:
		w.Byte(0x22)
		w.WriteU32(op.Local)
	case GlobalGet:
		w.Byte(0x23)
		w.WriteU32(op.Global)
	case GlobalSet:
		w.Byte(0x24)
		w.WriteU32(op.Global)

	case TableGet:
		w.Byte(0x25)
		w.WriteU32(op.Table)
	case TableSet:
		w.Byte(0x26)
		w.WriteU32(op.Table)
	case TableSize:
		writeMisc(w, 16)
		w.WriteU32(op.Table)
	case TableGrow:
		writeMisc(w, 15)
		w.WriteU32(op.Table)
	case TableFill:
		writeMisc(w, 17)
		w.WriteU32(op.Table)
	case TableCopy:
		writeMisc(w, 14)
		w.WriteU32(op.Destination)
		w.WriteU32(op.Source)
	case TableInit:
		writeMisc(w, 12)
		w.WriteU32(op.Elem)
		w.WriteU32(op.Table)
	case ElemDrop:
		writeMisc(w, 13)
		w.WriteU32(op.Elem)

	case Load:
		switch op.Type {
		case ValI32:
			w.Byte(0x28)
		case ValI64:
			w.Byte(0x29)
		case ValF32:
			w.Byte(0x2a)
		case ValF64:
			w.Byte(0x2b)
		case ValV128:
			w.Byte(0xfd)
			w.WriteU32(0)
		default:
			return invalidInstr("cannot load a value of type %s", op.Type)
		}
		writeMemArg(w, op.Arg)
	case Load8:
		switch op.Type {
		case ValI32:
			w.Byte(0x2c + signOff(op.Sign))
		case ValI64:
			w.Byte(0x30 + signOff(op.Sign))
		default:
			return invalidInstr("cannot narrow-load a value of type %s", op.Type)
		}
		writeMemArg(w, op.Arg)
	case Load16:
		switch op.Type {
		case ValI32:
			w.Byte(0x2e + signOff(op.Sign))
		case ValI64:
			w.Byte(0x32 + signOff(op.Sign))
		default:
			return invalidInstr("cannot narrow-load a value of type %s", op.Type)
		}
		writeMemArg(w, op.Arg)
	case Load32:
		w.Byte(0x34 + signOff(op.Sign))
		writeMemArg(w, op.Arg)
	case Store:
		switch op.Type {
		case ValI32:
			w.Byte(0x36)
		case ValI64:
			w.Byte(0x37)
		case ValF32:
			w.Byte(0x38)
		case ValF64:
			w.Byte(0x39)
		case ValV128:
			w.Byte(0xfd)
			w.WriteU32(11)
		default:
			return invalidInstr("cannot store a value of type %s", op.Type)
		}
		writeMemArg(w, op.Arg)
	case Store8:
		switch op.Type {
		case ValI32:
			w.Byte(0x3a)
		case ValI64:
			w.Byte(0x3c)
		default:
			return invalidInstr("cannot narrow-store a value of type %s", op.Type)
		}
		writeMemArg(w, op.Arg)
	case Store16:
		switch op.Type {
		case ValI32:
			w.Byte(0x3b)
		case ValI64:
			w.Byte(0x3d)
		default:
			return invalidInstr("cannot narrow-store a value of type %s", op.Type)
		}
		writeMemArg(w, op.Arg)
	case Store32:
		w.Byte(0x3e)
		writeMemArg(w, op.Arg)

	case MemorySize:
		w.Byte(0x3f)
		w.Byte(0x00)
	case MemoryGrow:
		w.Byte(0x40)
		w.Byte(0x00)
	case MemoryInit:
		writeMisc(w, 8)
		w.WriteU32(op.Data)
		w.Byte(0x00)
	case DataDrop:
		writeMisc(w, 9)
		w.WriteU32(op.Data)
	case MemoryCopy:
		writeMisc(w, 10)
		w.Byte(0x00)
		w.Byte(0x00)
	case MemoryFill:
		writeMisc(w, 11)
		w.Byte(0x00)

	case I32Const:
		w.Byte(0x41)
		w.WriteS32(op.Val)
	case I64Const:
		w.Byte(0x42)
		w.WriteS64(op.Val)
	case F32Const:
		w.Byte(0x43)
		w.WriteF32(op.Val)
	case F64Const:
		w.Byte(0x44)
		w.WriteF64(op.Val)

	case IEqz:
		w.Byte(0x45 + widthOff(op.Width, 0x0b))
	case IEq:
		w.Byte(0x46 + widthOff(op.Width, 0x0b))
	case INe:
		w.Byte(0x47 + widthOff(op.Width, 0x0b))
	case ILt:
		w.Byte(0x48 + widthOff(op.Width, 0x0b) + signOff(op.Sign))
	case IGt:
		w.Byte(0x4a + widthOff(op.Width, 0x0b) + signOff(op.Sign))
	case ILe:
		w.Byte(0x4c + widthOff(op.Width, 0x0b) + signOff(op.Sign))
	case IGe:
		w.Byte(0x4e + widthOff(op.Width, 0x0b) + signOff(op.Sign))

	case FEq:
		w.Byte(0x5b + floatOff(op.Width, 0x06))
	case FNe:
		w.Byte(0x5c + floatOff(op.Width, 0x06))
	case FLt:
		w.Byte(0x5d + floatOff(op.Width, 0x06))
	case FGt:
		w.Byte(0x5e + floatOff(op.Width, 0x06))
	case FLe:
		w.Byte(0x5f + floatOff(op.Width, 0x06))
	case FGe:
		w.Byte(0x60 + floatOff(op.Width, 0x06))

	case IClz:
		w.Byte(0x67 + widthOff(op.Width, 0x12))
	case ICtz:
		w.Byte(0x68 + widthOff(op.Width, 0x12))
	case IPopCnt:
		w.Byte(0x69 + widthOff(op.Width, 0x12))
	case IAdd:
		w.Byte(0x6a + widthOff(op.Width, 0x12))
	case ISub:
		w.Byte(0x6b + widthOff(op.Width, 0x12))
	case IMul:
		w.Byte(0x6c + widthOff(op.Width, 0x12))
	case IDiv:
		w.Byte(0x6d + widthOff(op.Width, 0x12) + signOff(op.Sign))
	case IRem:
		w.Byte(0x6f + widthOff(op.Width, 0x12) + signOff(op.Sign))
	case IAnd:
		w.Byte(0x71 + widthOff(op.Width, 0x12))
	case IOr:
		w.Byte(0x72 + widthOff(op.Width, 0x12))
	case IXor:
		w.Byte(0x73 + widthOff(op.Width, 0x12))
	case IShl:
		w.Byte(0x74 + widthOff(op.Width, 0x12))
	case IShr:
		w.Byte(0x75 + widthOff(op.Width, 0x12) + signOff(op.Sign))
	case IRotL:
		w.Byte(0x77 + widthOff(op.Width, 0x12))
	case IRotR:
		w.Byte(0x78 + widthOff(op.Width, 0x12))

	case FAbs:
		w.Byte(0x8b + floatOff(op.Width, 0x0e))
	case FNeg:
		w.Byte(0x8c + floatOff(op.Width, 0x0e))
	case FCeil:
		w.Byte(0x8d + floatOff(op.Width, 0x0e))
	case FFloor:
		w.Byte(0x8e + floatOff(op.Width, 0x0e))
	case FTrunc:
		w.Byte(0x8f + floatOff(op.Width, 0x0e))
	case FNearest:
		w.Byte(0x90 + floatOff(op.Width, 0x0e))
	case FSqrt:
		w.Byte(0x91 + floatOff(op.Width, 0x0e))
	case FAdd:
		w.Byte(0x92 + floatOff(op.Width, 0x0e))
	case FSub:
		w.Byte(0x93 + floatOff(op.Width, 0x0e))
	case FMul:
		w.Byte(0x94 + floatOff(op.Width, 0x0e))
	case FDiv:
		w.Byte(0x95 + floatOff(op.Width, 0x0e))
	case FMin:
		w.Byte(0x96 + floatOff(op.Width, 0x0e))
	case FMax:
		w.Byte(0x97 + floatOff(op.Width, 0x0e))
	case FCopySign:
		w.Byte(0x98 + floatOff(op.Width, 0x0e))

	case I32WrapI64:
		w.Byte(0xa7)
	case ITruncF:
		w.Byte(0xa8 + widthOff(op.IntWidth, 0x06) + floatOff(op.FloatWidth, 0x02) + signOff(op.Sign))
	case I64ExtendI32:
		w.Byte(0xac + signOff(op.Sign))
	case FConvertI:
		w.Byte(0xb2 + floatOff(op.FloatWidth, 0x05) + widthOff(op.IntWidth, 0x02) + signOff(op.Sign))
	case F32DemoteF64:
		w.Byte(0xb6)
	case F64PromoteF32:
		w.Byte(0xbb)
	case IReinterpretF:
		w.Byte(0xbc + widthOff(op.Width, 0x01))
	case FReinterpretI:
		w.Byte(0xbe + floatOff(op.Width, 0x01))

	case IExtend8S:
		w.Byte(0xc0 + widthOff(op.Width, 0x02))
	case IExtend16S:
		w.Byte(0xc1 + widthOff(op.Width, 0x02))
	case I64Extend32S:
		w.Byte(0xc4)

	case ITruncSatF:
		writeMisc(w, uint32(widthOff(op.IntWidth, 0x04)+floatOff(op.FloatWidth, 0x02)+signOff(op.Sign)))

	case RefNull:
		w.Byte(0xd0)
		w.Byte(byte(op.Type))
	case RefIsNull:
		w.Byte(0xd1)
	case RefFunc:
		w.Byte(0xd2)
		w.WriteU32(op.Func)

	default:
		return writeVectorInstr(w, instr)
	}
	return nil
}
