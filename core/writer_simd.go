package core

import (
	"github.com/wippyai/wasm-ast/errors"
	"github.com/wippyai/wasm-ast/internal/binary"
)

func vop(w *binary.Writer, sub uint32) {
	w.Byte(0xfd)
	w.WriteU32(sub)
}

func vopMem(w *binary.Writer, sub uint32, arg MemArg) {
	vop(w, sub)
	writeMemArg(w, arg)
}

func vopLane(w *binary.Writer, sub uint32, lane LaneIdx) {
	vop(w, sub)
	w.Byte(byte(lane))
}

func uOff(sign Signedness) uint32 {
	if sign == Unsigned {
		return 1
	}
	return 0
}

func highOff(half Half) uint32 {
	if half == HighHalf {
		return 1
	}
	return 0
}

func fOff(shape FShape, off uint32) uint32 {
	if shape == F64x2 {
		return off
	}
	return 0
}

// writeVectorInstr encodes the 0xfd-prefixed vector instructions. It is the
// fallthrough of writeInstr, so an unknown node lands here.
func writeVectorInstr(w *binary.Writer, instr Instr) error {
	switch op := instr.(type) {
	case V128Const:
		vop(w, 12)
		w.WriteBytes(op.Val[:])
	case VI8x16Shuffle:
		vop(w, 13)
		for _, lane := range op.Lanes {
			w.Byte(byte(lane))
		}
	case VI8x16Swizzle:
		vop(w, 14)
	case VSplat:
		vop(w, 15+uint32(op.Shape))

	case VI8x16ExtractLane:
		vopLane(w, 21+uOff(op.Sign), op.Lane)
	case VI16x8ExtractLane:
		vopLane(w, 24+uOff(op.Sign), op.Lane)
	case VI32x4ExtractLane:
		vopLane(w, 27, op.Lane)
	case VI64x2ExtractLane:
		vopLane(w, 29, op.Lane)
	case VFExtractLane:
		vopLane(w, 31+fOff(op.Shape, 2), op.Lane)
	case VReplaceLane:
		subs := [6]uint32{23, 26, 28, 30, 32, 34}
		vopLane(w, subs[op.Shape], op.Lane)

	case VIEq:
		if op.Shape == I64x2 {
			vop(w, 214)
		} else {
			vop(w, 35+10*uint32(op.Shape))
		}
	case VINe:
		if op.Shape == I64x2 {
			vop(w, 215)
		} else {
			vop(w, 36+10*uint32(op.Shape))
		}
	case VILt:
		if op.Shape == I64x2 {
			return invalidInstr("i64x2 comparisons carry no signedness")
		}
		vop(w, 37+10*uint32(op.Shape)+2*uOff(op.Sign))
	case VIGt:
		if op.Shape == I64x2 {
			return invalidInstr("i64x2 comparisons carry no signedness")
		}
		vop(w, 39+10*uint32(op.Shape)+2*uOff(op.Sign))
	case VILe:
		if op.Shape == I64x2 {
			return invalidInstr("i64x2 comparisons carry no signedness")
		}
		vop(w, 41+10*uint32(op.Shape)+2*uOff(op.Sign))
	case VIGe:
		if op.Shape == I64x2 {
			return invalidInstr("i64x2 comparisons carry no signedness")
		}
		vop(w, 43+10*uint32(op.Shape)+2*uOff(op.Sign))
	case VI64x2Lt:
		vop(w, 216)
	case VI64x2Gt:
		vop(w, 217)
	case VI64x2Le:
		vop(w, 218)
	case VI64x2Ge:
		vop(w, 219)

	case VFEq:
		vop(w, 65+fOff(op.Shape, 6))
	case VFNe:
		vop(w, 66+fOff(op.Shape, 6))
	case VFLt:
		vop(w, 67+fOff(op.Shape, 6))
	case VFGt:
		vop(w, 68+fOff(op.Shape, 6))
	case VFLe:
		vop(w, 69+fOff(op.Shape, 6))
	case VFGe:
		vop(w, 70+fOff(op.Shape, 6))

	case V128Not:
		vop(w, 77)
	case V128And:
		vop(w, 78)
	case V128AndNot:
		vop(w, 79)
	case V128Or:
		vop(w, 80)
	case V128XOr:
		vop(w, 81)
	case V128BitSelect:
		vop(w, 82)
	case V128AnyTrue:
		vop(w, 83)

	case VIAbs:
		vop(w, 96+32*uint32(op.Shape))
	case VINeg:
		vop(w, 97+32*uint32(op.Shape))
	case VI8x16PopCnt:
		vop(w, 98)
	case VIAllTrue:
		vop(w, 99+32*uint32(op.Shape))
	case VIBitMask:
		vop(w, 100+32*uint32(op.Shape))

	case VI8x16NarrowI16x8:
		vop(w, 101+uOff(op.Sign))
	case VI16x8NarrowI32x4:
		vop(w, 133+uOff(op.Sign))

	case VI16x8ExtendI8x16:
		vop(w, 135+highOff(op.Half)+2*uOff(op.Sign))
	case VI32x4ExtendI16x8:
		vop(w, 167+highOff(op.Half)+2*uOff(op.Sign))
	case VI64x2ExtendI32x4:
		vop(w, 199+highOff(op.Half)+2*uOff(op.Sign))

	case VIShl:
		vop(w, 107+32*uint32(op.Shape))
	case VIShr:
		vop(w, 108+32*uint32(op.Shape)+uOff(op.Sign))
	case VIAdd:
		vop(w, 110+32*uint32(op.Shape))
	case VISub:
		vop(w, 113+32*uint32(op.Shape))
	case VIAddSat:
		if op.Shape != I8x16 && op.Shape != I16x8 {
			return invalidInstr("saturating add only exists for i8x16 and i16x8")
		}
		vop(w, 111+32*uint32(op.Shape)+uOff(op.Sign))
	case VISubSat:
		if op.Shape != I8x16 && op.Shape != I16x8 {
			return invalidInstr("saturating sub only exists for i8x16 and i16x8")
		}
		vop(w, 114+32*uint32(op.Shape)+uOff(op.Sign))
	case VIMul:
		if op.Shape == I8x16 {
			return invalidInstr("i8x16 has no multiply")
		}
		vop(w, 149+32*(uint32(op.Shape)-1))
	case VIMin:
		if op.Shape == I64x2 {
			return invalidInstr("i64x2 has no min")
		}
		vop(w, 118+32*uint32(op.Shape)+uOff(op.Sign))
	case VIMax:
		if op.Shape == I64x2 {
			return invalidInstr("i64x2 has no max")
		}
		vop(w, 120+32*uint32(op.Shape)+uOff(op.Sign))
	case VIAvgr:
		if op.Shape != I8x16 && op.Shape != I16x8 {
			return invalidInstr("averaging only exists for i8x16 and i16x8")
		}
		vop(w, 123+32*uint32(op.Shape))
	case VIExtMul:
		if op.Shape == I8x16 {
			return invalidInstr("i8x16 has no extended multiply")
		}
		vop(w, 156+32*(uint32(op.Shape)-1)+highOff(op.Half)+2*uOff(op.Sign))
	case VIExtAddPairwise:
		if op.Shape != I16x8 && op.Shape != I32x4 {
			return invalidInstr("pairwise extended add only exists for i16x8 and i32x4")
		}
		vop(w, 124+2*(uint32(op.Shape)-1)+uOff(op.Sign))

	case VI16x8Q15MulrSat:
		vop(w, 130)
	case VI32x4DotI16x8:
		vop(w, 186)

	case VFCeil:
		if op.Shape == F32x4 {
			vop(w, 103)
		} else {
			vop(w, 116)
		}
	case VFFloor:
		if op.Shape == F32x4 {
			vop(w, 104)
		} else {
			vop(w, 117)
		}
	case VFTrunc:
		if op.Shape == F32x4 {
			vop(w, 105)
		} else {
			vop(w, 122)
		}
	case VFNearest:
		if op.Shape == F32x4 {
			vop(w, 106)
		} else {
			vop(w, 148)
		}
	case VFAbs:
		vop(w, 224+fOff(op.Shape, 12))
	case VFNeg:
		vop(w, 225+fOff(op.Shape, 12))
	case VFSqrt:
		vop(w, 227+fOff(op.Shape, 12))
	case VFAdd:
		vop(w, 228+fOff(op.Shape, 12))
	case VFSub:
		vop(w, 229+fOff(op.Shape, 12))
	case VFMul:
		vop(w, 230+fOff(op.Shape, 12))
	case VFDiv:
		vop(w, 231+fOff(op.Shape, 12))
	case VFMin:
		vop(w, 232+fOff(op.Shape, 12))
	case VFMax:
		vop(w, 233+fOff(op.Shape, 12))
	case VFPMin:
		vop(w, 234+fOff(op.Shape, 12))
	case VFPMax:
		vop(w, 235+fOff(op.Shape, 12))

	case VI32x4TruncSatF32x4:
		vop(w, 248+uOff(op.Sign))
	case VI32x4TruncSatF64x2Zero:
		vop(w, 252+uOff(op.Sign))
	case VF32x4ConvertI32x4:
		vop(w, 250+uOff(op.Sign))
	case VF64x2ConvertLowI32x4:
		vop(w, 254+uOff(op.Sign))
	case VF32x4DemoteF64x2Zero:
		vop(w, 94)
	case VF64x2PromoteLowF32x4:
		vop(w, 95)

	case V128Load8x8:
		vopMem(w, 1+uOff(op.Sign), op.Arg)
	case V128Load16x4:
		vopMem(w, 3+uOff(op.Sign), op.Arg)
	case V128Load32x2:
		vopMem(w, 5+uOff(op.Sign), op.Arg)
	case V128LoadSplat:
		vopMem(w, 7+uint32(op.Shape), op.Arg)
	case V128Load32Zero:
		vopMem(w, 92, op.Arg)
	case V128Load64Zero:
		vopMem(w, 93, op.Arg)
	case V128LoadLane:
		vopMem(w, 84+uint32(op.Shape), op.Arg)
		w.Byte(byte(op.Lane))
	case V128StoreLane:
		vopMem(w, 88+uint32(op.Shape), op.Arg)
		w.Byte(byte(op.Lane))

	default:
		return errors.Internal(errors.PhaseEncode, "unexpected instruction node")
	}
	return nil
}
