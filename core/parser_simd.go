package core

import (
	"fmt"

	"github.com/wippyai/wasm-ast/errors"
	"github.com/wippyai/wasm-ast/internal/binary"
)

// readVectorInstr decodes the 0xfd-prefixed vector instruction group. The
// subopcode is a LEB128 u32 rather than a single byte.
func readVectorInstr(r *binary.Reader) (Instr, error) {
	sub, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	// Relaxed SIMD occupies the subopcode range starting at 256.
	if sub >= 256 {
		return nil, errors.Unsupported(errors.PhaseParse, "Relaxed SIMD instructions are not supported")
	}

	switch sub {
	case 0: // v128.load
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Load{Type: ValV128, Arg: arg}, nil
	case 1, 2:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return V128Load8x8{Sign: signFor(sub == 1), Arg: arg}, nil
	case 3, 4:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return V128Load16x4{Sign: signFor(sub == 3), Arg: arg}, nil
	case 5, 6:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return V128Load32x2{Sign: signFor(sub == 5), Arg: arg}, nil
	case 7, 8, 9, 10: // v128.load{8,16,32,64}_splat
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		shapes := [4]VectorLoadShape{WW8, WW16, WW32, WW64}
		return V128LoadSplat{Shape: shapes[sub-7], Arg: arg}, nil
	case 11: // v128.store
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return Store{Type: ValV128, Arg: arg}, nil
	case 12: // v128.const
		bytes, err := r.ReadBytes(16)
		if err != nil {
			return nil, err
		}
		var val [16]byte
		copy(val[:], bytes)
		return V128Const{Val: val}, nil
	case 13: // i8x16.shuffle
		bytes, err := r.ReadBytes(16)
		if err != nil {
			return nil, err
		}
		var lanes [16]LaneIdx
		for i, b := range bytes {
			lanes[i] = LaneIdx(b)
		}
		return VI8x16Shuffle{Lanes: lanes}, nil
	case 14:
		return VI8x16Swizzle{}, nil
	case 15, 16, 17, 18, 19, 20: // splat
		shapes := [6]Shape{ShapeI8x16, ShapeI16x8, ShapeI32x4, ShapeI64x2, ShapeF32x4, ShapeF64x2}
		return VSplat{Shape: shapes[sub-15]}, nil

	case 21, 22: // i8x16.extract_lane_s / _u
		lane, err := readLaneIdx(r)
		if err != nil {
			return nil, err
		}
		return VI8x16ExtractLane{Sign: signFor(sub == 21), Lane: lane}, nil
	case 23:
		lane, err := readLaneIdx(r)
		if err != nil {
			return nil, err
		}
		return VReplaceLane{Shape: ShapeI8x16, Lane: lane}, nil
	case 24, 25:
		lane, err := readLaneIdx(r)
		if err != nil {
			return nil, err
		}
		return VI16x8ExtractLane{Sign: signFor(sub == 24), Lane: lane}, nil
	case 26:
		lane, err := readLaneIdx(r)
		if err != nil {
			return nil, err
		}
		return VReplaceLane{Shape: ShapeI16x8, Lane: lane}, nil
	case 27:
		lane, err := readLaneIdx(r)
		if err != nil {
			return nil, err
		}
		return VI32x4ExtractLane{Lane: lane}, nil
	case 28:
		lane, err := readLaneIdx(r)
		if err != nil {
			return nil, err
		}
		return VReplaceLane{Shape: ShapeI32x4, Lane: lane}, nil
	case 29:
		lane, err := readLaneIdx(r)
		if err != nil {
			return nil, err
		}
		return VI64x2ExtractLane{Lane: lane}, nil
	case 30:
		lane, err := readLaneIdx(r)
		if err != nil {
			return nil, err
		}
		return VReplaceLane{Shape: ShapeI64x2, Lane: lane}, nil
	case 31:
		lane, err := readLaneIdx(r)
		if err != nil {
			return nil, err
		}
		return VFExtractLane{Shape: F32x4, Lane: lane}, nil
	case 32:
		lane, err := readLaneIdx(r)
		if err != nil {
			return nil, err
		}
		return VReplaceLane{Shape: ShapeF32x4, Lane: lane}, nil
	case 33:
		lane, err := readLaneIdx(r)
		if err != nil {
			return nil, err
		}
		return VFExtractLane{Shape: F64x2, Lane: lane}, nil
	case 34:
		lane, err := readLaneIdx(r)
		if err != nil {
			return nil, err
		}
		return VReplaceLane{Shape: ShapeF64x2, Lane: lane}, nil

	case 35:
		return VIEq{Shape: I8x16}, nil
	case 36:
		return VINe{Shape: I8x16}, nil
	case 37:
		return VILt{Shape: I8x16, Sign: Signed}, nil
	case 38:
		return VILt{Shape: I8x16, Sign: Unsigned}, nil
	case 39:
		return VIGt{Shape: I8x16, Sign: Signed}, nil
	case 40:
		return VIGt{Shape: I8x16, Sign: Unsigned}, nil
	case 41:
		return VILe{Shape: I8x16, Sign: Signed}, nil
	case 42:
		return VILe{Shape: I8x16, Sign: Unsigned}, nil
	case 43:
		return VIGe{Shape: I8x16, Sign: Signed}, nil
	case 44:
		return VIGe{Shape: I8x16, Sign: Unsigned}, nil

	case 45:
		return VIEq{Shape: I16x8}, nil
	case 46:
		return VINe{Shape: I16x8}, nil
	case 47:
		return VILt{Shape: I16x8, Sign: Signed}, nil
	case 48:
		return VILt{Shape: I16x8, Sign: Unsigned}, nil
	case 49:
		return VIGt{Shape: I16x8, Sign: Signed}, nil
	case 50:
		return VIGt{Shape: I16x8, Sign: Unsigned}, nil
	case 51:
		return VILe{Shape: I16x8, Sign: Signed}, nil
	case 52:
		return VILe{Shape: I16x8, Sign: Unsigned}, nil
	case 53:
		return VIGe{Shape: I16x8, Sign: Signed}, nil
	case 54:
		return VIGe{Shape: I16x8, Sign: Unsigned}, nil

	case 55:
		return VIEq{Shape: I32x4}, nil
	case 56:
		return VINe{Shape: I32x4}, nil
	case 57:
		return VILt{Shape: I32x4, Sign: Signed}, nil
	case 58:
		return VILt{Shape: I32x4, Sign: Unsigned}, nil
	case 59:
		return VIGt{Shape: I32x4, Sign: Signed}, nil
	case 60:
		return VIGt{Shape: I32x4, Sign: Unsigned}, nil
	case 61:
		return VILe{Shape: I32x4, Sign: Signed}, nil
	case 62:
		return VILe{Shape: I32x4, Sign: Unsigned}, nil
	case 63:
		return VIGe{Shape: I32x4, Sign: Signed}, nil
	case 64:
		return VIGe{Shape: I32x4, Sign: Unsigned}, nil

	case 65:
		return VFEq{Shape: F32x4}, nil
	case 66:
		return VFNe{Shape: F32x4}, nil
	case 67:
		return VFLt{Shape: F32x4}, nil
	case 68:
		return VFGt{Shape: F32x4}, nil
	case 69:
		return VFLe{Shape: F32x4}, nil
	case 70:
		return VFGe{Shape: F32x4}, nil
	case 71:
		return VFEq{Shape: F64x2}, nil
	case 72:
		return VFNe{Shape: F64x2}, nil
	case 73:
		return VFLt{Shape: F64x2}, nil
	case 74:
		return VFGt{Shape: F64x2}, nil
	case 75:
		return VFLe{Shape: F64x2}, nil
	case 76:
		return VFGe{Shape: F64x2}, nil

	case 77:
		return V128Not{}, nil
	case 78:
		return V128And{}, nil
	case 79:
		return V128AndNot{}, nil
	case 80:
		return V128Or{}, nil
	case 81:
		return V128XOr{}, nil
	case 82:
		return V128BitSelect{}, nil
	case 83:
		return V128AnyTrue{}, nil

	case 84, 85, 86, 87: // v128.load{8,16,32,64}_lane
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		lane, err := readLaneIdx(r)
		if err != nil {
			return nil, err
		}
		shapes := [4]VectorLoadShape{WW8, WW16, WW32, WW64}
		return V128LoadLane{Shape: shapes[sub-84], Arg: arg, Lane: lane}, nil
	case 88, 89, 90, 91: // v128.store{8,16,32,64}_lane
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		lane, err := readLaneIdx(r)
		if err != nil {
			return nil, err
		}
		shapes := [4]VectorLoadShape{WW8, WW16, WW32, WW64}
		return V128StoreLane{Shape: shapes[sub-88], Arg: arg, Lane: lane}, nil
	case 92:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return V128Load32Zero{Arg: arg}, nil
	case 93:
		arg, err := readMemArg(r)
		if err != nil {
			return nil, err
		}
		return V128Load64Zero{Arg: arg}, nil

	case 94:
		return VF32x4DemoteF64x2Zero{}, nil
	case 95:
		return VF64x2PromoteLowF32x4{}, nil

	case 96:
		return VIAbs{Shape: I8x16}, nil
	case 97:
		return VINeg{Shape: I8x16}, nil
	case 98:
		return VI8x16PopCnt{}, nil
	case 99:
		return VIAllTrue{Shape: I8x16}, nil
	case 100:
		return VIBitMask{Shape: I8x16}, nil
	case 101:
		return VI8x16NarrowI16x8{Sign: Signed}, nil
	case 102:
		return VI8x16NarrowI16x8{Sign: Unsigned}, nil

	case 103:
		return VFCeil{Shape: F32x4}, nil
	case 104:
		return VFFloor{Shape: F32x4}, nil
	case 105:
		return VFTrunc{Shape: F32x4}, nil
	case 106:
		return VFNearest{Shape: F32x4}, nil

	case 107:
		return VIShl{Shape: I8x16}, nil
	case 108:
		return VIShr{Shape: I8x16, Sign: Signed}, nil
	case 109:
		return VIShr{Shape: I8x16, Sign: Unsigned}, nil
	case 110:
		return VIAdd{Shape: I8x16}, nil
	case 111:
		return VIAddSat{Shape: I8x16, Sign: Signed}, nil
	case 112:
		return VIAddSat{Shape: I8x16, Sign: Unsigned}, nil
	case 113:
		return VISub{Shape: I8x16}, nil
	case 114:
		return VISubSat{Shape: I8x16, Sign: Signed}, nil
	case 115:
		return VISubSat{Shape: I8x16, Sign: Unsigned}, nil

	case 116:
		return VFCeil{Shape: F64x2}, nil
	case 117:
		return VFFloor{Shape: F64x2}, nil

	case 118:
		return VIMin{Shape: I8x16, Sign: Signed}, nil
	case 119:
		return VIMin{Shape: I8x16, Sign: Unsigned}, nil
	case 120:
		return VIMax{Shape: I8x16, Sign: Signed}, nil
	case 121:
		return VIMax{Shape: I8x16, Sign: Unsigned}, nil

	case 122:
		return VFTrunc{Shape: F64x2}, nil
	case 123:
		return VIAvgr{Shape: I8x16}, nil

	case 124:
		return VIExtAddPairwise{Shape: I16x8, Sign: Signed}, nil
	case 125:
		return VIExtAddPairwise{Shape: I16x8, Sign: Unsigned}, nil
	case 126:
		return VIExtAddPairwise{Shape: I32x4, Sign: Signed}, nil
	case 127:
		return VIExtAddPairwise{Shape: I32x4, Sign: Unsigned}, nil

	case 128:
		return VIAbs{Shape: I16x8}, nil
	case 129:
		return VINeg{Shape: I16x8}, nil
	case 130:
		return VI16x8Q15MulrSat{}, nil
	case 131:
		return VIAllTrue{Shape: I16x8}, nil
	case 132:
		return VIBitMask{Shape: I16x8}, nil
	case 133:
		return VI16x8NarrowI32x4{Sign: Signed}, nil
	case 134:
		return VI16x8NarrowI32x4{Sign: Unsigned}, nil
	case 135:
		return VI16x8ExtendI8x16{Half: LowHalf, Sign: Signed}, nil
	case 136:
		return VI16x8ExtendI8x16{Half: HighHalf, Sign: Signed}, nil
	case 137:
		return VI16x8ExtendI8x16{Half: LowHalf, Sign: Unsigned}, nil
	case 138:
		return VI16x8ExtendI8x16{Half: HighHalf, Sign: Unsigned}, nil
	case 139:
		return VIShl{Shape: I16x8}, nil
	case 140:
		return VIShr{Shape: I16x8, Sign: Signed}, nil
	case 141:
		return VIShr{Shape: I16x8, Sign: Unsigned}, nil
	case 142:
		return VIAdd{Shape: I16x8}, nil
	case 143:
		return VIAddSat{Shape: I16x8, Sign: Signed}, nil
	case 144:
		return VIAddSat{Shape: I16x8, Sign: Unsigned}, nil
	case 145:
		return VISub{Shape: I16x8}, nil
	case 146:
		return VISubSat{Shape: I16x8, Sign: Signed}, nil
	case 147:
		return VISubSat{Shape: I16x8, Sign: Unsigned}, nil
	case 148:
		return VFNearest{Shape: F64x2}, nil
	case 149:
		return VIMul{Shape: I16x8}, nil
	case 150:
		return VIMin{Shape: I16x8, Sign: Signed}, nil
	case 151:
		return VIMin{Shape: I16x8, Sign: Unsigned}, nil
	case 152:
		return VIMax{Shape: I16x8, Sign: Signed}, nil
	case 153:
		return VIMax{Shape: I16x8, Sign: Unsigned}, nil
	case 155:
		return VIAvgr{Shape: I16x8}, nil
	case 156:
		return VIExtMul{Shape: I16x8, Half: LowHalf, Sign: Signed}, nil
	case 157:
		return VIExtMul{Shape: I16x8, Half: HighHalf, Sign: Signed}, nil
	case 158:
		return VIExtMul{Shape: I16x8, Half: LowHalf, Sign: Unsigned}, nil
	case 159:
		return VIExtMul{Shape: I16x8, Half: HighHalf, Sign: Unsigned}, nil

	case 160:
		return VIAbs{Shape: I32x4}, nil
	case 161:
		return VINeg{Shape: I32x4}, nil
	case 163:
		return VIAllTrue{Shape: I32x4}, nil
	case 164:
		return VIBitMask{Shape: I32x4}, nil
	case 167:
		return VI32x4ExtendI16x8{Half: LowHalf, Sign: Signed}, nil
	case 168:
		return VI32x4ExtendI16x8{Half: HighHalf, Sign: Signed}, nil
	case 169:
		return VI32x4ExtendI16x8{Half: LowHalf, Sign: Unsigned}, nil
	case 170:
		return VI32x4ExtendI16x8{Half: HighHalf, Sign: Unsigned}, nil
	case 171:
		return VIShl{Shape: I32x4}, nil
	case 172:
		return VIShr{Shape: I32x4, Sign: Signed}, nil
	case 173:
		return VIShr{Shape: I32x4, Sign: Unsigned}, nil
	case 174:
		return VIAdd{Shape: I32x4}, nil
	case 177:
		return VISub{Shape: I32x4}, nil
	case 181:
		return VIMul{Shape: I32x4}, nil
	case 182:
		return VIMin{Shape: I32x4, Sign: Signed}, nil
	case 183:
		return VIMin{Shape: I32x4, Sign: Unsigned}, nil
	case 184:
		return VIMax{Shape: I32x4, Sign: Signed}, nil
	case 185:
		return VIMax{Shape: I32x4, Sign: Unsigned}, nil
	case 186:
		return VI32x4DotI16x8{}, nil
	case 188:
		return VIExtMul{Shape: I32x4, Half: LowHalf, Sign: Signed}, nil
	case 189:
		return VIExtMul{Shape: I32x4, Half: HighHalf, Sign: Signed}, nil
	case 190:
		return VIExtMul{Shape: I32x4, Half: LowHalf, Sign: Unsigned}, nil
	case 191:
		return VIExtMul{Shape: I32x4, Half: HighHalf, Sign: Unsigned}, nil

	case 192:
		return VIAbs{Shape: I64x2}, nil
	case 193:
		return VINeg{Shape: I64x2}, nil
	case 195:
		return VIAllTrue{Shape: I64x2}, nil
	case 196:
		return VIBitMask{Shape: I64x2}, nil
	case 199:
		return VI64x2ExtendI32x4{Half: LowHalf, Sign: Signed}, nil
	case 200:
		return VI64x2ExtendI32x4{Half: HighHalf, Sign: Signed}, nil
	case 201:
		return VI64x2ExtendI32x4{Half: LowHalf, Sign: Unsigned}, nil
	case 202:
		return VI64x2ExtendI32x4{Half: HighHalf, Sign: Unsigned}, nil
	case 203:
		return VIShl{Shape: I64x2}, nil
	case 204:
		return VIShr{Shape: I64x2, Sign: Signed}, nil
	case 205:
		return VIShr{Shape: I64x2, Sign: Unsigned}, nil
	case 206:
		return VIAdd{Shape: I64x2}, nil
	case 209:
		return VISub{Shape: I64x2}, nil
	case 213:
		return VIMul{Shape: I64x2}, nil
	case 214:
		return VIEq{Shape: I64x2}, nil
	case 215:
		return VINe{Shape: I64x2}, nil
	case 216:
		return VI64x2Lt{}, nil
	case 217:
		return VI64x2Gt{}, nil
	case 218:
		return VI64x2Le{}, nil
	case 219:
		return VI64x2Ge{}, nil
	case 220:
		return VIExtMul{Shape: I64x2, Half: LowHalf, Sign: Signed}, nil
	case 221:
		return VIExtMul{Shape: I64x2, Half: HighHalf, Sign: Signed}, nil
	case 222:
		return VIExtMul{Shape: I64x2, Half: LowHalf, Sign: Unsigned}, nil
	case 223:
		return VIExtMul{Shape: I64x2, Half: HighHalf, Sign: Unsigned}, nil

	case 224:
		return VFAbs{Shape: F32x4}, nil
	case 225:
		return VFNeg{Shape: F32x4}, nil
	case 227:
		return VFSqrt{Shape: F32x4}, nil
	case 228:
		return VFAdd{Shape: F32x4}, nil
	case 229:
		return VFSub{Shape: F32x4}, nil
	case 230:
		return VFMul{Shape: F32x4}, nil
	case 231:
		return VFDiv{Shape: F32x4}, nil
	case 232:
		return VFMin{Shape: F32x4}, nil
	case 233:
		return VFMax{Shape: F32x4}, nil
	case 234:
		return VFPMin{Shape: F32x4}, nil
	case 235:
		return VFPMax{Shape: F32x4}, nil

	case 236:
		return VFAbs{Shape: F64x2}, nil
	case 237:
		return VFNeg{Shape: F64x2}, nil
	case 239:
		return VFSqrt{Shape: F64x2}, nil
	case 240:
		return VFAdd{Shape: F64x2}, nil
	case 241:
		return VFSub{Shape: F64x2}, nil
	case 242:
		return VFMul{Shape: F64x2}, nil
	case 243:
		return VFDiv{Shape: F64x2}, nil
	case 244:
		return VFMin{Shape: F64x2}, nil
	case 245:
		return VFMax{Shape: F64x2}, nil
	case 246:
		return VFPMin{Shape: F64x2}, nil
	case 247:
		return VFPMax{Shape: F64x2}, nil

	case 248:
		return VI32x4TruncSatF32x4{Sign: Signed}, nil
	case 249:
		return VI32x4TruncSatF32x4{Sign: Unsigned}, nil
	case 250:
		return VF32x4ConvertI32x4{Sign: Signed}, nil
	case 251:
		return VF32x4ConvertI32x4{Sign: Unsigned}, nil
	case 252:
		return VI32x4TruncSatF64x2Zero{Sign: Signed}, nil
	case 253:
		return VI32x4TruncSatF64x2Zero{Sign: Unsigned}, nil
	case 254:
		return VF64x2ConvertLowI32x4{Sign: Signed}, nil
	case 255:
		return VF64x2ConvertLowI32x4{Sign: Unsigned}, nil
	}
	return nil, errors.Unsupported(errors.PhaseParse, fmt.Sprintf("Unsupported operator: 0xfd %d", sub))
}
