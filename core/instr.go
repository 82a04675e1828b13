package core

// Instr is one WebAssembly instruction. The set is factored the way the
// binary encoding factors: width, signedness and vector shape are operands
// of a shared variant rather than distinct variants (IAdd{I32} covers
// i32.add, IAdd{I64} covers i64.add).
type Instr interface {
	isInstr()
}

// Expr is a sequence of instructions terminated by `end` in the binary
// format, used for function bodies and initializer expressions.
type Expr struct {
	Instrs []Instr
}

// Numeric instructions

type I32Const struct{ Val int32 }
type I64Const struct{ Val int64 }
type F32Const struct{ Val float32 }
type F64Const struct{ Val float64 }

type IEqz struct{ Width IntWidth }

type IEq struct{ Width IntWidth }
type INe struct{ Width IntWidth }
type ILt struct {
	Width IntWidth
	Sign  Signedness
}
type IGt struct {
	Width IntWidth
	Sign  Signedness
}
type ILe struct {
	Width IntWidth
	Sign  Signedness
}
type IGe struct {
	Width IntWidth
	Sign  Signedness
}

type FEq struct{ Width FloatWidth }
type FNe struct{ Width FloatWidth }
type FLt struct{ Width FloatWidth }
type FGt struct{ Width FloatWidth }
type FLe struct{ Width FloatWidth }
type FGe struct{ Width FloatWidth }

type IClz struct{ Width IntWidth }
type ICtz struct{ Width IntWidth }
type IPopCnt struct{ Width IntWidth }

type IAdd struct{ Width IntWidth }
type ISub struct{ Width IntWidth }
type IMul struct{ Width IntWidth }
type IDiv struct {
	Width IntWidth
	Sign  Signedness
}
type IRem struct {
	Width IntWidth
	Sign  Signedness
}
type IAnd struct{ Width IntWidth }
type IOr struct{ Width IntWidth }
type IXor struct{ Width IntWidth }
type IShl struct{ Width IntWidth }
type IShr struct {
	Width IntWidth
	Sign  Signedness
}
type IRotL struct{ Width IntWidth }
type IRotR struct{ Width IntWidth }

type FAbs struct{ Width FloatWidth }
type FNeg struct{ Width FloatWidth }
type FCeil struct{ Width FloatWidth }
type FFloor struct{ Width FloatWidth }
type FTrunc struct{ Width FloatWidth }
type FNearest struct{ Width FloatWidth }

type FSqrt struct{ Width FloatWidth }
type FAdd struct{ Width FloatWidth }
type FSub struct{ Width FloatWidth }
type FMul struct{ Width FloatWidth }
type FDiv struct{ Width FloatWidth }
type FMin struct{ Width FloatWidth }
type FMax struct{ Width FloatWidth }
type FCopySign struct{ Width FloatWidth }

type I32WrapI64 struct{}

type ITruncF struct {
	IntWidth   IntWidth
	FloatWidth FloatWidth
	Sign       Signedness
}

type I64ExtendI32 struct{ Sign Signedness }
type I64Extend32S struct{}
type IExtend8S struct{ Width IntWidth }
type IExtend16S struct{ Width IntWidth }

type FConvertI struct {
	FloatWidth FloatWidth
	IntWidth   IntWidth
	Sign       Signedness
}

type F32DemoteF64 struct{}
type F64PromoteF32 struct{}

type IReinterpretF struct{ Width IntWidth }
type FReinterpretI struct{ Width FloatWidth }

type ITruncSatF struct {
	IntWidth   IntWidth
	FloatWidth FloatWidth
	Sign       Signedness
}

// Vector instructions

type V128Const struct{ Val [16]byte }

type V128Not struct{}
type V128And struct{}
type V128AndNot struct{}
type V128Or struct{}
type V128XOr struct{}
type V128BitSelect struct{}
type V128AnyTrue struct{}

type VI8x16Shuffle struct{ Lanes [16]LaneIdx }
type VI8x16Swizzle struct{}

type VSplat struct{ Shape Shape }

type VI8x16ExtractLane struct {
	Sign Signedness
	Lane LaneIdx
}
type VI16x8ExtractLane struct {
	Sign Signedness
	Lane LaneIdx
}
type VI32x4ExtractLane struct{ Lane LaneIdx }
type VI64x2ExtractLane struct{ Lane LaneIdx }
type VFExtractLane struct {
	Shape FShape
	Lane  LaneIdx
}
type VReplaceLane struct {
	Shape Shape
	Lane  LaneIdx
}

type VIEq struct{ Shape IShape }
type VINe struct{ Shape IShape }
type VILt struct {
	Shape IShape
	Sign  Signedness
}
type VIGt struct {
	Shape IShape
	Sign  Signedness
}
type VILe struct {
	Shape IShape
	Sign  Signedness
}
type VIGe struct {
	Shape IShape
	Sign  Signedness
}
type VI64x2Lt struct{}
type VI64x2Gt struct{}
type VI64x2Le struct{}
type VI64x2Ge struct{}

type VFEq struct{ Shape FShape }
type VFNe struct{ Shape FShape }
type VFLt struct{ Shape FShape }
type VFGt struct{ Shape FShape }
type VFLe struct{ Shape FShape }
type VFGe struct{ Shape FShape }

type VIAbs struct{ Shape IShape }
type VINeg struct{ Shape IShape }

type VI8x16PopCnt struct{}
type VI16x8Q15MulrSat struct{}
type VI32x4DotI16x8 struct{}

type VFAbs struct{ Shape FShape }
type VFNeg struct{ Shape FShape }
type VFSqrt struct{ Shape FShape }
type VFCeil struct{ Shape FShape }
type VFFloor struct{ Shape FShape }
type VFTrunc struct{ Shape FShape }
type VFNearest struct{ Shape FShape }

type VIAllTrue struct{ Shape IShape }
type VIBitMask struct{ Shape IShape }

type VI8x16NarrowI16x8 struct{ Sign Signedness }
type VI16x8NarrowI32x4 struct{ Sign Signedness }

type VI16x8ExtendI8x16 struct {
	Half Half
	Sign Signedness
}
type VI32x4ExtendI16x8 struct {
	Half Half
	Sign Signedness
}
type VI64x2ExtendI32x4 struct {
	Half Half
	Sign Signedness
}

type VIShl struct{ Shape IShape }
type VIShr struct {
	Shape IShape
	Sign  Signedness
}

type VIAdd struct{ Shape IShape }
type VISub struct{ Shape IShape }

type VIMin struct {
	Shape IShape
	Sign  Signedness
}
type VIMax struct {
	Shape IShape
	Sign  Signedness
}
type VIAddSat struct {
	Shape IShape
	Sign  Signedness
}
type VISubSat struct {
	Shape IShape
	Sign  Signedness
}

type VIMul struct{ Shape IShape }
type VIAvgr struct{ Shape IShape }
type VIExtMul struct {
	Shape IShape
	Half  Half
	Sign  Signedness
}
type VIExtAddPairwise struct {
	Shape IShape
	Sign  Signedness
}

type VFAdd struct{ Shape FShape }
type VFSub struct{ Shape FShape }
type VFMul struct{ Shape FShape }
type VFDiv struct{ Shape FShape }
type VFMin struct{ Shape FShape }
type VFMax struct{ Shape FShape }
type VFPMin struct{ Shape FShape }
type VFPMax struct{ Shape FShape }

type VI32x4TruncSatF32x4 struct{ Sign Signedness }
type VI32x4TruncSatF64x2Zero struct{ Sign Signedness }
type VF32x4ConvertI32x4 struct{ Sign Signedness }
type VF32x4DemoteF64x2Zero struct{}
type VF64x2ConvertLowI32x4 struct{ Sign Signedness }
type VF64x2PromoteLowF32x4 struct{}

// Reference instructions

type RefNull struct{ Type RefType }
type RefIsNull struct{}
type RefFunc struct{ Func FuncIdx }

// Parametric instructions

type Drop struct{}

// Select with a nil Types slice is the untyped select; a non-nil slice is
// the typed form.
type Select struct{ Types []ValType }

// Variable instructions

type LocalGet struct{ Local LocalIdx }
type LocalSet struct{ Local LocalIdx }
type LocalTee struct{ Local LocalIdx }
type GlobalGet struct{ Global GlobalIdx }
type GlobalSet struct{ Global GlobalIdx }

// Table instructions

type TableGet struct{ Table TableIdx }
type TableSet struct{ Table TableIdx }
type TableSize struct{ Table TableIdx }
type TableGrow struct{ Table TableIdx }
type TableFill struct{ Table TableIdx }
type TableCopy struct {
	Source      TableIdx
	Destination TableIdx
}
type TableInit struct {
	Table TableIdx
	Elem  ElemIdx
}
type ElemDrop struct{ Elem ElemIdx }

// Memory instructions

type Load struct {
	Type ValType
	Arg  MemArg
}
type Store struct {
	Type ValType
	Arg  MemArg
}
type Load8 struct {
	Type ValType
	Sign Signedness
	Arg  MemArg
}
type Load16 struct {
	Type ValType
	Sign Signedness
	Arg  MemArg
}
type Load32 struct {
	Sign Signedness
	Arg  MemArg
}
type Store8 struct {
	Type ValType
	Arg  MemArg
}
type Store16 struct {
	Type ValType
	Arg  MemArg
}
type Store32 struct{ Arg MemArg }

type V128Load8x8 struct {
	Sign Signedness
	Arg  MemArg
}
type V128Load16x4 struct {
	Sign Signedness
	Arg  MemArg
}
type V128Load32x2 struct {
	Sign Signedness
	Arg  MemArg
}
type V128Load32Zero struct{ Arg MemArg }
type V128Load64Zero struct{ Arg MemArg }
type V128LoadSplat struct {
	Shape VectorLoadShape
	Arg   MemArg
}
type V128LoadLane struct {
	Shape VectorLoadShape
	Arg   MemArg
	Lane  LaneIdx
}
type V128StoreLane struct {
	Shape VectorLoadShape
	Arg   MemArg
	Lane  LaneIdx
}

type MemorySize struct{}
type MemoryGrow struct{}
type MemoryFill struct{}
type MemoryCopy struct{}
type MemoryInit struct{ Data DataIdx }
type DataDrop struct{ Data DataIdx }

// Control instructions

type Nop struct{}
type Unreachable struct{}
type Block struct {
	Type BlockType
	Body []Instr
}
type Loop struct {
	Type BlockType
	Body []Instr
}
type If struct {
	Type BlockType
	Then []Instr
	Else []Instr
}
type Br struct{ Label LabelIdx }
type BrIf struct{ Label LabelIdx }
type BrTable struct {
	Labels  []LabelIdx
	Default LabelIdx
}
type Return struct{}
type Call struct{ Func FuncIdx }
type CallIndirect struct {
	Table TableIdx
	Type  TypeIdx
}

func (I32Const) isInstr()   {}
func (I64Const) isInstr()   {}
func (F32Const) isInstr()   {}
func (F64Const) isInstr()   {}
func (IEqz) isInstr()       {}
func (IEq) isInstr()        {}
func (INe) isInstr()        {}
func (ILt) isInstr()        {}
func (IGt) isInstr()        {}
func (ILe) isInstr()        {}
func (IGe) isInstr()        {}
func (FEq) isInstr()        {}
func (FNe) isInstr()        {}
func (FLt) isInstr()        {}
func (FGt) isInstr()        {}
func (FLe) isInstr()        {}
func (FGe) isInstr()        {}
func (IClz) isInstr()       {}
func (ICtz) isInstr()       {}
func (IPopCnt) isInstr()    {}
func (IAdd) isInstr()       {}
func (ISub) isInstr()       {}
func (IMul) isInstr()       {}
func (IDiv) isInstr()       {}
func (IRem) isInstr()       {}
func (IAnd) isInstr()       {}
func (IOr) isInstr()        {}
func (IXor) isInstr()       {}
func (IShl) isInstr()       {}
func (IShr) isInstr()       {}
func (IRotL) isInstr()      {}
func (IRotR) isInstr()      {}
func (FAbs) isInstr()       {}
func (FNeg) isInstr()       {}
func (FCeil) isInstr()      {}
func (FFloor) isInstr()     {}
func (FTrunc) isInstr()     {}
func (FNearest) isInstr()   {}
func (FSqrt) isInstr()      {}
func (FAdd) isInstr()       {}
func (FSub) isInstr()       {}
func (FMul) isInstr()       {}
func (FDiv) isInstr()       {}
func (FMin) isInstr()       {}
func (FMax) isInstr()       {}
func (FCopySign) isInstr()  {}
func (I32WrapI64) isInstr() {}
func (ITruncF) isInstr()    {}

func (I64ExtendI32) isInstr()  {}
func (I64Extend32S) isInstr()  {}
func (IExtend8S) isInstr()     {}
func (IExtend16S) isInstr()    {}
func (FConvertI) isInstr()     {}
func (F32DemoteF64) isInstr()  {}
func (F64PromoteF32) isInstr() {}
func (IReinterpretF) isInstr() {}
func (FReinterpretI) isInstr() {}
func (ITruncSatF) isInstr()    {}

func (V128Const) isInstr()     {}
func (V128Not) isInstr()       {}
func (V128And) isInstr()       {}
func (V128AndNot) isInstr()    {}
func (V128Or) isInstr()        {}
func (V128XOr) isInstr()       {}
func (V128BitSelect) isInstr() {}
func (V128AnyTrue) isInstr()   {}

func (VI8x16Shuffle) isInstr()     {}
func (VI8x16Swizzle) isInstr()     {}
func (VSplat) isInstr()            {}
func (VI8x16ExtractLane) isInstr() {}
func (VI16x8ExtractLane) isInstr() {}
func (VI32x4ExtractLane) isInstr() {}
func (VI64x2ExtractLane) isInstr() {}
func (VFExtractLane) isInstr()     {}
func (VReplaceLane) isInstr()      {}

func (VIEq) isInstr()     {}
func (VINe) isInstr()     {}
func (VILt) isInstr()     {}
func (VIGt) isInstr()     {}
func (VILe) isInstr()     {}
func (VIGe) isInstr()     {}
func (VI64x2Lt) isInstr() {}
func (VI64x2Gt) isInstr() {}
func (VI64x2Le) isInstr() {}
func (VI64x2Ge) isInstr() {}

func (VFEq) isInstr() {}
func (VFNe) isInstr() {}
func (VFLt) isInstr() {}
func (VFGt) isInstr() {}
func (VFLe) isInstr() {}
func (VFGe) isInstr() {}

func (VIAbs) isInstr()            {}
func (VINeg) isInstr()            {}
func (VI8x16PopCnt) isInstr()     {}
func (VI16x8Q15MulrSat) isInstr() {}
func (VI32x4DotI16x8) isInstr()   {}

func (VFAbs) isInstr()     {}
func (VFNeg) isInstr()     {}
func (VFSqrt) isInstr()    {}
func (VFCeil) isInstr()    {}
func (VFFloor) isInstr()   {}
func (VFTrunc) isInstr()   {}
func (VFNearest) isInstr() {}

func (VIAllTrue) isInstr()         {}
func (VIBitMask) isInstr()         {}
func (VI8x16NarrowI16x8) isInstr() {}
func (VI16x8NarrowI32x4) isInstr() {}
func (VI16x8ExtendI8x16) isInstr() {}
func (VI32x4ExtendI16x8) isInstr() {}
func (VI64x2ExtendI32x4) isInstr() {}

func (VIShl) isInstr()            {}
func (VIShr) isInstr()            {}
func (VIAdd) isInstr()            {}
func (VISub) isInstr()            {}
func (VIMin) isInstr()            {}
func (VIMax) isInstr()            {}
func (VIAddSat) isInstr()         {}
func (VISubSat) isInstr()         {}
func (VIMul) isInstr()            {}
func (VIAvgr) isInstr()           {}
func (VIExtMul) isInstr()         {}
func (VIExtAddPairwise) isInstr() {}

func (VFAdd) isInstr()  {}
func (VFSub) isInstr()  {}
func (VFMul) isInstr()  {}
func (VFDiv) isInstr()  {}
func (VFMin) isInstr()  {}
func (VFMax) isInstr()  {}
func (VFPMin) isInstr() {}
func (VFPMax) isInstr() {}

func (VI32x4TruncSatF32x4) isInstr()     {}
func (VI32x4TruncSatF64x2Zero) isInstr() {}
func (VF32x4ConvertI32x4) isInstr()      {}
func (VF32x4DemoteF64x2Zero) isInstr()   {}
func (VF64x2ConvertLowI32x4) isInstr()   {}
func (VF64x2PromoteLowF32x4) isInstr()   {}

func (RefNull) isInstr()   {}
func (RefIsNull) isInstr() {}
func (RefFunc) isInstr()   {}

func (Drop) isInstr()   {}
func (Select) isInstr() {}

func (LocalGet) isInstr()  {}
func (LocalSet) isInstr()  {}
func (LocalTee) isInstr()  {}
func (GlobalGet) isInstr() {}
func (GlobalSet) isInstr() {}

func (TableGet) isInstr()  {}
func (TableSet) isInstr()  {}
func (TableSize) isInstr() {}
func (TableGrow) isInstr() {}
func (TableFill) isInstr() {}
func (TableCopy) isInstr() {}
func (TableInit) isInstr() {}
func (ElemDrop) isInstr()  {}

func (Load) isInstr()    {}
func (Store) isInstr()   {}
func (Load8) isInstr()   {}
func (Load16) isInstr()  {}
func (Load32) isInstr()  {}
func (Store8) isInstr()  {}
func (Store16) isInstr() {}
func (Store32) isInstr() {}

func (V128Load8x8) isInstr()    {}
func (V128Load16x4) isInstr()   {}
func (V128Load32x2) isInstr()   {}
func (V128Load32Zero) isInstr() {}
func (V128Load64Zero) isInstr() {}
func (V128LoadSplat) isInstr()  {}
func (V128LoadLane) isInstr()   {}
func (V128StoreLane) isInstr()  {}

func (MemorySize) isInstr() {}
func (MemoryGrow) isInstr() {}
func (MemoryFill) isInstr() {}
func (MemoryCopy) isInstr() {}
func (MemoryInit) isInstr() {}
func (DataDrop) isInstr()   {}

func (Nop) isInstr()          {}
func (Unreachable) isInstr()  {}
func (Block) isInstr()        {}
func (Loop) isInstr()         {}
func (If) isInstr()           {}
func (Br) isInstr()           {}
func (BrIf) isInstr()         {}
func (BrTable) isInstr()      {}
func (Return) isInstr()       {}
func (Call) isInstr()         {}
func (CallIndirect) isInstr() {}
