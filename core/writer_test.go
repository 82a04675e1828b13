package core

import (
	"bytes"
	"reflect"
	"testing"

	wasmast "github.com/wippyai/wasm-ast"
)

func TestEncodeRoundTripsToIdenticalBytes(t *testing.T) {
	input := addModule()
	module, err := Parse(input, wasmast.Full)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	output, err := Encode(module)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !bytes.Equal(input, output) {
		t.Errorf("round trip changed bytes:\nin:  %x\nout: %x", input, output)
	}
}

func TestEncodeGroupsConsecutiveSections(t *testing.T) {
	module := EmptyModule()
	module.AddType(&FuncType{Results: []ValType{ValI32}})
	module.AddType(&FuncType{})

	data, err := Encode(module)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	reparsed, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	// Both types must land in one binary type section.
	groups := reparsed.IntoGrouped()
	typeGroups := 0
	for _, g := range groups {
		if g.Type == SecType {
			typeGroups++
		}
	}
	if typeGroups != 1 {
		t.Errorf("expected a single type section, got %d", typeGroups)
	}
	if len(reparsed.Types()) != 2 {
		t.Errorf("expected 2 types, got %d", len(reparsed.Types()))
	}
}

func TestIfWithoutElseOmitsElseOpcode(t *testing.T) {
	module := EmptyModule()
	module.AddFunction(&FuncType{}, nil, &Expr{Instrs: []Instr{
		I32Const{Val: 1},
		If{Type: BlockTypeNone(), Then: []Instr{Nop{}}},
	}})

	data, err := Encode(module)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	reparsed, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	body := reparsed.Codes()[0].Body.Instrs
	ifInstr, ok := body[1].(If)
	if !ok {
		t.Fatalf("expected if, got %T", body[1])
	}
	if len(ifInstr.Else) != 0 {
		t.Errorf("expected empty else arm, got %#v", ifInstr.Else)
	}

	// The body must not contain the else opcode: const, if, blocktype,
	// nop, end, end.
	wantBody := []byte{0x00, 0x41, 0x01, 0x04, 0x40, 0x01, 0x0b, 0x0b}
	if !bytes.Contains(data, wantBody) {
		t.Errorf("encoded module %x does not contain expected body %x", data, wantBody)
	}
}

func TestIfWithElseRoundTrips(t *testing.T) {
	module := EmptyModule()
	want := []Instr{
		I32Const{Val: 0},
		If{Type: BlockTypeValue(ValI32), Then: []Instr{I32Const{Val: 1}}, Else: []Instr{I32Const{Val: 2}}},
		Drop{},
	}
	module.AddFunction(&FuncType{}, nil, &Expr{Instrs: want})

	data, err := Encode(module)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	reparsed, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if got := reparsed.Codes()[0].Body.Instrs; !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected body %#v", got)
	}
}

func TestEncodeFailsWhenBodiesDropped(t *testing.T) {
	module, err := Parse(addModule(), wasmast.MetadataOnly)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if _, err := Encode(module); err == nil {
		t.Fatal("expected encode to fail for dropped bodies")
	}
}

func TestEncodeRejectsInvalidFactoredCombination(t *testing.T) {
	module := EmptyModule()
	module.AddFunction(&FuncType{}, nil, &Expr{Instrs: []Instr{
		Load8{Type: ValF32, Sign: Signed, Arg: MemArg{}},
	}})
	if _, err := Encode(module); err == nil {
		t.Fatal("expected encode to reject f32 narrow load")
	}
}

func TestInstrRoundTrip(t *testing.T) {
	instrs := []Instr{
		Unreachable{},
		Nop{},
		Block{Type: BlockTypeIndex(0), Body: []Instr{Nop{}}},
		Loop{Type: BlockTypeNone(), Body: []Instr{Br{Label: 0}}},
		BrTable{Labels: []LabelIdx{0, 1}, Default: 2},
		Call{Func: 3},
		CallIndirect{Table: 1, Type: 2},
		Drop{},
		Select{},
		Select{Types: []ValType{ValI64}},
		LocalGet{Local: 5},
		LocalTee{Local: 6},
		GlobalSet{Global: 7},
		TableGet{Table: 1},
		TableCopy{Source: 2, Destination: 3},
		TableInit{Table: 1, Elem: 4},
		Load{Type: ValF64, Arg: MemArg{Align: 3, Offset: 16}},
		Load8{Type: ValI64, Sign: Unsigned, Arg: MemArg{}},
		Load32{Sign: Signed, Arg: MemArg{Align: 2}},
		Store16{Type: ValI32, Arg: MemArg{Align: 1}},
		MemorySize{},
		MemoryGrow{},
		MemoryInit{Data: 1},
		MemoryCopy{},
		MemoryFill{},
		I32Const{Val: -42},
		I64Const{Val: 1 << 40},
		F32Const{Val: 1.5},
		F64Const{Val: -2.25},
		IEqz{Width: I64},
		ILt{Width: I32, Sign: Unsigned},
		IGe{Width: I64, Sign: Signed},
		FNe{Width: F64},
		IClz{Width: I32},
		IRem{Width: I64, Sign: Unsigned},
		IRotR{Width: I32},
		FCopySign{Width: F64},
		FNearest{Width: F32},
		I32WrapI64{},
		ITruncF{IntWidth: I64, FloatWidth: F32, Sign: Unsigned},
		I64ExtendI32{Sign: Signed},
		FConvertI{FloatWidth: F64, IntWidth: I32, Sign: Unsigned},
		F32DemoteF64{},
		F64PromoteF32{},
		IReinterpretF{Width: I64},
		FReinterpretI{Width: F32},
		IExtend8S{Width: I32},
		IExtend16S{Width: I64},
		I64Extend32S{},
		ITruncSatF{IntWidth: I32, FloatWidth: F64, Sign: Signed},
		RefNull{Type: ExternRef},
		RefIsNull{},
		RefFunc{Func: 0},
		V128Const{Val: [16]byte{1, 2, 3, 4}},
		VI8x16Shuffle{Lanes: [16]LaneIdx{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
		VI8x16Swizzle{},
		VSplat{Shape: ShapeF64x2},
		VI8x16ExtractLane{Sign: Unsigned, Lane: 3},
		VI16x8ExtractLane{Sign: Signed, Lane: 1},
		VI32x4ExtractLane{Lane: 2},
		VI64x2ExtractLane{Lane: 1},
		VFExtractLane{Shape: F32x4, Lane: 0},
		VReplaceLane{Shape: ShapeI16x8, Lane: 7},
		VIEq{Shape: I8x16},
		VIEq{Shape: I64x2},
		VILt{Shape: I16x8, Sign: Unsigned},
		VIGe{Shape: I32x4, Sign: Signed},
		VI64x2Gt{},
		VFLe{Shape: F64x2},
		V128Not{},
		V128BitSelect{},
		V128AnyTrue{},
		VIAbs{Shape: I64x2},
		VINeg{Shape: I8x16},
		VI8x16PopCnt{},
		VIAllTrue{Shape: I32x4},
		VIBitMask{Shape: I16x8},
		VI8x16NarrowI16x8{Sign: Unsigned},
		VI16x8NarrowI32x4{Sign: Signed},
		VI16x8ExtendI8x16{Half: HighHalf, Sign: Unsigned},
		VI32x4ExtendI16x8{Half: LowHalf, Sign: Signed},
		VI64x2ExtendI32x4{Half: HighHalf, Sign: Signed},
		VIShl{Shape: I64x2},
		VIShr{Shape: I8x16, Sign: Signed},
		VIAdd{Shape: I32x4},
		VISub{Shape: I16x8},
		VIAddSat{Shape: I8x16, Sign: Unsigned},
		VISubSat{Shape: I16x8, Sign: Signed},
		VIMul{Shape: I64x2},
		VIMin{Shape: I8x16, Sign: Signed},
		VIMax{Shape: I32x4, Sign: Unsigned},
		VIAvgr{Shape: I16x8},
		VIExtMul{Shape: I32x4, Half: LowHalf, Sign: Unsigned},
		VIExtAddPairwise{Shape: I16x8, Sign: Signed},
		VI16x8Q15MulrSat{},
		VI32x4DotI16x8{},
		VFCeil{Shape: F64x2},
		VFFloor{Shape: F32x4},
		VFTrunc{Shape: F64x2},
		VFNearest{Shape: F64x2},
		VFAbs{Shape: F32x4},
		VFSqrt{Shape: F64x2},
		VFAdd{Shape: F32x4},
		VFDiv{Shape: F64x2},
		VFPMin{Shape: F32x4},
		VFPMax{Shape: F64x2},
		VI32x4TruncSatF32x4{Sign: Unsigned},
		VI32x4TruncSatF64x2Zero{Sign: Signed},
		VF32x4ConvertI32x4{Sign: Signed},
		VF64x2ConvertLowI32x4{Sign: Unsigned},
		VF32x4DemoteF64x2Zero{},
		VF64x2PromoteLowF32x4{},
		V128Load8x8{Sign: Signed, Arg: MemArg{Align: 3}},
		V128Load32x2{Sign: Unsigned, Arg: MemArg{}},
		V128LoadSplat{Shape: WW16, Arg: MemArg{Align: 1}},
		V128Load64Zero{Arg: MemArg{Align: 3}},
		V128LoadLane{Shape: WW32, Arg: MemArg{Align: 2}, Lane: 1},
		V128StoreLane{Shape: WW64, Arg: MemArg{Align: 3}, Lane: 0},
	}

	module := EmptyModule()
	module.AddFunction(&FuncType{}, nil, &Expr{Instrs: instrs})

	data, err := Encode(module)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	reparsed, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	got := reparsed.Codes()[0].Body.Instrs
	if len(got) != len(instrs) {
		t.Fatalf("expected %d instructions, got %d", len(instrs), len(got))
	}
	for i := range instrs {
		if !reflect.DeepEqual(got[i], instrs[i]) {
			t.Errorf("instruction %d: want %#v, got %#v", i, instrs[i], got[i])
		}
	}
}

func TestLocalsRunLengthEncoding(t *testing.T) {
	module := EmptyModule()
	locals := []ValType{ValI32, ValI32, ValF64, ValI32}
	module.AddFunction(&FuncType{}, locals, &Expr{})

	data, err := Encode(module)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	reparsed, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if got := reparsed.Codes()[0].Locals; !reflect.DeepEqual(got, locals) {
		t.Errorf("unexpected locals %v", got)
	}
}
