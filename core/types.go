package core

// Index types into the module's index spaces.
type (
	TypeIdx   = uint32
	FuncIdx   = uint32
	TableIdx  = uint32
	MemIdx    = uint32
	GlobalIdx = uint32
	ElemIdx   = uint32
	DataIdx   = uint32
	LocalIdx  = uint32
	LabelIdx  = uint32
	LaneIdx   = uint8
)

// ValType is a value type, encoded as its binary discriminant byte.
type ValType byte

const (
	ValI32       ValType = 0x7f
	ValI64       ValType = 0x7e
	ValF32       ValType = 0x7d
	ValF64       ValType = 0x7c
	ValV128      ValType = 0x7b
	ValFuncRef   ValType = 0x70
	ValExternRef ValType = 0x6f
)

// IsNum reports whether the value type is a numeric type.
func (v ValType) IsNum() bool {
	return v == ValI32 || v == ValI64 || v == ValF32 || v == ValF64
}

// IsRef reports whether the value type is a reference type.
func (v ValType) IsRef() bool {
	return v == ValFuncRef || v == ValExternRef
}

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValV128:
		return "v128"
	case ValFuncRef:
		return "funcref"
	case ValExternRef:
		return "externref"
	}
	return "unknown"
}

// RefType is a reference type, encoded as its binary discriminant byte.
type RefType byte

const (
	FuncRef   RefType = 0x70
	ExternRef RefType = 0x6f
)

// IntWidth selects between the 32 and 64 bit integer variants of a factored
// instruction.
type IntWidth byte

const (
	I32 IntWidth = iota
	I64
)

// FloatWidth selects between the 32 and 64 bit float variants of a factored
// instruction.
type FloatWidth byte

const (
	F32 FloatWidth = iota
	F64
)

// Signedness selects between the signed and unsigned variants of a factored
// instruction.
type Signedness byte

const (
	Signed Signedness = iota
	Unsigned
)

// IShape is an integer vector shape.
type IShape byte

const (
	I8x16 IShape = iota
	I16x8
	I32x4
	I64x2
)

// FShape is a float vector shape.
type FShape byte

const (
	F32x4 FShape = iota
	F64x2
)

// Shape is any vector shape, integer or float.
type Shape byte

const (
	ShapeI8x16 Shape = iota
	ShapeI16x8
	ShapeI32x4
	ShapeI64x2
	ShapeF32x4
	ShapeF64x2
)

// Half selects the low or high half of a vector operand.
type Half byte

const (
	LowHalf Half = iota
	HighHalf
)

// VectorLoadShape is the lane width of a vector splat/lane memory access.
type VectorLoadShape byte

const (
	WW8 VectorLoadShape = iota
	WW16
	WW32
	WW64
)

// MemArg is the alignment/offset immediate of a memory instruction.
type MemArg struct {
	Align  uint8
	Offset uint32
}

// BlockType is the type annotation of a structured control instruction.
// At most one of Index and Value is set; neither set means the empty type.
type BlockType struct {
	Index *TypeIdx
	Value *ValType
}

// BlockTypeNone returns the empty block type.
func BlockTypeNone() BlockType {
	return BlockType{}
}

// BlockTypeIndex returns a block type referencing a function type.
func BlockTypeIndex(idx TypeIdx) BlockType {
	return BlockType{Index: &idx}
}

// BlockTypeValue returns a block type producing a single value.
func BlockTypeValue(v ValType) BlockType {
	return BlockType{Value: &v}
}

// FuncType is the signature of a function: parameter and result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Equal reports whether two function types have identical signatures.
func (t *FuncType) Equal(other *FuncType) bool {
	if len(t.Params) != len(other.Params) || len(t.Results) != len(other.Results) {
		return false
	}
	for i := range t.Params {
		if t.Params[i] != other.Params[i] {
			return false
		}
	}
	for i := range t.Results {
		if t.Results[i] != other.Results[i] {
			return false
		}
	}
	return true
}

// Limits is the size range of a table or memory.
type Limits struct {
	Min uint64
	Max *uint64
}

// TableType describes a table: its limits and element reference type.
type TableType struct {
	Limits   Limits
	Elements RefType
}

// MemType describes a linear memory.
type MemType struct {
	Limits Limits
}

// GlobalType describes a global: its value type and mutability.
type GlobalType struct {
	ValType ValType
	Mutable bool
}
