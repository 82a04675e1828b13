package core

import (
	"reflect"
	"strings"
	"testing"

	wasmast "github.com/wippyai/wasm-ast"
)

var preamble = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// section frames a payload as a binary section. Payloads in tests stay under
// 128 bytes so the size fits a single LEB byte.
func section(id byte, payload []byte) []byte {
	if len(payload) >= 128 {
		panic("test payload too large for single-byte size")
	}
	out := []byte{id, byte(len(payload))}
	return append(out, payload...)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// addModule is a two-parameter i32 add function exported as "add".
func addModule() []byte {
	return concat(
		preamble,
		section(sectionIDType, []byte{0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f}),
		section(sectionIDFunction, []byte{0x01, 0x00}),
		section(sectionIDExport, []byte{0x01, 0x03, 'a', 'd', 'd', 0x00, 0x00}),
		section(sectionIDCode, []byte{0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b}),
	)
}

func TestParseAddModule(t *testing.T) {
	module, err := Parse(addModule(), wasmast.Full)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	types := module.Types()
	if len(types) != 1 {
		t.Fatalf("expected 1 type, got %d", len(types))
	}
	want := &FuncType{Params: []ValType{ValI32, ValI32}, Results: []ValType{ValI32}}
	if !types[0].Equal(want) {
		t.Errorf("unexpected function type %v", types[0])
	}

	exports := module.Exports()
	if len(exports) != 1 || exports[0].Name != "add" {
		t.Fatalf("unexpected exports %v", exports)
	}
	if exports[0].Desc.Kind != ExportKindFunc || exports[0].Desc.Idx != 0 {
		t.Errorf("unexpected export descriptor %+v", exports[0].Desc)
	}

	codes := module.Codes()
	if len(codes) != 1 {
		t.Fatalf("expected 1 code entry, got %d", len(codes))
	}
	wantBody := []Instr{LocalGet{Local: 0}, LocalGet{Local: 1}, IAdd{Width: I32}}
	if !reflect.DeepEqual(codes[0].Body.Instrs, wantBody) {
		t.Errorf("unexpected body %#v", codes[0].Body.Instrs)
	}
}

func TestParseRejectsBadPreamble(t *testing.T) {
	if _, err := Parse([]byte{0x00, 0x61, 0x73, 0x00, 0x01, 0x00, 0x00, 0x00}, nil); err == nil {
		t.Fatal("expected magic error")
	}
	if _, err := Parse(concat([]byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00}), nil); err == nil {
		t.Fatal("expected version error")
	}
}

// codeWith frames an instruction byte sequence as a complete single-function
// module. The sequence must terminate its own body.
func codeWith(body ...byte) []byte {
	code := append([]byte{0x00}, body...) // no locals
	payload := append([]byte{0x01, byte(len(code))}, code...)
	return concat(
		preamble,
		section(sectionIDType, []byte{0x01, 0x60, 0x00, 0x00}),
		section(sectionIDFunction, []byte{0x01, 0x00}),
		section(sectionIDCode, payload),
	)
}

func TestParseRejectsUnsupportedProposals(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "tag section",
			input: concat(preamble, section(sectionIDTag, []byte{0x00})),
			want:  "Unexpected tag section in core module; exception handling proposal is not supported",
		},
		{
			name:  "exception handling try",
			input: codeWith(0x06, 0x40, 0x0b, 0x0b),
			want:  "Exception handling proposal is not supported",
		},
		{
			name:  "tail call",
			input: codeWith(0x12, 0x00, 0x0b),
			want:  "Tail call proposal is not supported",
		},
		{
			name:  "function references call_ref",
			input: codeWith(0x14, 0x00, 0x0b),
			want:  "Function Reference Types Proposal is not supported",
		},
		{
			name:  "gc prefix",
			input: codeWith(0xfb, 0x00, 0x0b),
			want:  "GC Proposal is not supported",
		},
		{
			name:  "threads prefix",
			input: codeWith(0xfe, 0x00, 0x0b),
			want:  "Threads proposal is not supported",
		},
		{
			name:  "relaxed simd",
			input: codeWith(0xfd, 0x80, 0x02, 0x0b), // subopcode 256
			want:  "Relaxed SIMD instructions are not supported",
		},
		{
			name:  "shared memory",
			input: concat(preamble, section(sectionIDMemory, []byte{0x01, 0x03, 0x01, 0x01})),
			want:  "Threads proposal is not supported",
		},
		{
			name:  "64-bit memory",
			input: concat(preamble, section(sectionIDMemory, []byte{0x01, 0x04, 0x01})),
			want:  "64-bit memories are not supported",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestParseNestedControl(t *testing.T) {
	// block (if (then nop) (else unreachable)) end
	input := codeWith(
		0x02, 0x40, // block void
		0x41, 0x01, // i32.const 1
		0x04, 0x40, // if void
		0x01, // nop
		0x05, // else
		0x00, // unreachable
		0x0b, // end if
		0x0b, // end block
		0x0b, // end body
	)
	module, err := Parse(input, nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	body := module.Codes()[0].Body.Instrs
	want := []Instr{
		Block{Type: BlockTypeNone(), Body: []Instr{
			I32Const{Val: 1},
			If{Type: BlockTypeNone(), Then: []Instr{Nop{}}, Else: []Instr{Unreachable{}}},
		}},
	}
	if !reflect.DeepEqual(body, want) {
		t.Errorf("unexpected body %#v", body)
	}
}

func TestParseMetadataOnlyCustomization(t *testing.T) {
	input := concat(
		addModule(),
		section(sectionIDCustom, append([]byte{0x04}, []byte("name")...)),
		section(sectionIDCustom, append([]byte{0x05}, []byte("other")...)),
	)
	module, err := Parse(input, wasmast.MetadataOnly)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if body := module.Codes()[0].Body; body != nil {
		t.Errorf("expected body to be dropped, got %#v", body)
	}
	customs := module.Customs()
	if len(customs) != 1 || customs[0].Name != "name" {
		t.Errorf("unexpected custom sections %v", customs)
	}
}

func TestParseElementForms(t *testing.T) {
	// Form 0: active, table 0, funcidx list.
	input := concat(
		preamble,
		section(sectionIDType, []byte{0x01, 0x60, 0x00, 0x00}),
		section(sectionIDFunction, []byte{0x01, 0x00}),
		section(sectionIDTable, []byte{0x01, 0x70, 0x00, 0x01}),
		section(sectionIDElement, []byte{0x01, 0x00, 0x41, 0x00, 0x0b, 0x01, 0x00}),
		section(sectionIDCode, []byte{0x01, 0x02, 0x00, 0x0b}),
	)
	module, err := Parse(input, nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	elems := module.Elems()
	if len(elems) != 1 {
		t.Fatalf("expected 1 element segment, got %d", len(elems))
	}
	mode, ok := elems[0].Mode.(ElemModeActive)
	if !ok {
		t.Fatalf("expected active mode, got %T", elems[0].Mode)
	}
	if mode.TableIdx != 0 {
		t.Errorf("unexpected table index %d", mode.TableIdx)
	}
	wantInit := &Expr{Instrs: []Instr{RefFunc{Func: 0}}}
	if len(elems[0].Init) != 1 || !reflect.DeepEqual(elems[0].Init[0], wantInit) {
		t.Errorf("unexpected init %#v", elems[0].Init)
	}
}

func TestParseDataSegments(t *testing.T) {
	input := concat(
		preamble,
		section(sectionIDMemory, []byte{0x01, 0x00, 0x01}),
		section(sectionIDData, []byte{
			0x02,
			0x00, 0x41, 0x00, 0x0b, 0x02, 0xca, 0xfe, // active, offset 0
			0x01, 0x02, 0xbe, 0xef, // passive
		}),
	)
	module, err := Parse(input, nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	datas := module.Datas()
	if len(datas) != 2 {
		t.Fatalf("expected 2 data segments, got %d", len(datas))
	}
	if _, ok := datas[0].Mode.(DataModeActive); !ok {
		t.Errorf("expected active mode, got %T", datas[0].Mode)
	}
	if _, ok := datas[1].Mode.(DataModePassive); !ok {
		t.Errorf("expected passive mode, got %T", datas[1].Mode)
	}
	if !reflect.DeepEqual(datas[1].Init, []byte{0xbe, 0xef}) {
		t.Errorf("unexpected payload %x", datas[1].Init)
	}
}
