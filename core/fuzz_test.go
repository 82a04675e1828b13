package core

import (
	"bytes"
	"testing"

	wasmast "github.com/wippyai/wasm-ast"
)

func FuzzParse(f *testing.F) {
	f.Add(addModule())
	f.Add(concat(preamble))
	f.Add(concat(
		preamble,
		section(sectionIDMemory, []byte{0x01, 0x00, 0x01}),
		section(sectionIDData, []byte{0x01, 0x00, 0x41, 0x00, 0x0b, 0x02, 0xca, 0xfe}),
	))
	f.Add([]byte{0x00, 0x61, 0x73, 0x6d})

	f.Fuzz(func(t *testing.T, data []byte) {
		module, err := Parse(data, wasmast.Full)
		if err != nil {
			return
		}

		// Anything accepted with the full customization must re-encode, and
		// the re-encoded form must parse back to the same bytes.
		encoded, err := Encode(module)
		if err != nil {
			t.Fatalf("accepted module failed to encode: %v", err)
		}
		reparsed, err := Parse(encoded, wasmast.Full)
		if err != nil {
			t.Fatalf("re-encoded module failed to parse: %v", err)
		}
		again, err := Encode(reparsed)
		if err != nil {
			t.Fatalf("reparsed module failed to encode: %v", err)
		}
		if !bytes.Equal(encoded, again) {
			t.Errorf("encoding is not stable: %x vs %x", encoded, again)
		}
	})
}
