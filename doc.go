// Package wasmast provides a bidirectional codec and semantic analyzer for
// the WebAssembly Component Model binary format.
//
// The library parses raw component or core module bytes into a structured
// AST, re-serializes that AST back to bytes, and statically analyzes a
// parsed component to recover the typed signatures of everything it exports.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	wasmast/             Root package with the generic section store and customization policies
//	├── core/            Core WASM module AST, instruction set, parser and writer
//	├── component/       Component Model AST, parser and writer
//	├── analysis/        Export signature recovery (AnalysedExport / AnalysedType)
//	├── metadata/        Producers, registry metadata and name custom sections
//	├── errors/          Structured error types for all phases
//	└── cmd/wasm-ast/    CLI: inspect exports, metadata, round-trip binaries
//
// # Quick Start
//
// Parse a component and analyze its exports:
//
//	comp, err := component.Parse(bytes, wasmast.Full)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := analysis.NewAnalysisContext(comp)
//	exports, err := ctx.GetTopLevelExports()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Re-encode the component:
//
//	out, err := component.Encode(comp)
//
// # Section Model
//
// Both core modules and components store their contents as an ordered list
// of typed section nodes, generic over an index space and a binary section
// type. Per-type groups are reconstructed when writing, and lazily built
// caches give cheap typed accessors; every mutation appends a new node and
// invalidates the caches, so shared nodes are never edited in place.
package wasmast
