package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	wasmast "github.com/wippyai/wasm-ast"
	"github.com/wippyai/wasm-ast/analysis"
	"github.com/wippyai/wasm-ast/component"
	"github.com/wippyai/wasm-ast/core"
	"github.com/wippyai/wasm-ast/metadata"
	"github.com/wippyai/wasm-ast/validate"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to wasm component or module")
		list        = flag.Bool("list", false, "List exported functions and exit")
		meta        = flag.Bool("metadata", false, "Show name and producers metadata")
		check       = flag.Bool("validate", false, "Compile nested core modules to verify them")
		outFile     = flag.String("out", "", "Re-encode to this file")
		strip       = flag.Bool("strip", false, "Drop custom sections except metadata when re-encoding")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		debug       = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: wasm-ast -wasm <file.wasm> [-list] [-metadata] [-validate]")
		fmt.Fprintln(os.Stderr, "       wasm-ast -wasm <file.wasm> -out <file.wasm> [-strip]")
		fmt.Fprintln(os.Stderr, "       wasm-ast -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		analysis.SetLogger(logger)
	}

	if *interactive {
		if err := runInteractive(*wasmFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*wasmFile, *outFile, *list, *meta, *check, *strip); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(wasmFile, outFile string, list, meta, check, strip bool) error {
	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	custom := wasmast.Full
	if strip {
		custom = wasmast.MetadataOnly
	}

	if !component.IsComponent(data) {
		return runModule(wasmFile, outFile, data, custom, meta)
	}

	c, err := component.Parse(data, custom)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	fmt.Printf("Component: %s\n", wasmFile)
	fmt.Printf("Core modules: %d\n", len(c.GetAllModules()))
	fmt.Printf("Imports: %d\n", len(c.Imports()))
	fmt.Printf("Exports: %d\n", len(c.Exports()))

	if meta {
		printMetadata(c.Metadata())
	}

	if list {
		if err := printExports(c); err != nil {
			return err
		}
	}

	if check {
		if err := validate.Component(context.Background(), c); err != nil {
			return fmt.Errorf("validate: %w", err)
		}
		fmt.Println("\nAll nested core modules compile.")
	}

	if outFile != "" {
		return writeEncoded(outFile, data, func() ([]byte, error) { return component.Encode(c) })
	}
	return nil
}

func runModule(wasmFile, outFile string, data []byte, custom wasmast.Customization, meta bool) error {
	module, err := core.Parse(data, custom)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	fmt.Printf("Module: %s\n", wasmFile)
	fmt.Printf("Functions: %d\n", len(module.FuncTypeRefs()))
	fmt.Printf("Imports: %d\n", len(module.Imports()))
	fmt.Printf("Exports: %d\n", len(module.Exports()))
	fmt.Printf("Memories: %d\n", len(module.Mems()))

	if meta {
		printMetadata(module.Metadata())
	}

	if outFile != "" {
		return writeEncoded(outFile, data, func() ([]byte, error) { return core.Encode(module) })
	}
	return nil
}

func printExports(c *component.Component) error {
	ctx := analysis.NewAnalysisContext(c)
	exports, err := ctx.GetTopLevelExports()
	if err != nil {
		return fmt.Errorf("analyse: %w", err)
	}

	fmt.Printf("\nExported functions:\n")
	for _, export := range exports {
		switch e := export.(type) {
		case analysis.AnalysedFunction:
			fmt.Printf("  %s\n", formatFunction(e))
		case analysis.AnalysedInstance:
			fmt.Printf("  %s:\n", e.Name)
			for _, f := range e.Functions {
				fmt.Printf("    %s\n", formatFunction(f))
			}
		}
	}
	for _, warning := range ctx.Warnings() {
		fmt.Printf("  warning: %s\n", warning.Warning())
	}
	return nil
}

func formatFunction(f analysis.AnalysedFunction) string {
	var params []string
	for _, p := range f.Parameters {
		params = append(params, p.Name+": "+analysedTypeStr(p.Typ))
	}
	result := ""
	if len(f.Results) > 0 {
		result = " -> " + analysedTypeStr(f.Results[0].Typ)
	}
	return f.Name + "(" + strings.Join(params, ", ") + ")" + result
}

func analysedTypeStr(t analysis.AnalysedType) string {
	switch v := t.(type) {
	case analysis.TypeBool:
		return "bool"
	case analysis.TypeU8:
		return "u8"
	case analysis.TypeS8:
		return "s8"
	case analysis.TypeU16:
		return "u16"
	case analysis.TypeS16:
		return "s16"
	case analysis.TypeU32:
		return "u32"
	case analysis.TypeS32:
		return "s32"
	case analysis.TypeU64:
		return "u64"
	case analysis.TypeS64:
		return "s64"
	case analysis.TypeF32:
		return "f32"
	case analysis.TypeF64:
		return "f64"
	case analysis.TypeChr:
		return "char"
	case analysis.TypeStr:
		return "string"
	case *analysis.TypeList:
		return "list<" + analysedTypeStr(v.Inner) + ">"
	case *analysis.TypeTuple:
		var items []string
		for _, item := range v.Items {
			items = append(items, analysedTypeStr(item))
		}
		return "tuple<" + strings.Join(items, ", ") + ">"
	case *analysis.TypeRecord:
		return "record"
	case *analysis.TypeVariant:
		return "variant"
	case *analysis.TypeFlags:
		return "flags"
	case *analysis.TypeEnum:
		return "enum"
	case *analysis.TypeOption:
		return "option<" + analysedTypeStr(v.Inner) + ">"
	case *analysis.TypeResult:
		ok := "_"
		if v.Ok != nil {
			ok = analysedTypeStr(v.Ok)
		}
		errArm := "_"
		if v.Err != nil {
			errArm = analysedTypeStr(v.Err)
		}
		return "result<" + ok + ", " + errArm + ">"
	case analysis.TypeHandle:
		return fmt.Sprintf("%s<resource-%d>", v.Mode, v.ResourceID)
	default:
		return fmt.Sprintf("%T", t)
	}
}

func printMetadata(m *metadata.Metadata) {
	if m == nil {
		fmt.Println("\nNo metadata.")
		return
	}
	fmt.Printf("\nMetadata:\n")
	if m.Name != nil && m.Name.ModuleName != "" {
		fmt.Printf("  name: %s\n", m.Name.ModuleName)
	}
	if m.Producers != nil {
		for _, field := range m.Producers.Fields {
			var values []string
			for _, v := range field.Values {
				value := v.Name
				if version, ok := v.Semver(); ok {
					value += " " + version.String()
				} else if v.Version != "" {
					value += " " + v.Version
				}
				values = append(values, value)
			}
			fmt.Printf("  %s: %s\n", field.Name, strings.Join(values, ", "))
		}
	}
}

func writeEncoded(outFile string, original []byte, encode func() ([]byte, error)) error {
	encoded, err := encode()
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := os.WriteFile(outFile, encoded, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	fmt.Printf("\nWrote %d bytes to %s", len(encoded), outFile)
	if bytes.Equal(original, encoded) {
		fmt.Printf(" (byte-identical)\n")
	} else {
		fmt.Printf(" (%d bytes in)\n", len(original))
	}
	return nil
}
