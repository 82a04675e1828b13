package metadata

import (
	"reflect"
	"testing"
)

func TestProducersRoundTrip(t *testing.T) {
	producers := &Producers{Fields: []ProducersField{
		{Name: "language", Values: []VersionedName{{Name: "Rust", Version: ""}}},
		{Name: "processed-by", Values: []VersionedName{
			{Name: "wit-component", Version: "0.18.2"},
			{Name: "cargo-component", Version: "0.5.0"},
		}},
	}}

	parsed, err := ParseProducers(EncodeProducers(producers))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !reflect.DeepEqual(parsed, producers) {
		t.Errorf("round trip mismatch: %+v", parsed)
	}

	field, ok := parsed.Field("processed-by")
	if !ok || len(field.Values) != 2 {
		t.Fatalf("unexpected field %+v", field)
	}
	version, ok := field.Values[0].Semver()
	if !ok {
		t.Fatal("expected parseable version")
	}
	if version.Minor != 18 {
		t.Errorf("unexpected version %v", version)
	}
	if _, ok := parsed.Field("sdk"); ok {
		t.Error("unexpected sdk field")
	}
}

func TestSemverRejectsNonVersion(t *testing.T) {
	if _, ok := (VersionedName{Name: "Rust", Version: "stable"}).Semver(); ok {
		t.Error("expected stable to be rejected")
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	registry := &Registry{
		Authors:     []string{"Jane Developer <jane@example.com>"},
		Description: "an example component",
		License:     "Apache-2.0 WITH LLVM-exception",
		Links: []Link{
			{Type: "Repository", Value: "https://example.com/repo"},
		},
		Categories: []string{"wasm"},
	}
	data, err := EncodeRegistry(registry)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	parsed, err := ParseRegistry(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !reflect.DeepEqual(parsed, registry) {
		t.Errorf("round trip mismatch: %+v", parsed)
	}
}

func TestParseRegistryRejectsInvalidJSON(t *testing.T) {
	if _, err := ParseRegistry([]byte("{not json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseName(t *testing.T) {
	var payload []byte
	// Module name subsection: "demo".
	payload = append(payload, nameSubsectionModule, 5, 4)
	payload = append(payload, "demo"...)
	// Function names subsection: 0 -> "run", 2 -> "helper".
	payload = append(payload, nameSubsectionFuncs, 14, 2)
	payload = append(payload, 0, 3)
	payload = append(payload, "run"...)
	payload = append(payload, 2, 6)
	payload = append(payload, "helper"...)
	// Unknown subsection, skipped.
	payload = append(payload, 9, 2, 0xff, 0xff)

	names, err := ParseName(payload)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if names.ModuleName != "demo" {
		t.Errorf("unexpected module name %q", names.ModuleName)
	}
	want := map[uint32]string{0: "run", 2: "helper"}
	if !reflect.DeepEqual(names.FuncNames, want) {
		t.Errorf("unexpected func names %v", names.FuncNames)
	}
}
