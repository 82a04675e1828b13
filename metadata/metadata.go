// Package metadata models the informational custom sections carried by core
// modules and components: producers, registry metadata, and symbol names.
package metadata

import (
	"encoding/json"
	"fmt"

	"github.com/coreos/go-semver/semver"
	"github.com/wippyai/wasm-ast/internal/binary"
)

// Metadata is the combined content of a binary's informational custom
// sections. Fields are nil when the corresponding section is absent.
type Metadata struct {
	Name      *Names
	Producers *Producers
	Registry  *Registry
}

// Producers is the content of a "producers" custom section: which languages,
// tools and SDKs produced the binary.
type Producers struct {
	Fields []ProducersField
}

// ProducersField is one field of the producers section, e.g. "language" or
// "processed-by".
type ProducersField struct {
	Name   string
	Values []VersionedName
}

// VersionedName is a tool or language name with its version string.
type VersionedName struct {
	Name    string
	Version string
}

// Semver parses the version string as semantic version, when it is one.
func (v VersionedName) Semver() (*semver.Version, bool) {
	parsed, err := semver.NewVersion(v.Version)
	if err != nil {
		return nil, false
	}
	return parsed, true
}

// Field returns the named producers field, if present.
func (p *Producers) Field(name string) (*ProducersField, bool) {
	for i := range p.Fields {
		if p.Fields[i].Name == name {
			return &p.Fields[i], true
		}
	}
	return nil, false
}

// ParseProducers decodes the payload of a "producers" custom section.
func ParseProducers(data []byte) (*Producers, error) {
	r := binary.NewReader(data)
	fieldCount, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("producers field count: %w", err)
	}
	producers := &Producers{}
	for i := uint32(0); i < fieldCount; i++ {
		name, err := r.ReadName()
		if err != nil {
			return nil, fmt.Errorf("producers field name: %w", err)
		}
		valueCount, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("producers value count: %w", err)
		}
		field := ProducersField{Name: name}
		for j := uint32(0); j < valueCount; j++ {
			value, err := r.ReadName()
			if err != nil {
				return nil, fmt.Errorf("producers value: %w", err)
			}
			version, err := r.ReadName()
			if err != nil {
				return nil, fmt.Errorf("producers version: %w", err)
			}
			field.Values = append(field.Values, VersionedName{Name: value, Version: version})
		}
		producers.Fields = append(producers.Fields, field)
	}
	return producers, nil
}

// EncodeProducers encodes a producers section payload.
func EncodeProducers(p *Producers) []byte {
	w := binary.NewWriter()
	w.WriteU32(uint32(len(p.Fields)))
	for _, field := range p.Fields {
		w.WriteName(field.Name)
		w.WriteU32(uint32(len(field.Values)))
		for _, value := range field.Values {
			w.WriteName(value.Name)
			w.WriteName(value.Version)
		}
	}
	return w.Bytes()
}

// Link is one related-resource link in the registry metadata.
type Link struct {
	Type  string `json:"ty"`
	Value string `json:"value"`
}

// CustomLicense is a non-SPDX license carried inline in the registry
// metadata.
type CustomLicense struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// Registry is the content of a "registry-metadata" custom section, stored as
// a JSON payload.
type Registry struct {
	Authors        []string        `json:"authors,omitempty"`
	Description    string          `json:"description,omitempty"`
	License        string          `json:"license,omitempty"`
	CustomLicenses []CustomLicense `json:"custom_licenses,omitempty"`
	Links          []Link          `json:"links,omitempty"`
	Categories     []string        `json:"categories,omitempty"`
}

// ParseRegistry decodes the payload of a "registry-metadata" custom section.
func ParseRegistry(data []byte) (*Registry, error) {
	registry := &Registry{}
	if err := json.Unmarshal(data, registry); err != nil {
		return nil, fmt.Errorf("registry metadata: %w", err)
	}
	return registry, nil
}

// EncodeRegistry encodes a registry metadata section payload.
func EncodeRegistry(r *Registry) ([]byte, error) {
	return json.Marshal(r)
}

// Names is the content of a "name" custom section.
type Names struct {
	ModuleName string
	FuncNames  map[uint32]string
}

const (
	nameSubsectionModule = 0
	nameSubsectionFuncs  = 1
)

// ParseName decodes the payload of a "name" custom section. Unknown
// subsections are skipped.
func ParseName(data []byte) (*Names, error) {
	r := binary.NewReader(data)
	names := &Names{}
	for r.Remaining() > 0 {
		id, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("name subsection id: %w", err)
		}
		size, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("name subsection size: %w", err)
		}
		payload, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, fmt.Errorf("name subsection payload: %w", err)
		}
		sub := binary.NewReader(payload)
		switch id {
		case nameSubsectionModule:
			name, err := sub.ReadName()
			if err != nil {
				return nil, fmt.Errorf("module name: %w", err)
			}
			names.ModuleName = name
		case nameSubsectionFuncs:
			count, err := sub.ReadU32()
			if err != nil {
				return nil, fmt.Errorf("func name count: %w", err)
			}
			names.FuncNames = make(map[uint32]string, count)
			for i := uint32(0); i < count; i++ {
				idx, err := sub.ReadU32()
				if err != nil {
					return nil, fmt.Errorf("func name index: %w", err)
				}
				name, err := sub.ReadName()
				if err != nil {
					return nil, fmt.Errorf("func name: %w", err)
				}
				names.FuncNames[idx] = name
			}
		}
	}
	return names, nil
}
