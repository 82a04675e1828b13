package wasmast

// Customization controls how much fidelity a parse session retains.
//
// Dropping instruction bodies, data payloads, and custom sections makes
// metadata-only scans considerably cheaper; the writer refuses to encode an
// AST whose bodies were dropped.
type Customization interface {
	// KeepInstructions reports whether function bodies and initializer
	// expressions are decoded and retained.
	KeepInstructions() bool
	// KeepDataPayload reports whether data segment contents are retained.
	KeepDataPayload() bool
	// KeepCustomSection reports whether the named custom section is retained.
	KeepCustomSection(name string) bool
}

type fullCustomization struct{}

func (fullCustomization) KeepInstructions() bool        { return true }
func (fullCustomization) KeepDataPayload() bool         { return true }
func (fullCustomization) KeepCustomSection(string) bool { return true }

type metadataOnlyCustomization struct{}

func (metadataOnlyCustomization) KeepInstructions() bool { return false }
func (metadataOnlyCustomization) KeepDataPayload() bool  { return false }
func (metadataOnlyCustomization) KeepCustomSection(name string) bool {
	switch name {
	case "name", "component-name", "producers", "registry-metadata":
		return true
	}
	return false
}

type minimalCustomization struct{}

func (minimalCustomization) KeepInstructions() bool        { return false }
func (minimalCustomization) KeepDataPayload() bool         { return false }
func (minimalCustomization) KeepCustomSection(string) bool { return false }

var (
	// Full retains everything, supporting exact round-trip transforms.
	Full Customization = fullCustomization{}
	// MetadataOnly drops instruction bodies and data payloads but keeps the
	// custom sections carrying component metadata.
	MetadataOnly Customization = metadataOnlyCustomization{}
	// Minimal drops instruction bodies, data payloads, and custom sections.
	Minimal Customization = minimalCustomization{}
)
