package wasm

// Binary preamble shared by core modules and components ("\0asm").
var Magic = []byte{0x00, 0x61, 0x73, 0x6D}

// Preamble versions. The 4-byte field after the magic is a 16-bit version
// followed by a 16-bit layer: layer 0 is a core module, layer 1 a component.
const (
	// ModuleVersion is the core module version (layer 0).
	ModuleVersion uint32 = 0x00000001
	// ComponentVersion is the component-model version with layer 1.
	ComponentVersion uint32 = 0x0001000D
)

// Section IDs define the binary identifiers for each module section.
const (
	SectionCustom byte = 0 // Custom section (can appear anywhere)
	SectionImport byte = 2 // Import section
	SectionExport byte = 7 // Export section
)

// Import/Export descriptor kinds identify the type of imported or exported item.
const (
	KindFunc   byte = 0 // Function import/export
	KindTable  byte = 1 // Table import/export
	KindMemory byte = 2 // Memory import/export
	KindGlobal byte = 3 // Global import/export
	KindTag    byte = 4 // Tag import/export (exception handling)
)

// Reference type prefixes that carry a heap type immediate.
const (
	refNull byte = 0x63 // (ref null ht)
	ref     byte = 0x64 // (ref ht)
)

// Limits flag bits for tables and memories.
const (
	limitsHasMax   byte = 0x01
	limitsPageSize byte = 0x08 // custom-page-sizes proposal
)

// KindName returns the text-format keyword for an import/export kind.
func KindName(kind byte) string {
	switch kind {
	case KindFunc:
		return "func"
	case KindTable:
		return "table"
	case KindMemory:
		return "memory"
	case KindGlobal:
		return "global"
	case KindTag:
		return "tag"
	}
	return "unknown"
}
