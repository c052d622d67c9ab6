package wasm

import (
	"fmt"

	wbin "github.com/wippyai/componentize-go/internal/binary"
)

// maxPrealloc caps slice capacity taken from counts in untrusted input.
const maxPrealloc = 1024

// Import is a core module import.
type Import struct {
	Module string
	Name   string
	Kind   byte
}

// Export is a core module export.
type Export struct {
	Name  string
	Kind  byte
	Index uint32
}

// Imports lists the imports of a core module. Descriptors are skipped, only
// names and kinds are kept.
func Imports(module []byte) ([]Import, error) {
	payload, err := coreSection(module, SectionImport)
	if err != nil || payload == nil {
		return nil, err
	}

	r := wbin.NewReader(payload)
	count, err := r.ReadU32()
	if err != nil {
		return nil, r.WrapError("import section", err)
	}
	imports := make([]Import, 0, min(count, maxPrealloc))
	for i := uint32(0); i < count; i++ {
		mod, err := r.ReadName()
		if err != nil {
			return nil, r.WrapError(fmt.Sprintf("import %d", i), err)
		}
		name, err := r.ReadName()
		if err != nil {
			return nil, r.WrapError(fmt.Sprintf("import %d", i), err)
		}
		kind, err := r.ReadByte()
		if err != nil {
			return nil, r.WrapError(fmt.Sprintf("import %d", i), err)
		}
		if err := skipImportDesc(r, kind); err != nil {
			return nil, r.WrapError(fmt.Sprintf("import %s.%s", mod, name), err)
		}
		imports = append(imports, Import{Module: mod, Name: name, Kind: kind})
	}
	return imports, nil
}

// Exports lists the exports of a core module.
func Exports(module []byte) ([]Export, error) {
	payload, err := coreSection(module, SectionExport)
	if err != nil || payload == nil {
		return nil, err
	}

	r := wbin.NewReader(payload)
	count, err := r.ReadU32()
	if err != nil {
		return nil, r.WrapError("export section", err)
	}
	exports := make([]Export, 0, min(count, maxPrealloc))
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadName()
		if err != nil {
			return nil, r.WrapError(fmt.Sprintf("export %d", i), err)
		}
		kind, err := r.ReadByte()
		if err != nil {
			return nil, r.WrapError(fmt.Sprintf("export %d", i), err)
		}
		if kind > KindTag {
			return nil, fmt.Errorf("invalid export kind: 0x%02x", kind)
		}
		idx, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError(fmt.Sprintf("export %s", name), err)
		}
		exports = append(exports, Export{Name: name, Kind: kind, Index: idx})
	}
	return exports, nil
}

// coreSection returns the payload of the first section with id, or nil.
func coreSection(module []byte, id byte) ([]byte, error) {
	if !IsCoreModule(module) {
		return nil, fmt.Errorf("not a core module")
	}
	sections, err := Sections(module)
	if err != nil {
		return nil, err
	}
	for _, s := range sections {
		if s.ID == id {
			return s.Payload, nil
		}
	}
	return nil, nil
}

func skipImportDesc(r *wbin.Reader, kind byte) error {
	switch kind {
	case KindFunc:
		_, err := r.ReadU32()
		return err
	case KindTable:
		if err := skipRefType(r); err != nil {
			return err
		}
		return skipLimits(r)
	case KindMemory:
		return skipLimits(r)
	case KindGlobal:
		if err := skipValType(r); err != nil {
			return err
		}
		_, err := r.ReadByte() // mutability
		return err
	case KindTag:
		if _, err := r.ReadByte(); err != nil { // attribute
			return err
		}
		_, err := r.ReadU32()
		return err
	}
	return fmt.Errorf("unknown import kind: %d", kind)
}

func skipRefType(r *wbin.Reader) error {
	b, err := r.ReadByte()
	if err != nil {
		return err
	}
	if b == refNull || b == ref {
		return r.SkipLEB128()
	}
	return nil
}

func skipValType(r *wbin.Reader) error {
	return skipRefType(r)
}

func skipLimits(r *wbin.Reader) error {
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	if err := r.SkipLEB128(); err != nil { // min
		return err
	}
	if flags&limitsHasMax != 0 {
		if err := r.SkipLEB128(); err != nil {
			return err
		}
	}
	if flags&limitsPageSize != 0 {
		return r.SkipLEB128()
	}
	return nil
}
