package component

import (
	"errors"
	"fmt"
	"strings"

	wbin "github.com/wippyai/componentize-go/internal/binary"
	"github.com/wippyai/componentize-go/wasm"
)

// ErrNotComponent is returned by Inspect for input without a component
// preamble.
var ErrNotComponent = errors.New("not a WebAssembly component")

// Component section IDs
const (
	sectionCustom     byte = 0
	sectionCoreModule byte = 1
	sectionComponent  byte = 4
	sectionImport     byte = 10
	sectionExport     byte = 11
)

// Extern kinds of import and export descriptors.
const (
	ExternCoreModule byte = 0x00
	ExternFunc       byte = 0x01
	ExternValue      byte = 0x02
	ExternType       byte = 0x03
	ExternComponent  byte = 0x04
	ExternInstance   byte = 0x05
)

// sortCore prefixes a core sort in a sortidx.
const sortCore byte = 0x00

// Import is a top-level component import.
type Import struct {
	Name string
	Kind byte
}

// Export is a top-level component export.
type Export struct {
	Name  string
	Sort  byte
	Index uint32
}

// Info summarizes the top level of a component.
type Info struct {
	Imports        []Import
	Exports        []Export
	CustomSections []wasm.CustomSection
	CoreModules    int
	Components     int
}

// Packages returns the "ns:pkg" identifiers referenced by import and export
// names, in order of first appearance.
func (i *Info) Packages() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		id, ok := packageOf(name)
		if ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, imp := range i.Imports {
		add(imp.Name)
	}
	for _, exp := range i.Exports {
		add(exp.Name)
	}
	return out
}

// packageOf extracts "ns:pkg" from an interface name "ns:pkg/iface@ver".
func packageOf(name string) (string, bool) {
	ns, rest, ok := strings.Cut(name, ":")
	if !ok || ns == "" {
		return "", false
	}
	pkg, _, ok := strings.Cut(rest, "/")
	if !ok || pkg == "" {
		return "", false
	}
	return ns + ":" + pkg, true
}

// Inspect walks the top-level sections of a component. Nested modules and
// components are counted, not decoded.
func Inspect(data []byte) (*Info, error) {
	if !wasm.IsComponent(data) {
		return nil, ErrNotComponent
	}
	sections, err := wasm.Sections(data)
	if err != nil {
		return nil, err
	}

	info := &Info{}
	for _, s := range sections {
		switch s.ID {
		case sectionCustom:
			cs, err := wasm.DecodeCustomSection(s.Payload)
			if err != nil {
				return nil, err
			}
			info.CustomSections = append(info.CustomSections, cs)
		case sectionCoreModule:
			info.CoreModules++
		case sectionComponent:
			info.Components++
		case sectionImport:
			imports, err := decodeImports(s.Payload)
			if err != nil {
				return nil, fmt.Errorf("decode imports: %w", err)
			}
			info.Imports = append(info.Imports, imports...)
		case sectionExport:
			exports, err := decodeExports(s.Payload)
			if err != nil {
				return nil, fmt.Errorf("decode exports: %w", err)
			}
			info.Exports = append(info.Exports, exports...)
		}
	}
	return info, nil
}

func decodeImports(data []byte) ([]Import, error) {
	r := wbin.NewReader(data)
	count, err := r.ReadU32()
	if err != nil {
		return nil, r.WrapError("import count", err)
	}
	imports := make([]Import, 0, min(count, 1024))
	for i := uint32(0); i < count; i++ {
		name, err := readExternName(r)
		if err != nil {
			return nil, r.WrapError(fmt.Sprintf("import %d name", i), err)
		}
		kind, err := readExternDesc(r)
		if err != nil {
			return nil, r.WrapError(fmt.Sprintf("import %q", name), err)
		}
		imports = append(imports, Import{Name: name, Kind: kind})
	}
	return imports, nil
}

func decodeExports(data []byte) ([]Export, error) {
	r := wbin.NewReader(data)
	count, err := r.ReadU32()
	if err != nil {
		return nil, r.WrapError("export count", err)
	}
	exports := make([]Export, 0, min(count, 1024))
	for i := uint32(0); i < count; i++ {
		name, err := readExternName(r)
		if err != nil {
			return nil, r.WrapError(fmt.Sprintf("export %d name", i), err)
		}
		sort, err := r.ReadByte()
		if err != nil {
			return nil, r.WrapError(fmt.Sprintf("export %q sort", name), err)
		}
		if sort == sortCore {
			if _, err := r.ReadByte(); err != nil {
				return nil, r.WrapError(fmt.Sprintf("export %q core sort", name), err)
			}
		}
		idx, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError(fmt.Sprintf("export %q index", name), err)
		}
		// optional ascribed type
		has, err := r.ReadByte()
		if err != nil {
			return nil, r.WrapError(fmt.Sprintf("export %q type", name), err)
		}
		if has == 0x01 {
			if _, err := readExternDesc(r); err != nil {
				return nil, r.WrapError(fmt.Sprintf("export %q type", name), err)
			}
		} else if has != 0x00 {
			return nil, fmt.Errorf("export %q: invalid type flag 0x%02x", name, has)
		}
		exports = append(exports, Export{Name: name, Sort: sort, Index: idx})
	}
	return exports, nil
}

// readExternName reads an import or export name. The 0x01 form carries a
// trailing string (version suffix) which is skipped.
func readExternName(r *wbin.Reader) (string, error) {
	form, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	name, err := r.ReadName()
	if err != nil {
		return "", err
	}
	switch form {
	case 0x00:
	case 0x01:
		if _, err := r.ReadName(); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("invalid name form 0x%02x", form)
	}
	return name, nil
}

// readExternDesc skips an extern descriptor and returns its kind.
func readExternDesc(r *wbin.Reader) (byte, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch kind {
	case ExternCoreModule:
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != 0x11 {
			return 0, fmt.Errorf("expected 0x11 after core module kind, got 0x%02x", b)
		}
		_, err = r.ReadU32()
		return kind, err
	case ExternFunc, ExternComponent, ExternInstance:
		_, err := r.ReadU32()
		return kind, err
	case ExternValue:
		bound, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if bound == 0x00 {
			_, err = r.ReadU32()
		} else {
			err = r.SkipLEB128()
		}
		return kind, err
	case ExternType:
		bound, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch bound {
		case 0x00:
			_, err = r.ReadU32()
			return kind, err
		case 0x01:
			return kind, nil
		default:
			return 0, fmt.Errorf("unknown type bound 0x%02x", bound)
		}
	}
	return 0, fmt.Errorf("unknown extern kind 0x%02x", kind)
}
