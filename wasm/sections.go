package wasm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	wbin "github.com/wippyai/componentize-go/internal/binary"
)

var (
	// ErrInvalidMagic means the input does not start with "\0asm".
	ErrInvalidMagic = errors.New("invalid magic number")
	// ErrInvalidVersion means an unknown version/layer after the magic.
	ErrInvalidVersion = errors.New("unsupported version")
)

// Section is one top-level section of a module or component.
type Section struct {
	// Payload aliases the input buffer.
	Payload []byte
	// Offset is the position of the section id byte in the input.
	Offset int
	ID     byte
}

// CustomSection holds a decoded custom section.
type CustomSection struct {
	Name string
	Data []byte
}

// IsBinary reports whether data starts with the wasm magic number.
func IsBinary(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], Magic)
}

// IsCoreModule reports whether data has a core module preamble.
func IsCoreModule(data []byte) bool {
	return len(data) >= 8 && IsBinary(data) &&
		binary.LittleEndian.Uint32(data[4:8]) == ModuleVersion
}

// IsComponent reports whether data has a component preamble.
func IsComponent(data []byte) bool {
	if len(data) < 8 || !IsBinary(data) {
		return false
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	return version > 1
}

// Sections walks the top-level sections of a module or component without
// decoding their payloads.
func Sections(data []byte) ([]Section, error) {
	r := wbin.NewReader(data)

	magic, err := r.ReadBytes(4)
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if !bytes.Equal(magic, Magic) {
		return nil, ErrInvalidMagic
	}
	version, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if version != ModuleVersion && version != ComponentVersion {
		return nil, fmt.Errorf("%w: 0x%08x", ErrInvalidVersion, version)
	}

	var sections []Section
	for r.Len() > 0 {
		offset := r.Position()
		id, err := r.ReadByte()
		if err != nil {
			return nil, r.WrapError("section header", err)
		}
		size, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("section size", err)
		}
		payload, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, r.WrapError(fmt.Sprintf("section %d data", id), err)
		}
		sections = append(sections, Section{ID: id, Offset: offset, Payload: payload})
	}
	return sections, nil
}

// DecodeCustomSection splits a custom section payload into name and data.
func DecodeCustomSection(payload []byte) (CustomSection, error) {
	r := wbin.NewReader(payload)
	name, err := r.ReadName()
	if err != nil {
		return CustomSection{}, r.WrapError("custom section name", err)
	}
	data, _ := r.ReadBytes(r.Len())
	return CustomSection{Name: name, Data: data}, nil
}

// CustomSections returns every custom section in data, in order.
func CustomSections(data []byte) ([]CustomSection, error) {
	sections, err := Sections(data)
	if err != nil {
		return nil, err
	}
	var out []CustomSection
	for _, s := range sections {
		if s.ID != SectionCustom {
			continue
		}
		cs, err := DecodeCustomSection(s.Payload)
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, nil
}

// EncodeCustomSection returns the full section bytes (id, size, payload).
func EncodeCustomSection(name string, data []byte) []byte {
	payloadLen := wbin.SizeU32(uint32(len(name))) + len(name) + len(data)
	w := wbin.NewWriterSize(1 + wbin.SizeU32(uint32(payloadLen)) + payloadLen)
	w.Byte(SectionCustom)
	w.WriteU32(uint32(payloadLen))
	w.WriteName(name)
	w.WriteBytes(data)
	return w.Bytes()
}

// AppendCustomSection returns a new buffer holding module followed by a
// custom section. The input is validated first and never modified.
func AppendCustomSection(module []byte, name string, data []byte) ([]byte, error) {
	if _, err := Sections(module); err != nil {
		return nil, err
	}
	section := EncodeCustomSection(name, data)
	out := make([]byte, 0, len(module)+len(section))
	out = append(out, module...)
	return append(out, section...), nil
}
