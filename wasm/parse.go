package wasm

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoAssembler is returned for text input when no Assembler is configured.
var ErrNoAssembler = errors.New("text format input requires an assembler")

// Assembler converts the WebAssembly text format to binary.
type Assembler interface {
	Assemble(ctx context.Context, text []byte) ([]byte, error)
}

// Parse accepts either representation and returns the binary form.
// Binary input is checked structurally and returned as is; anything else is
// treated as text and handed to asm.
func Parse(ctx context.Context, asm Assembler, data []byte) ([]byte, error) {
	if IsBinary(data) {
		if _, err := Sections(data); err != nil {
			return nil, err
		}
		return data, nil
	}
	if asm == nil {
		return nil, ErrNoAssembler
	}
	bin, err := asm.Assemble(ctx, data)
	if err != nil {
		return nil, err
	}
	if _, err := Sections(bin); err != nil {
		return nil, fmt.Errorf("assembled text: %w", err)
	}
	return bin, nil
}
