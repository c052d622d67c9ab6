// Package wasm provides section-level access to WebAssembly binaries.
//
// It never decodes function bodies: the pipeline only needs to recognise
// modules and components, list core imports and exports, read custom
// sections, and append new ones. All functions take the binary as a byte
// slice and return fresh buffers, so callers can treat a module as an owned
// value passed between stages.
//
// Walk sections and read custom sections:
//
//	sections, err := wasm.Sections(data)
//	customs, err := wasm.CustomSections(data)
//
// Attach metadata without touching the rest of the module:
//
//	out, err := wasm.AppendCustomSection(module, "component-type:app", payload)
//
// Text input is accepted by Parse when an Assembler is supplied; binary
// input is returned unchanged after a structural check.
package wasm
