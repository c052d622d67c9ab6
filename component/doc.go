// Package component encodes wasip1 core modules as WebAssembly components
// and inspects the result.
//
// Encoding is delegated to a Backend (wasm-tools by default). Before handing
// a module over, the Encoder can validate it with wazero and check that the
// wasi_snapshot_preview1 adapter satisfies its imports, which turns opaque
// encoder failures into a list of missing functions.
//
// Inspect decodes only the top level of a component: imports, exports and
// custom sections. That is enough to confirm the encoder produced a
// component and to recover the WIT packages it references:
//
//	info, err := component.Inspect(data)
//	if err != nil {
//		return err
//	}
//	fmt.Println(info.Packages()) // [wasi:cli wasi:io ...]
package component
