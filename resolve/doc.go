// Package resolve turns WIT sources into a single package graph and selects
// the world a module targets.
//
// Each source (a directory, a .wit file or a binary WIT package) is loaded
// on its own and merged in order. The last package a source yields is that
// source's main package; world selection only considers main packages
// unless the world is named fully qualified.
//
//	g, world, err := resolve.Resolve(ctx, resolve.Options{
//		Sources: []string{"wit", "extra.wit"},
//		World:   "app",
//		Loader:  resolve.ToolLoader{Tool: tool},
//	})
//
// A merged graph can be written back out with Stage for tools that consume
// WIT directories.
package resolve
