// Package config loads componentize.yaml and layers command line overrides
// on top of it.
//
//	wit_paths: [wit, ../shared/wit]
//	world: app
//	features: [clocks-timezone]
//	go: /usr/local/go/bin/go
//	wasm_tools: /opt/bin/wasm-tools
//	log_level: debug
//
// Precedence is flag, then file, then environment, then built-in default.
package config
