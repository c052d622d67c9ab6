// Package artifact names test binaries and persists pipeline outputs.
//
// Every write replaces the target atomically, so an interrupted or failed
// stage leaves the previous artifact intact.
package artifact
