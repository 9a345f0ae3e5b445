// Package engine implements the update and expand workflows: packing
// top-level directories into encrypted bundles and restoring them. It owns
// the ordering guarantees between key handling, bundle I/O, ignore-state
// regeneration, and the version-control hand-off.
package engine
