// Package textutil provides small text helpers shared by the engine:
// sanitizing names for safe use as SQL identifiers and shard file names.
package textutil
