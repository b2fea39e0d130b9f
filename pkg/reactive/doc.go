// Package reactive provides the change-detecting model graph for vbind.
//
// A model is a tree of Objects (ordered keyed records), Arrays (observable
// sequences) and plain scalar values. Every read and write goes through
// explicit accessors:
//
//	root := reactive.ObjectFrom(map[string]any{"title": "a", "items": []any{"x", "y"}})
//	obs := reactive.NewObserver(func(c reactive.Change) { ... }, nil)
//	obs.Observe(root)
//
//	root.Set("title", "b")                     // Change{Path: "title", Op: OpSet, New: "b", Old: "a"}
//	root.Get("items").(*reactive.Array).Push("z") // Change{Path: "items", Op: OpPush}
//
// # Access Paths
//
// Every observed location has an access path: the property names and indices
// from the root joined with Delimiter ("items*0*text").
//
// # Dependency Tracking
//
// Reads made while a recorder is installed with Observer.Track are reported
// as Deps. Binding evaluation uses this to discover which paths an
// expression depends on.
//
// # Thread Safety
//
// A model graph is single-writer. Mutations dispatch synchronously on the
// calling goroutine; callers must not mutate one graph concurrently.
package reactive
