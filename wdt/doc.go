// Package wdt decodes chunk-tagged world definition (WDT) and terrain
// tile (ADT) containers into a structured, cross-referenced model.
//
// A container is a flat sequence of tagged, length-prefixed chunks. Two
// incompatible historical layouts exist; Parse detects which one a buffer
// uses (or honors an override), dispatches every chunk through a typed
// decoder registry, and resolves name tables, index arrays and placement
// records into a ParsedContainer. Chunks with no registered decoder are
// preserved verbatim and can be re-emitted byte-exact.
//
// Decoding is tolerant by design: malformed chunks degrade to explicit
// error or empty states recorded in the container's warning list, and
// never abort decoding of their siblings. Only a buffer whose format
// cannot be classified fails as a whole.
//
// RunBatch decodes many files on a bounded worker pool, and Aggregate
// reduces the completed containers into a report of unique-ID collisions
// and clusters.
//
//	pc, err := wdt.Parse(buf, wdt.Options{})
//	if err != nil { ... }
//	for _, w := range pc.Warnings { ... }
package wdt
