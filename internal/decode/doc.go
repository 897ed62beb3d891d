// Package decode classifies container format variants and parses chunk
// payloads into typed values.
//
// # Variants
//
// Two historically incompatible layouts exist for the same logical files:
//
//   - VariantAlpha: the legacy monolithic world definition. Name tables
//     are direct string lists (MDNM, MONM), the tile index (MAIN) carries
//     embedded tile offsets, and placement records reference name tables
//     by plain index.
//   - VariantRetail: the modern layout. Name blocks (MMDX, MWMO) are
//     paired with offset arrays (MMID, MWID), the tile index carries
//     flags only, and tiles live in standalone containers.
//
// Detect inspects the leading chunks of a buffer and classifies it by the
// name-table tags it finds.
//
// # Dispatch
//
// A Registry maps (canonical tag, variant) to a decode function.
// Variant-specific entries shadow common ones, so the alpha layout of a
// chunk is registered once as an override rather than special-cased inside
// every decoder. Tags with no registered decoder are reported as
// unhandled; their raw bytes are preserved by the caller.
//
// Decoders never fail the stream: a malformed payload yields an error for
// that chunk only, and the caller continues with its siblings.
package decode
