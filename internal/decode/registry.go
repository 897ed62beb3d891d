package decode

import (
	"github.com/akspa0/go-wdt/internal/chunk"
)

// Decoded is implemented by every typed decode result.
type Decoded interface {
	// DecodedTag returns the canonical tag of the chunk the value was
	// decoded from.
	DecodedTag() chunk.Tag
}

// Func parses a chunk payload into a typed value. A Func must not panic on
// malformed input; it returns an error and the caller records the chunk as
// errored while continuing with its siblings.
type Func func(data []byte) (Decoded, error)

// Registry maps (canonical tag, variant) to a decode function.
// Variant-specific entries shadow common ones. Adding support for a new
// chunk type means registering a function here; the reader, normalizer
// and detector are untouched.
type Registry struct {
	common  map[chunk.Tag]Func
	variant map[Variant]map[chunk.Tag]Func
}

// NewRegistry returns a registry with all built-in decoders registered.
func NewRegistry() *Registry {
	r := &Registry{
		common: make(map[chunk.Tag]Func),
		variant: map[Variant]map[chunk.Tag]Func{
			VariantAlpha:  make(map[chunk.Tag]Func),
			VariantRetail: make(map[chunk.Tag]Func),
		},
	}
	r.registerBuiltins()
	return r
}

// Register installs fn for tag. A variant of VariantUnknown registers the
// common entry used by every variant without its own override.
func (r *Registry) Register(v Variant, tag chunk.Tag, fn Func) {
	if v == VariantUnknown {
		r.common[tag] = fn
		return
	}
	r.variant[v][tag] = fn
}

// Lookup returns the decode function for tag under v, preferring a
// variant-specific entry over the common one.
func (r *Registry) Lookup(tag chunk.Tag, v Variant) (Func, bool) {
	if m, ok := r.variant[v]; ok {
		if fn, ok := m[tag]; ok {
			return fn, true
		}
	}
	fn, ok := r.common[tag]
	return fn, ok
}

// Decode dispatches c to the decoder registered for its canonical tag
// under v. The second result is false when no decoder is registered; the
// caller keeps such chunks verbatim as unhandled.
func (r *Registry) Decode(c chunk.Chunk, v Variant) (Decoded, bool, error) {
	fn, ok := r.Lookup(c.Tag, v)
	if !ok {
		return nil, false, nil
	}
	d, err := fn(c.Data)
	return d, true, err
}

func (r *Registry) registerBuiltins() {
	// Identical in both variants.
	r.Register(VariantUnknown, chunk.TagMVER, decodeVersion)
	r.Register(VariantUnknown, chunk.TagMPHD, decodeMapHeader)
	r.Register(VariantUnknown, chunk.TagMHDR, decodeTileHeader)
	r.Register(VariantUnknown, chunk.TagMCIN, decodeChunkIndex)
	r.Register(VariantUnknown, chunk.TagMTEX, nameBlockDecoder(chunk.TagMTEX))

	// Retail: indexed name tables, flags-only tile index.
	r.Register(VariantRetail, chunk.TagMMDX, nameBlockDecoder(chunk.TagMMDX))
	r.Register(VariantRetail, chunk.TagMWMO, nameBlockDecoder(chunk.TagMWMO))
	r.Register(VariantRetail, chunk.TagMMID, offsetIndexDecoder(chunk.TagMMID))
	r.Register(VariantRetail, chunk.TagMWID, offsetIndexDecoder(chunk.TagMWID))
	r.Register(VariantRetail, chunk.TagMAIN, decodeTileIndexRetail)
	r.Register(VariantRetail, chunk.TagMDDF, doodadDecoder(false))
	r.Register(VariantRetail, chunk.TagMODF, objectDecoder(false))
	r.Register(VariantRetail, chunk.TagMCNK, mapChunkDecoder(VariantRetail))

	// Alpha: direct name tables, tile index with embedded offsets, and
	// the swapped placement axis convention.
	r.Register(VariantAlpha, chunk.TagMDNM, nameBlockDecoder(chunk.TagMDNM))
	r.Register(VariantAlpha, chunk.TagMONM, nameBlockDecoder(chunk.TagMONM))
	r.Register(VariantAlpha, chunk.TagMAOF, offsetIndexDecoder(chunk.TagMAOF))
	r.Register(VariantAlpha, chunk.TagMAIN, decodeTileIndexAlpha)
	r.Register(VariantAlpha, chunk.TagMDDF, doodadDecoder(true))
	r.Register(VariantAlpha, chunk.TagMODF, objectDecoder(true))
	r.Register(VariantAlpha, chunk.TagMCNK, mapChunkDecoder(VariantAlpha))
}
