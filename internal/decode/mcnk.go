package decode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/akspa0/go-wdt/internal/chunk"
)

const (
	// SubGridDim is the edge length of a tile's sub-chunk grid.
	SubGridDim = 16

	// HeightSamples is the number of height (and normal) samples per
	// sub-chunk: a 9x9 outer grid interleaved with an 8x8 inner grid.
	HeightSamples = 145

	mcnkHeaderSize = 128
	mcvtSize       = HeightSamples * 4
	mcnrSize       = HeightSamples * 3 // plus 13 pad bytes on disk
	mccvSize       = HeightSamples * 4
	layerSize      = 16
)

// McinEntry locates one sub-chunk stream within a tile buffer.
type McinEntry struct {
	Offset  uint32
	Size    uint32
	Flags   uint32
	AsyncID uint32
}

// ChunkIndex is the decoded MCIN chunk: the per-tile sub-chunk offset
// table, one entry per cell of the 16x16 grid in raster order. The grid
// position recorded here is advisory; sub-chunks declare their own
// coordinates in their headers.
type ChunkIndex struct {
	Entries []McinEntry
}

func (ChunkIndex) DecodedTag() chunk.Tag { return chunk.TagMCIN }

func decodeChunkIndex(data []byte) (Decoded, error) {
	const recordSize = 16
	if len(data)%recordSize != 0 {
		return nil, fmt.Errorf("MCIN: %w: %d %% %d", ErrMalformedRecordLength, len(data), recordSize)
	}
	n := len(data) / recordSize
	if n > SubGridDim*SubGridDim {
		n = SubGridDim * SubGridDim
	}
	idx := ChunkIndex{Entries: make([]McinEntry, n)}
	for i := range idx.Entries {
		rec := data[i*recordSize:]
		idx.Entries[i] = McinEntry{
			Offset:  binary.LittleEndian.Uint32(rec),
			Size:    binary.LittleEndian.Uint32(rec[4:]),
			Flags:   binary.LittleEndian.Uint32(rec[8:]),
			AsyncID: binary.LittleEndian.Uint32(rec[12:]),
		}
	}
	return idx, nil
}

// LayerEntry is one texture layer of a sub-chunk. Alpha holds the layer's
// raw alpha-map blob; it is empty for the base layer, which carries no
// alpha map by convention.
type LayerEntry struct {
	TextureID   uint32
	Flags       uint32
	AlphaOffset uint32
	EffectID    uint32
	Alpha       []byte
}

// Layer flag: this layer has an alpha map in MCAL.
const LayerFlagUseAlpha = 0x100

// MapChunk is the decoded MCNK chunk: one terrain sub-chunk with its
// embedded height, normal, layer, shadow, shading and liquid data.
type MapChunk struct {
	Flags      uint32
	IndexX     uint32
	IndexY     uint32
	AreaID     uint32
	Holes      uint16
	Position   [3]float32 // as stored
	Heights    []float32  // HeightSamples entries, nil when absent
	Normals    [][3]int8  // HeightSamples entries, nil when absent
	Layers     []LayerEntry
	Shadow     []byte
	VertexTint []byte
	Liquid     []byte
}

func (MapChunk) DecodedTag() chunk.Tag { return chunk.TagMCNK }

// MCNK header field offsets (fixed per the v18 layout both eras derive
// from).
const (
	mcnkOfsHeight  = 20
	mcnkOfsNormal  = 24
	mcnkOfsLayer   = 28
	mcnkOfsAlpha   = 36
	mcnkSizeAlpha  = 40
	mcnkOfsShadow  = 44
	mcnkSizeShadow = 48
	mcnkAreaID     = 52
	mcnkHoles      = 60
	mcnkOfsLiquid  = 96
	mcnkSizeLiquid = 100
	mcnkPosition   = 104
	mcnkOfsTint    = 116
)

// subSpan locates a sub-chunk's payload within the MCNK payload. Declared
// offsets are inconsistent across writers: some measure from the payload
// start, some from the chunk header, and the alpha era omits the embedded
// sub-chunk headers entirely. The locator accepts all three shapes:
// an embedded header matching want at ofs or at ofs-8 wins and supplies
// the size; otherwise the span is read headerless at ofs with the fixed
// fallback size, clamped to the payload.
func subSpan(data []byte, ofs uint32, want chunk.Tag, fallback int) []byte {
	if ofs == 0 || int64(ofs) >= int64(len(data)) {
		return nil
	}
	for _, at := range []int64{int64(ofs), int64(ofs) - chunk.HeaderSize} {
		if at < 0 || at+chunk.HeaderSize > int64(len(data)) {
			continue
		}
		var raw chunk.Tag
		copy(raw[:], data[at:at+4])
		if canonical, _ := chunk.Normalize(raw); canonical != want {
			continue
		}
		size := int64(binary.LittleEndian.Uint32(data[at+4 : at+8]))
		start := at + chunk.HeaderSize
		if size > int64(len(data))-start {
			size = int64(len(data)) - start
		}
		return data[start : start+size]
	}
	end := int64(ofs) + int64(fallback)
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return data[ofs:end]
}

// mapChunkDecoder returns the MCNK decode function for a variant. The
// alpha layout packs sub-chunk data sequentially after the header without
// embedded headers; when the height offset field is zero the decoder
// falls back to that sequential convention.
func mapChunkDecoder(v Variant) Func {
	return func(data []byte) (Decoded, error) {
		if len(data) < mcnkHeaderSize {
			return nil, fmt.Errorf("MCNK: %w: %d bytes", ErrPayloadTooShort, len(data))
		}
		u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(data[off:]) }

		mc := MapChunk{
			Flags:  u32(0),
			IndexX: u32(4),
			IndexY: u32(8),
			AreaID: u32(mcnkAreaID),
			Holes:  binary.LittleEndian.Uint16(data[mcnkHoles:]),
		}
		for i := 0; i < 3; i++ {
			mc.Position[i] = math.Float32frombits(u32(mcnkPosition + i*4))
		}

		ofsHeight := u32(mcnkOfsHeight)
		ofsNormal := u32(mcnkOfsNormal)
		if v == VariantAlpha && ofsHeight == 0 && len(data) >= mcnkHeaderSize+mcvtSize {
			ofsHeight = mcnkHeaderSize
			if ofsNormal == 0 {
				ofsNormal = mcnkHeaderSize + mcvtSize
			}
		}

		if span := subSpan(data, ofsHeight, chunk.TagMCVT, mcvtSize); len(span) >= mcvtSize {
			mc.Heights = make([]float32, HeightSamples)
			for i := range mc.Heights {
				mc.Heights[i] = math.Float32frombits(binary.LittleEndian.Uint32(span[i*4:]))
			}
		}
		if span := subSpan(data, ofsNormal, chunk.TagMCNR, mcnrSize); len(span) >= mcnrSize {
			mc.Normals = make([][3]int8, HeightSamples)
			for i := range mc.Normals {
				mc.Normals[i] = [3]int8{int8(span[i*3]), int8(span[i*3+1]), int8(span[i*3+2])}
			}
		}

		nLayers := int(u32(12))
		if span := subSpan(data, u32(mcnkOfsLayer), chunk.TagMCLY, nLayers*layerSize); len(span) >= layerSize {
			mc.Layers = decodeLayers(span)
		}
		alpha := subSpan(data, u32(mcnkOfsAlpha), chunk.TagMCAL, int(u32(mcnkSizeAlpha)))
		attachAlphaMaps(mc.Layers, alpha)

		mc.Shadow = subSpan(data, u32(mcnkOfsShadow), chunk.TagMCSH, int(u32(mcnkSizeShadow)))
		mc.VertexTint = subSpan(data, u32(mcnkOfsTint), chunk.TagMCCV, mccvSize)
		mc.Liquid = subSpan(data, u32(mcnkOfsLiquid), chunk.TagMCLQ, int(u32(mcnkSizeLiquid)))
		return mc, nil
	}
}

func decodeLayers(span []byte) []LayerEntry {
	layers := make([]LayerEntry, 0, len(span)/layerSize)
	for i := 0; i+layerSize <= len(span); i += layerSize {
		rec := span[i:]
		layers = append(layers, LayerEntry{
			TextureID:   binary.LittleEndian.Uint32(rec),
			Flags:       binary.LittleEndian.Uint32(rec[4:]),
			AlphaOffset: binary.LittleEndian.Uint32(rec[8:]),
			EffectID:    binary.LittleEndian.Uint32(rec[12:]),
		})
	}
	return layers
}

// attachAlphaMaps slices the MCAL blob into per-layer alpha maps using
// each layer's declared offset. A layer's map runs to the next layer's
// offset, or to the end of the blob for the last alpha-bearing layer.
func attachAlphaMaps(layers []LayerEntry, alpha []byte) {
	if len(alpha) == 0 {
		return
	}
	// Offsets of alpha-bearing layers, in blob order (layers are stored
	// in ascending alpha offset order).
	for i := range layers {
		if layers[i].Flags&LayerFlagUseAlpha == 0 {
			continue
		}
		start := int64(layers[i].AlphaOffset)
		if start >= int64(len(alpha)) {
			continue
		}
		end := int64(len(alpha))
		for j := i + 1; j < len(layers); j++ {
			if layers[j].Flags&LayerFlagUseAlpha != 0 {
				if next := int64(layers[j].AlphaOffset); next > start && next < end {
					end = next
				}
				break
			}
		}
		layers[i].Alpha = alpha[start:end]
	}
}
