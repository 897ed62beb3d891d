package wdt

import (
	"github.com/akspa0/go-wdt/internal/chunk"
	"github.com/akspa0/go-wdt/internal/decode"
)

// SubGridDim is the edge length of a tile's sub-chunk grid.
const SubGridDim = decode.SubGridDim

// TileGridDim is the edge length of the world's tile grid.
const TileGridDim = decode.TileGridDim

// TextureLayer is one texture layer of a sub-chunk. Layers are ordered;
// the first is the base layer and carries no alpha map by convention.
type TextureLayer struct {
	Asset    AssetReference
	EffectID uint32
	Flags    uint32
	Alpha    []byte // raw alpha-map blob; nil on the base layer
}

// SubChunk is one cell of a tile's 16x16 grid, holding the raw terrain
// arrays. Holes is kept verbatim: bit (y*4+x) disables a 2x2 group of
// height quads, and hole-aware triangulation is left to consumers.
type SubChunk struct {
	AreaID     uint32
	Flags      uint32
	Holes      uint16
	Position   [3]float32
	Heights    []float32 // 145 samples (9x9 + 8x8), nil when absent
	Normals    [][3]int8 // 145 packed normals, nil when absent
	Layers     []TextureLayer
	Shadow     []byte
	VertexTint []byte
	Liquid     []byte
}

// TerrainTile is one materialized cell of the world's 64x64 tile grid.
// X and Y are -1 for a standalone tile container, whose grid position is
// not recorded in the buffer itself.
type TerrainTile struct {
	X, Y      int
	SubChunks [SubGridDim][SubGridDim]*SubChunk
	Textures  NameTable
}

// SubChunkCount returns the number of populated cells.
func (t *TerrainTile) SubChunkCount() int {
	n := 0
	for y := range t.SubChunks {
		for x := range t.SubChunks[y] {
			if t.SubChunks[y][x] != nil {
				n++
			}
		}
	}
	return n
}

// assembleTile builds a TerrainTile from one tile's decoded chunks,
// placing each sub-chunk by the grid coordinates declared in its header,
// never by iteration order.
//
// When an offsets table (MCIN) was decoded, it is the primary locator:
// each entry addresses one sub-chunk's stream independently, since
// sub-chunks need not be contiguous or in raster order. Entry offsets are
// tried both absolutely within the buffer and relative to the tile span,
// covering both conventions found in the wild. Without an offsets table
// the sequentially scanned sub-chunks are used and the absence is
// reported as a warning.
func (b *builder) assembleTile(buf []byte, spanStart int, x, y int, tb *tileChunks) *TerrainTile {
	tile := &TerrainTile{X: x, Y: y, Textures: tb.textures}

	place := func(mc decode.MapChunk, offset uint32) {
		if mc.IndexX >= SubGridDim || mc.IndexY >= SubGridDim {
			b.pc.warn(Warning{
				Code: WarnBadGridCoords, Tag: chunk.TagMCNK.String(), Offset: offset,
				Message: "declared grid coordinates outside the 16x16 grid",
			})
			return
		}
		if tile.SubChunks[mc.IndexY][mc.IndexX] != nil {
			b.pc.warn(Warning{
				Code: WarnBadGridCoords, Tag: chunk.TagMCNK.String(), Offset: offset,
				Message: "duplicate declared grid coordinates",
			})
			return
		}
		tile.SubChunks[mc.IndexY][mc.IndexX] = b.buildSubChunk(mc, tb.textures)
	}

	if tb.index != nil {
		for _, entry := range tb.index.Entries {
			if entry.Offset == 0 || entry.Size == 0 {
				continue
			}
			mc, at, ok := b.subChunkAt(buf, spanStart, entry)
			if !ok {
				b.pc.warn(Warning{
					Code: WarnBadTileSpan, Tag: chunk.TagMCIN.String(), Offset: entry.Offset,
					Message: "offsets-table entry does not address a terrain sub-chunk",
				})
				continue
			}
			place(mc, at)
		}
		return tile
	}

	if len(tb.mapChunks) > 0 {
		b.pc.warn(Warning{
			Code: WarnMissingChunk, Tag: chunk.TagMCIN.String(),
			Message: "sub-chunk offsets table absent; falling back to stream order",
		})
	}
	for _, sc := range tb.mapChunks {
		place(sc.mc, sc.offset)
	}
	return tile
}

// subChunkAt reads and decodes the sub-chunk addressed by one offsets
// table entry. The offset is tried as an absolute buffer position first,
// then relative to the tile span.
func (b *builder) subChunkAt(buf []byte, spanStart int, entry decode.McinEntry) (decode.MapChunk, uint32, bool) {
	for _, at := range []int64{int64(entry.Offset), int64(spanStart) + int64(entry.Offset)} {
		if at < int64(spanStart) || at >= int64(len(buf)) {
			continue
		}
		c, err := chunk.NewReaderAt(buf, int(at)).Next()
		if err != nil || c.Tag != chunk.TagMCNK {
			continue
		}
		d, ok, err := b.registry.Decode(c, b.variant.internal())
		if !ok || err != nil {
			continue
		}
		if mc, isMC := d.(decode.MapChunk); isMC {
			return mc, uint32(at), true
		}
	}
	return decode.MapChunk{}, 0, false
}

// buildSubChunk converts a decoded terrain chunk into the model form,
// resolving each texture layer against the tile's texture table.
func (b *builder) buildSubChunk(mc decode.MapChunk, textures NameTable) *SubChunk {
	sc := &SubChunk{
		AreaID:     mc.AreaID,
		Flags:      mc.Flags,
		Holes:      mc.Holes,
		Position:   mc.Position,
		Heights:    mc.Heights,
		Normals:    mc.Normals,
		Shadow:     mc.Shadow,
		VertexTint: mc.VertexTint,
		Liquid:     mc.Liquid,
	}
	for _, l := range mc.Layers {
		ref := b.resolveByIndex(textures, int(l.TextureID), KindTexture)
		sc.Layers = append(sc.Layers, TextureLayer{
			Asset:    ref,
			EffectID: l.EffectID,
			Flags:    l.Flags,
			Alpha:    l.Alpha,
		})
	}
	return sc
}
