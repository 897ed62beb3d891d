package wdt

import (
	"errors"
	"fmt"

	"github.com/akspa0/go-wdt/internal/chunk"
	"github.com/akspa0/go-wdt/internal/decode"
)

// Options configures a single-container parse.
type Options struct {
	// Format bypasses detection when the caller already knows the
	// variant; FormatUnknown selects automatic detection.
	Format FormatVariant

	// Corpus, when non-nil, is the validated-filename set used to mark
	// asset references absent from it.
	Corpus *Corpus

	// Name is the logical map name recorded on the container; the
	// aggregator groups unique IDs by it.
	Name string

	// FileID identifies the container within a batch.
	FileID int
}

// Parse decodes one container buffer into a ParsedContainer.
//
// Chunk-level anomalies (truncation, malformed records, out-of-range
// indices) degrade the affected entities and are recorded in the result's
// Warnings; they never fail the parse. Only an empty buffer or a buffer
// whose format cannot be classified returns an error.
func Parse(buf []byte, opts Options) (*ParsedContainer, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyBuffer
	}

	variant := opts.Format
	if variant == FormatUnknown {
		v, err := decode.Detect(buf)
		if err != nil {
			return nil, fmt.Errorf("classifying container: %w", err)
		}
		variant = variantOf(v)
	}

	b := &builder{
		variant:  variant,
		opts:     opts,
		registry: decode.NewRegistry(),
		pc: &ParsedContainer{
			Name:      opts.Name,
			FileID:    opts.FileID,
			File:      ContainerFile{Variant: variant},
			UniqueIDs: make(map[int64]struct{}),
		},
	}
	b.build(buf)
	return b.pc, nil
}

// locatedMapChunk pairs a decoded terrain sub-chunk with its buffer
// offset for warning context.
type locatedMapChunk struct {
	mc     decode.MapChunk
	offset uint32
}

// tileChunks collects the chunks that assemble into one terrain tile.
type tileChunks struct {
	textures  NameTable
	index     *decode.ChunkIndex
	mapChunks []locatedMapChunk
}

// streamState accumulates the typed results of one chunk-stream scan.
type streamState struct {
	version   *decode.Version
	mapHeader *decode.MapHeader
	tileIndex *decode.TileIndex
	names     map[chunk.Tag]decode.NameBlock
	offsets   map[chunk.Tag]decode.OffsetIndex
	doodads   []decode.DoodadEntry
	objects   []decode.ObjectEntry
	tile      tileChunks
}

type builder struct {
	variant  FormatVariant
	opts     Options
	registry *decode.Registry
	pc       *ParsedContainer
}

// scanStream walks the chunk stream in buf[start:end), dispatching every
// chunk through the registry. Top-level scans (record=true) additionally
// append a ChunkRecord per chunk to the container file.
func (b *builder) scanStream(buf []byte, start, end int, record bool) *streamState {
	st := &streamState{
		names:   make(map[chunk.Tag]decode.NameBlock),
		offsets: make(map[chunk.Tag]decode.OffsetIndex),
	}

	r := chunk.NewReaderAt(buf[:end], start)
	for {
		c, err := r.Next()
		if err != nil {
			if errors.Is(err, chunk.ErrTruncated) {
				b.pc.warn(Warning{
					Code: WarnTruncatedChunk, Offset: uint32(r.Pos()),
					Message: err.Error(),
				})
			}
			return st
		}

		rec := ChunkRecord{
			Tag:      c.Tag.String(),
			RawTag:   c.RawTag.String(),
			Reversed: c.Reversed,
			Size:     c.Size,
			Offset:   c.Offset,
		}

		switch {
		case c.Size == 0:
			rec.Status = StatusEmpty
		default:
			d, ok, err := b.registry.Decode(c, b.variant.internal())
			switch {
			case !ok:
				rec.Status = StatusUnhandled
				rec.Raw = c.Data
			case err != nil:
				rec.Status = StatusError
				rec.Error = err.Error()
				rec.Raw = c.Data
				b.pc.warn(Warning{
					Code: WarnDecodeError, Tag: c.Tag.String(), Offset: c.Offset,
					Message: err.Error(),
				})
			default:
				rec.Status = StatusDecoded
				st.absorb(d, c.Offset)
			}
		}

		if record {
			b.pc.File.Chunks = append(b.pc.File.Chunks, rec)
		}
	}
}

// absorb files one decoded chunk into the stream state.
func (st *streamState) absorb(d decode.Decoded, offset uint32) {
	switch v := d.(type) {
	case decode.Version:
		st.version = &v
	case decode.MapHeader:
		st.mapHeader = &v
	case decode.TileIndex:
		st.tileIndex = &v
	case decode.NameBlock:
		st.names[v.DecodedTag()] = v
		if v.DecodedTag() == chunk.TagMTEX {
			st.tile.textures = NameTable(v.Names)
		}
	case decode.OffsetIndex:
		st.offsets[v.DecodedTag()] = v
	case decode.DoodadPlacements:
		st.doodads = append(st.doodads, v.Entries...)
	case decode.ObjectPlacements:
		st.objects = append(st.objects, v.Entries...)
	case decode.ChunkIndex:
		st.tile.index = &v
	case decode.MapChunk:
		st.tile.mapChunks = append(st.tile.mapChunks, locatedMapChunk{mc: v, offset: offset})
	}
}

// build runs the full decode-and-resolve pass over the container.
func (b *builder) build(buf []byte) {
	st := b.scanStream(buf, 0, len(buf), true)
	pc := b.pc

	if st.version != nil {
		pc.Version = st.version.Value
	}
	if st.mapHeader != nil {
		pc.MapFlags = st.mapHeader.Flags
	}

	// Name tables. Each asset kind has its own table; the tags differ
	// by variant.
	modelTag, objectTag := chunk.TagMMDX, chunk.TagMWMO
	if b.variant == FormatAlpha {
		modelTag, objectTag = chunk.TagMDNM, chunk.TagMONM
	}
	pc.TextureNames = NameTable(st.names[chunk.TagMTEX].Names)
	pc.ModelNames = NameTable(st.names[modelTag].Names)
	pc.ObjectNames = NameTable(st.names[objectTag].Names)

	// Resolve index arrays into per-kind reference lists, then resolve
	// placements through those lists (never the raw name tables).
	modelRefs := b.resolveIndexArray(st, modelTag, chunk.TagMMID, KindModel)
	objectRefs := b.resolveIndexArray(st, objectTag, chunk.TagMWID, KindWorldObject)

	for _, e := range st.doodads {
		pc.Doodads = append(pc.Doodads, PlacementRecord{
			Asset:    b.refAt(modelRefs, int(e.NameID), KindModel),
			UniqueID: int64(e.UniqueID),
			Position: e.Position,
			Rotation: e.Rotation,
			Scale:    e.Scale,
			Flags:    uint32(e.Flags),
		})
		b.collectID(int64(e.UniqueID))
	}
	for _, e := range st.objects {
		pc.Objects = append(pc.Objects, ObjectPlacement{
			PlacementRecord: PlacementRecord{
				Asset:    b.refAt(objectRefs, int(e.NameID), KindWorldObject),
				UniqueID: int64(e.UniqueID),
				Position: e.Position,
				Rotation: e.Rotation,
				Scale:    e.Scale,
				Flags:    uint32(e.Flags),
			},
			ExtentsMin: e.ExtentsMin,
			ExtentsMax: e.ExtentsMax,
			DoodadSet:  e.DoodadSet,
			NameSet:    e.NameSet,
		})
		b.collectID(int64(e.UniqueID))
	}

	if st.tileIndex != nil {
		pc.TileMap = &TileMap{}
		for i, e := range st.tileIndex.Entries {
			if e.HasData {
				pc.TileMap.Present[i/TileGridDim][i%TileGridDim] = true
			}
		}
	}

	b.buildTiles(buf, st)
}

// buildTiles materializes terrain tiles. Alpha worlds embed tile data in
// the same buffer, addressed by the tile index; retail stores at most one
// tile per container (a standalone ADT), whose grid position is not
// recorded in the buffer.
func (b *builder) buildTiles(buf []byte, st *streamState) {
	if b.variant == FormatAlpha {
		if st.tileIndex == nil {
			if len(st.tile.mapChunks) > 0 {
				b.pc.warn(Warning{
					Code: WarnMissingChunk, Tag: chunk.TagMAIN.String(),
					Message: "tile index absent in a world definition with terrain data",
				})
			}
			return
		}
		for i, e := range st.tileIndex.Entries {
			if !e.HasData {
				continue
			}
			x, y := i%TileGridDim, i/TileGridDim
			start, end := int64(e.Offset), int64(e.Offset)+int64(e.Size)
			if start >= int64(len(buf)) || end > int64(len(buf)) {
				b.pc.warn(Warning{
					Code: WarnBadTileSpan, Tag: chunk.TagMAIN.String(), Offset: e.Offset,
					Message: fmt.Sprintf("tile (%d, %d) span exceeds the buffer", x, y),
				})
				continue
			}
			ts := b.scanStream(buf, int(start), int(end), false)
			b.pc.Tiles = append(b.pc.Tiles, b.assembleTile(buf[:end], int(start), x, y, &ts.tile))
		}
		return
	}

	if st.tile.index != nil || len(st.tile.mapChunks) > 0 {
		b.pc.Tiles = append(b.pc.Tiles, b.assembleTile(buf, 0, -1, -1, &st.tile))
	}
}

// resolveIndexArray resolves one kind's index array against its name
// block. The retail layout addresses the block by byte offset through a
// separate index chunk; the alpha layout references names directly, so
// its resolved array is the identity over the table.
func (b *builder) resolveIndexArray(st *streamState, blockTag, indexTag chunk.Tag, kind AssetKind) []AssetReference {
	block, hasBlock := st.names[blockTag]

	if b.variant == FormatAlpha {
		refs := make([]AssetReference, 0, len(block.Names))
		for _, name := range block.Names {
			refs = append(refs, b.newRef(name, kind, Valid))
		}
		return refs
	}

	index, hasIndex := st.offsets[indexTag]
	if !hasIndex {
		return nil
	}
	refs := make([]AssetReference, len(index.Entries))
	for i, off := range index.Entries {
		name, ok := block.ByOffset(off)
		if !ok || !hasBlock {
			b.pc.warn(Warning{
				Code: WarnOutOfRangeIndex, Tag: indexTag.String(),
				Message: fmt.Sprintf("entry %d: offset %d does not address a %s name", i, off, kind),
			})
			refs[i] = AssetReference{Kind: kind, Validity: OutOfRange}
			continue
		}
		refs[i] = b.newRef(name, kind, Valid)
	}
	return refs
}

// refAt returns the resolved reference at index i, or an out-of-range
// reference when i does not address the resolved array. The anomaly is
// recorded; the placement itself is kept.
func (b *builder) refAt(refs []AssetReference, i int, kind AssetKind) AssetReference {
	if i < 0 || i >= len(refs) {
		b.pc.warn(Warning{
			Code:    WarnOutOfRangeIndex,
			Message: fmt.Sprintf("placement references %s entry %d of %d", kind, i, len(refs)),
		})
		return AssetReference{Kind: kind, Validity: OutOfRange}
	}
	return refs[i]
}

// resolveByIndex resolves a direct name-table index (texture layers).
func (b *builder) resolveByIndex(table NameTable, i int, kind AssetKind) AssetReference {
	name, ok := table.Lookup(i)
	if !ok {
		b.pc.warn(Warning{
			Code:    WarnOutOfRangeIndex,
			Message: fmt.Sprintf("layer references %s entry %d of %d", kind, i, len(table)),
		})
		return AssetReference{Kind: kind, Validity: OutOfRange}
	}
	return b.newRef(name, kind, Valid)
}

// newRef builds an asset reference, applying the corpus check as an
// independent validity axis: only references that resolved cleanly can be
// downgraded to NotInCorpus.
func (b *builder) newRef(name string, kind AssetKind, v Validity) AssetReference {
	ref := AssetReference{
		OriginalPath:   name,
		NormalizedPath: NormalizePath(name),
		Kind:           kind,
		Validity:       v,
	}
	if v == Valid && b.opts.Corpus != nil && !b.opts.Corpus.Contains(ref.NormalizedPath) {
		ref.Validity = NotInCorpus
	}
	return ref
}

// collectID records a placement unique ID. Values <= 0 are the
// unassigned sentinel in both variants and are excluded.
func (b *builder) collectID(id int64) {
	if id > 0 {
		b.pc.UniqueIDs[id] = struct{}{}
	}
}
