package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/akspa0/go-wdt/internal/chunk"
)

// TileGridDim is the edge length of the logical tile grid; a world holds
// up to TileGridDim*TileGridDim tiles.
const TileGridDim = 64

// Version is the decoded MVER chunk.
type Version struct {
	Value uint32
}

func (Version) DecodedTag() chunk.Tag { return chunk.TagMVER }

func decodeVersion(data []byte) (Decoded, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("MVER: %w: %d bytes", ErrPayloadTooShort, len(data))
	}
	return Version{Value: binary.LittleEndian.Uint32(data)}, nil
}

// MapHeader is the decoded MPHD chunk. Only the flags word has a stable
// meaning across variants; the remainder is preserved raw.
type MapHeader struct {
	Flags uint32
	Rest  []byte
}

func (MapHeader) DecodedTag() chunk.Tag { return chunk.TagMPHD }

// WMO-only worlds carry no terrain tiles.
const MapHeaderFlagWMOOnly = 0x1

func decodeMapHeader(data []byte) (Decoded, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("MPHD: %w: %d bytes", ErrPayloadTooShort, len(data))
	}
	return MapHeader{
		Flags: binary.LittleEndian.Uint32(data),
		Rest:  data[4:],
	}, nil
}

// TileHeader is the decoded MHDR chunk: a block of offsets to the other
// top-level chunks of a tile. The offsets are informational here; the
// builder locates chunks by scanning the stream, not by trusting MHDR.
type TileHeader struct {
	Flags   uint32
	Offsets [8]uint32
}

func (TileHeader) DecodedTag() chunk.Tag { return chunk.TagMHDR }

func decodeTileHeader(data []byte) (Decoded, error) {
	if len(data) < 36 {
		return nil, fmt.Errorf("MHDR: %w: %d bytes", ErrPayloadTooShort, len(data))
	}
	h := TileHeader{Flags: binary.LittleEndian.Uint32(data)}
	for i := range h.Offsets {
		h.Offsets[i] = binary.LittleEndian.Uint32(data[4+i*4:])
	}
	return h, nil
}

// TileEntry is one cell of the MAIN tile index.
type TileEntry struct {
	HasData bool
	Flags   uint32
	AsyncID uint32 // retail only
	Offset  uint32 // alpha only: embedded tile data offset in the buffer
	Size    uint32 // alpha only: embedded tile data length
}

// TileIndex is the decoded MAIN chunk: the 64x64 tile grid in row-major
// order.
type TileIndex struct {
	Entries []TileEntry
}

func (TileIndex) DecodedTag() chunk.Tag { return chunk.TagMAIN }

// Entry returns the cell at grid coordinates (x, y), or a zero entry when
// the index was short.
func (t TileIndex) Entry(x, y int) TileEntry {
	i := y*TileGridDim + x
	if i < 0 || i >= len(t.Entries) {
		return TileEntry{}
	}
	return t.Entries[i]
}

// Retail layout: 8 bytes per entry (flags, asyncID). Bit 0 of flags marks
// a tile with data.
func decodeTileIndexRetail(data []byte) (Decoded, error) {
	const recordSize = 8
	if len(data)%recordSize != 0 {
		return nil, fmt.Errorf("MAIN: %w: %d %% %d", ErrMalformedRecordLength, len(data), recordSize)
	}
	n := len(data) / recordSize
	if n > TileGridDim*TileGridDim {
		n = TileGridDim * TileGridDim
	}
	idx := TileIndex{Entries: make([]TileEntry, n)}
	for i := 0; i < n; i++ {
		flags := binary.LittleEndian.Uint32(data[i*recordSize:])
		idx.Entries[i] = TileEntry{
			HasData: flags&0x1 != 0,
			Flags:   flags,
			AsyncID: binary.LittleEndian.Uint32(data[i*recordSize+4:]),
		}
	}
	return idx, nil
}

// Alpha layout: 16 bytes per entry (offset, size, flags, pad). A non-zero
// offset marks a tile whose data is embedded in the same buffer.
func decodeTileIndexAlpha(data []byte) (Decoded, error) {
	const recordSize = 16
	if len(data)%recordSize != 0 {
		return nil, fmt.Errorf("MAIN: %w: %d %% %d", ErrMalformedRecordLength, len(data), recordSize)
	}
	n := len(data) / recordSize
	if n > TileGridDim*TileGridDim {
		n = TileGridDim * TileGridDim
	}
	idx := TileIndex{Entries: make([]TileEntry, n)}
	for i := 0; i < n; i++ {
		rec := data[i*recordSize:]
		offset := binary.LittleEndian.Uint32(rec)
		size := binary.LittleEndian.Uint32(rec[4:])
		idx.Entries[i] = TileEntry{
			HasData: offset != 0 && size != 0,
			Offset:  offset,
			Size:    size,
			Flags:   binary.LittleEndian.Uint32(rec[8:]),
		}
	}
	return idx, nil
}
