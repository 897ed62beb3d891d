package decode

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/charmap"

	"github.com/akspa0/go-wdt/internal/chunk"
)

// NameBlock is a decoded name-table chunk: a block of null-terminated
// asset paths. Offsets[i] is the byte offset of Names[i] within the
// payload, which is how the retail offset arrays (MMID, MWID) address it.
type NameBlock struct {
	tag     chunk.Tag
	Names   []string
	Offsets []uint32
}

func (b NameBlock) DecodedTag() chunk.Tag { return b.tag }

// ByOffset returns the name starting at the given payload offset.
func (b NameBlock) ByOffset(offset uint32) (string, bool) {
	for i, o := range b.Offsets {
		if o == offset {
			return b.Names[i], true
		}
	}
	return "", false
}

// Legacy clients wrote asset paths in the Windows-1252 code page, not
// UTF-8. Decoding through the code page keeps odd bytes printable instead
// of producing replacement runes.
var pathDecoder = charmap.Windows1252

func decodePathBytes(raw []byte) string {
	s, err := pathDecoder.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(s)
}

// nameBlockDecoder returns the decode function for a string-table chunk.
// The payload splits strictly on 0x00; a terminal run without a trailing
// terminator is accepted as a final string.
func nameBlockDecoder(tag chunk.Tag) Func {
	return func(data []byte) (Decoded, error) {
		b := NameBlock{tag: tag}
		start := 0
		for i := 0; i < len(data); i++ {
			if data[i] != 0 {
				continue
			}
			if i > start {
				b.Names = append(b.Names, decodePathBytes(data[start:i]))
				b.Offsets = append(b.Offsets, uint32(start))
			}
			start = i + 1
		}
		if start < len(data) {
			b.Names = append(b.Names, decodePathBytes(data[start:]))
			b.Offsets = append(b.Offsets, uint32(start))
		}
		return b, nil
	}
}

// OffsetIndex is a decoded index-array chunk: uint32 entries addressing a
// name block (MMID, MWID) or, for the legacy area table (MAOF), offsets
// into the container buffer.
type OffsetIndex struct {
	tag     chunk.Tag
	Entries []uint32
}

func (x OffsetIndex) DecodedTag() chunk.Tag { return x.tag }

func offsetIndexDecoder(tag chunk.Tag) Func {
	return func(data []byte) (Decoded, error) {
		const recordSize = 4
		if len(data)%recordSize != 0 {
			return nil, fmt.Errorf("%s: %w: %d %% %d", tag, ErrMalformedRecordLength, len(data), recordSize)
		}
		x := OffsetIndex{tag: tag, Entries: make([]uint32, len(data)/recordSize)}
		for i := range x.Entries {
			x.Entries[i] = binary.LittleEndian.Uint32(data[i*recordSize:])
		}
		return x, nil
	}
}
