package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the size of a chunk header: 4 tag bytes + 4 length bytes.
const HeaderSize = 8

// ErrTruncated is returned when a chunk header declares a payload length
// that exceeds the remaining buffer.
var ErrTruncated = errors.New("chunk truncated: declared size exceeds remaining buffer")

// Chunk is one tokenized chunk. Data aliases the source buffer; no payload
// copy is made.
type Chunk struct {
	Tag      Tag    // canonical (forward) tag
	RawTag   Tag    // tag as stored on disk
	Reversed bool   // raw tag was byte-reversed
	Size     uint32 // declared payload length
	Data     []byte // payload span into the source buffer
	Offset   uint32 // buffer offset of the chunk header
}

// AppendTo re-emits the chunk verbatim: raw tag, little-endian length, and
// the original payload bytes. The result is bit-exact with the source span.
func (c Chunk) AppendTo(dst []byte) []byte {
	dst = append(dst, c.RawTag[:]...)
	dst = binary.LittleEndian.AppendUint32(dst, c.Size)
	return append(dst, c.Data...)
}

// Append frames payload under tag and appends it to dst. Used to build
// chunk streams in tests and by callers that re-emit opaque chunks.
func Append(dst []byte, tag Tag, payload []byte) []byte {
	dst = append(dst, tag[:]...)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}

// Reader tokenizes a byte buffer into chunks. The sequence is lazy and
// finite: Next returns io.EOF when fewer than HeaderSize bytes remain, and
// ErrTruncated (then io.EOF) when a declared size would read past the end
// of the buffer. A fresh Reader over the same buffer restarts the sequence.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// NewReaderAt returns a reader positioned at offset within buf.
func NewReaderAt(buf []byte, offset int) *Reader {
	return &Reader{buf: buf, pos: offset}
}

// Pos returns the current buffer offset.
func (r *Reader) Pos() int {
	return r.pos
}

// Next returns the next chunk in the stream. The returned chunk's payload
// aliases the reader's buffer.
func (r *Reader) Next() (Chunk, error) {
	if r.pos < 0 || r.pos > len(r.buf)-HeaderSize {
		return Chunk{}, io.EOF
	}
	var raw Tag
	copy(raw[:], r.buf[r.pos:r.pos+4])
	size := binary.LittleEndian.Uint32(r.buf[r.pos+4 : r.pos+8])

	start := r.pos + HeaderSize
	if uint64(size) > uint64(len(r.buf)-start) {
		// Do not advance: the stream ends here.
		err := fmt.Errorf("chunk %q at offset %d: %w", raw.String(), r.pos, ErrTruncated)
		r.pos = len(r.buf)
		return Chunk{}, err
	}

	canonical, reversed := Normalize(raw)
	c := Chunk{
		Tag:      canonical,
		RawTag:   raw,
		Reversed: reversed,
		Size:     size,
		Data:     r.buf[start : start+int(size)],
		Offset:   uint32(r.pos),
	}
	r.pos = start + int(size)
	return c, nil
}
