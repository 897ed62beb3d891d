package decode

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/akspa0/go-wdt/internal/chunk"
)

// buildMCNK assembles a retail-style MCNK payload: 128-byte header plus
// embedded MCVT/MCNR/MCLY/MCAL sub-chunks with their own headers, header
// offsets measured from the payload start.
func buildMCNK(t *testing.T, ix, iy uint32, holes uint16, layers []LayerEntry, alpha []byte) []byte {
	t.Helper()

	header := make([]byte, mcnkHeaderSize)
	binary.LittleEndian.PutUint32(header[4:], ix)
	binary.LittleEndian.PutUint32(header[8:], iy)
	binary.LittleEndian.PutUint32(header[12:], uint32(len(layers)))
	binary.LittleEndian.PutUint32(header[mcnkAreaID:], 440)
	binary.LittleEndian.PutUint16(header[mcnkHoles:], holes)
	binary.LittleEndian.PutUint32(header[mcnkPosition:], math.Float32bits(17.5))

	// Sub-chunks assemble into a separate section so that offset writes
	// into the header cannot be lost to slice reallocation.
	var section []byte
	mark := func(field int) {
		binary.LittleEndian.PutUint32(header[field:], uint32(mcnkHeaderSize+len(section)))
	}

	heights := make([]byte, mcvtSize)
	binary.LittleEndian.PutUint32(heights[0:], math.Float32bits(1.25))
	binary.LittleEndian.PutUint32(heights[(HeightSamples-1)*4:], math.Float32bits(-4.5))
	mark(mcnkOfsHeight)
	section = chunk.Append(section, chunk.TagMCVT, heights)

	normals := make([]byte, mcnrSize+13)
	normals[0] = 0x7F
	mark(mcnkOfsNormal)
	section = chunk.Append(section, chunk.TagMCNR, normals)

	if len(layers) > 0 {
		lay := make([]byte, len(layers)*layerSize)
		for i, l := range layers {
			rec := lay[i*layerSize:]
			binary.LittleEndian.PutUint32(rec, l.TextureID)
			binary.LittleEndian.PutUint32(rec[4:], l.Flags)
			binary.LittleEndian.PutUint32(rec[8:], l.AlphaOffset)
			binary.LittleEndian.PutUint32(rec[12:], l.EffectID)
		}
		mark(mcnkOfsLayer)
		section = chunk.Append(section, chunk.TagMCLY, lay)
	}
	if len(alpha) > 0 {
		mark(mcnkOfsAlpha)
		binary.LittleEndian.PutUint32(header[mcnkSizeAlpha:], uint32(len(alpha)))
		section = chunk.Append(section, chunk.TagMCAL, alpha)
	}
	return append(header, section...)
}

func TestDecodeMapChunk(t *testing.T) {
	layers := []LayerEntry{
		{TextureID: 0, EffectID: 3},
		{TextureID: 2, Flags: LayerFlagUseAlpha, AlphaOffset: 0},
	}
	alpha := make([]byte, 2048)
	alpha[5] = 0xAA
	payload := buildMCNK(t, 7, 3, 0x0012, layers, alpha)

	d, err := mapChunkDecoder(VariantRetail)(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	mc := d.(MapChunk)

	if mc.IndexX != 7 || mc.IndexY != 3 {
		t.Errorf("grid coords = (%d, %d), want (7, 3)", mc.IndexX, mc.IndexY)
	}
	if mc.AreaID != 440 {
		t.Errorf("area id = %d, want 440", mc.AreaID)
	}
	if mc.Holes != 0x0012 {
		t.Errorf("holes = %#x, want 0x0012 stored verbatim", mc.Holes)
	}
	if mc.Position[0] != 17.5 {
		t.Errorf("position[0] = %v, want 17.5", mc.Position[0])
	}

	if len(mc.Heights) != HeightSamples {
		t.Fatalf("heights = %d samples, want %d", len(mc.Heights), HeightSamples)
	}
	if mc.Heights[0] != 1.25 || mc.Heights[HeightSamples-1] != -4.5 {
		t.Errorf("heights[0]=%v heights[last]=%v, want 1.25 and -4.5", mc.Heights[0], mc.Heights[HeightSamples-1])
	}
	if len(mc.Normals) != HeightSamples || mc.Normals[0][0] != 0x7F {
		t.Errorf("normals[0] = %v", mc.Normals[0])
	}

	if len(mc.Layers) != 2 {
		t.Fatalf("layers = %d, want 2", len(mc.Layers))
	}
	if mc.Layers[0].Alpha != nil {
		t.Error("base layer has an alpha map, want none by convention")
	}
	if len(mc.Layers[1].Alpha) != 2048 || mc.Layers[1].Alpha[5] != 0xAA {
		t.Errorf("layer 1 alpha = %d bytes", len(mc.Layers[1].Alpha))
	}
}

func TestDecodeMapChunkHeaderlessSubChunks(t *testing.T) {
	// Alpha-era writers pack MCVT data right after the header with no
	// embedded sub-chunk headers and a zero height offset.
	payload := make([]byte, mcnkHeaderSize+mcvtSize+mcnrSize)
	binary.LittleEndian.PutUint32(payload[4:], 2)
	binary.LittleEndian.PutUint32(payload[8:], 9)
	binary.LittleEndian.PutUint32(payload[mcnkHeaderSize:], math.Float32bits(8.0))

	d, err := mapChunkDecoder(VariantAlpha)(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	mc := d.(MapChunk)
	if len(mc.Heights) != HeightSamples || mc.Heights[0] != 8.0 {
		t.Fatalf("heights[0] = %v (%d samples), want sequential fallback decode", mc.Heights, len(mc.Heights))
	}
	if len(mc.Normals) != HeightSamples {
		t.Errorf("normals = %d samples, want %d", len(mc.Normals), HeightSamples)
	}
}

func TestDecodeMapChunkTooShort(t *testing.T) {
	if _, err := mapChunkDecoder(VariantRetail)(make([]byte, 64)); err == nil {
		t.Error("decode of 64-byte MCNK succeeded, want error")
	}
}

func TestDecodeMapChunkBogusOffsets(t *testing.T) {
	// Offsets past the payload end degrade to absent sections, never an
	// out-of-bounds read.
	payload := make([]byte, mcnkHeaderSize)
	binary.LittleEndian.PutUint32(payload[mcnkOfsHeight:], 1<<30)
	binary.LittleEndian.PutUint32(payload[mcnkOfsShadow:], uint32(mcnkHeaderSize+100))

	d, err := mapChunkDecoder(VariantRetail)(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	mc := d.(MapChunk)
	if mc.Heights != nil || mc.Shadow != nil {
		t.Errorf("sections = (%v, %v), want absent", mc.Heights, mc.Shadow)
	}
}

func TestDecodeChunkIndex(t *testing.T) {
	data := make([]byte, 256*16)
	binary.LittleEndian.PutUint32(data[16:], 0x2000) // entry 1 offset
	binary.LittleEndian.PutUint32(data[20:], 0x800)  // entry 1 size

	d, err := decodeChunkIndex(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	idx := d.(ChunkIndex)
	if len(idx.Entries) != 256 {
		t.Fatalf("entries = %d, want 256", len(idx.Entries))
	}
	if idx.Entries[1].Offset != 0x2000 || idx.Entries[1].Size != 0x800 {
		t.Errorf("entry 1 = %+v", idx.Entries[1])
	}
}
