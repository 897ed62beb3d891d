package wdt

import (
	"encoding/binary"
	"math"
	"testing"
)

// alphaWorld builds a world-definition buffer in the alpha layout: one
// terrain tile at grid (12, 40), embedded in the same buffer and
// addressed by the tile index.
func alphaWorld(t *testing.T) []byte {
	t.Helper()

	var buf []byte
	buf = ck(buf, "MVER", u32s(18))
	buf = ck(buf, "MPHD", make([]byte, 32))
	buf = ck(buf, "MDNM", []byte("alpha\\tree.mdx\x00"))
	buf = ck(buf, "MONM", nil)
	buf = ck(buf, "MAIN", make([]byte, TileGridDim*TileGridDim*16))
	mainPayload := len(buf) - TileGridDim*TileGridDim*16

	// One sequential-layout sub-chunk: header, then heights and normals
	// packed without embedded headers.
	mcnk := make([]byte, 128+145*4+145*3)
	binary.LittleEndian.PutUint32(mcnk[52:], 7) // area
	binary.LittleEndian.PutUint32(mcnk[128:], math.Float32bits(5.5))

	var span []byte
	span = ck(span, "MCNK", mcnk)
	span = ck(span, "MDDF", doodadRecord(0, 300, [3]float32{1, 3, 2}))

	tileStart := len(buf)
	entry := buf[mainPayload+(40*TileGridDim+12)*16:]
	binary.LittleEndian.PutUint32(entry, uint32(tileStart))
	binary.LittleEndian.PutUint32(entry[4:], uint32(len(span)))

	return append(buf, span...)
}

func TestParseAlphaWorld(t *testing.T) {
	pc, err := Parse(alphaWorld(t), Options{Name: "AlphaMap"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pc.File.Variant != FormatAlpha {
		t.Fatalf("variant = %v, want alpha", pc.File.Variant)
	}

	if pc.TileMap == nil || pc.TileMap.Count() != 1 {
		t.Fatalf("tile map = %+v, want one present tile", pc.TileMap)
	}
	if !pc.TileMap.Present[40][12] {
		t.Error("tile (12, 40) not marked present")
	}

	if len(pc.Tiles) != 1 {
		t.Fatalf("tiles = %d, want 1", len(pc.Tiles))
	}
	tile := pc.Tiles[0]
	if tile.X != 12 || tile.Y != 40 {
		t.Errorf("tile coords = (%d, %d), want (12, 40)", tile.X, tile.Y)
	}
	sc := tile.SubChunks[0][0]
	if sc == nil {
		t.Fatal("sub-chunk (0,0) missing")
	}
	if sc.AreaID != 7 {
		t.Errorf("area = %d, want 7", sc.AreaID)
	}
	if len(sc.Heights) != 145 || sc.Heights[0] != 5.5 {
		t.Errorf("heights = %d samples, first %v", len(sc.Heights), sc.Heights)
	}
	if len(sc.Normals) != 145 {
		t.Errorf("normals = %d samples, want 145", len(sc.Normals))
	}

	// The tile's placements surface at the container level, resolved
	// against the direct name table.
	if len(pc.Doodads) != 1 {
		t.Fatalf("doodads = %d, want 1", len(pc.Doodads))
	}
	d := pc.Doodads[0]
	if d.Asset.NormalizedPath != "alpha/tree.mdx" || d.Asset.Validity != Valid {
		t.Errorf("doodad asset = %+v", d.Asset)
	}
	if d.UniqueID != 300 || d.Position != [3]float32{1, 2, 3} {
		t.Errorf("doodad = %+v", d)
	}
}

func TestParseAlphaBadTileSpan(t *testing.T) {
	buf := alphaWorld(t)
	// Point a second tile entry past the end of the buffer.
	var mainPayload int
	for i := 0; i+8 <= len(buf); {
		tag := string(buf[i : i+4])
		size := int(binary.LittleEndian.Uint32(buf[i+4 : i+8]))
		if tag == "MAIN" {
			mainPayload = i + 8
			break
		}
		i += 8 + size
	}
	if mainPayload == 0 {
		t.Fatal("fixture has no tile index")
	}
	entry := buf[mainPayload+(3*TileGridDim+3)*16:]
	binary.LittleEndian.PutUint32(entry, uint32(len(buf)+4096))
	binary.LittleEndian.PutUint32(entry[4:], 64)

	pc, err := Parse(buf, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !hasWarning(pc.Warnings, WarnBadTileSpan) {
		t.Error("no bad-tile-span warning recorded")
	}
	// The valid tile still materializes.
	if len(pc.Tiles) != 1 {
		t.Errorf("tiles = %d, want 1", len(pc.Tiles))
	}
	if pc.TileMap.Count() != 2 {
		t.Errorf("tile map count = %d, want 2", pc.TileMap.Count())
	}
}
