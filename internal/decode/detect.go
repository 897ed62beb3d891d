package decode

import (
	"github.com/akspa0/go-wdt/internal/chunk"
)

// DetectWindow bounds how many leading chunks Detect inspects before
// giving up. Real files discriminate within the first handful of chunks;
// the window is generous to tolerate junk prefixes.
const DetectWindow = 64

// Detect classifies a container buffer by scanning its leading chunks for
// a format-discriminating name-table tag. Legacy direct name tables (MDNM,
// MONM) classify the buffer as alpha; indexed name tables (MMDX, MMID,
// MWMO, MWID) classify it as retail. Standalone tile containers carry
// neither, so a tile offset table or terrain sub-chunk (MCIN, MCNK) with
// no legacy tag in sight also classifies as retail: only the retail era
// stores tiles outside the world definition.
//
// Detection is chunk-driven, not extension-driven; the same function
// serves world definitions and tiles since both use the same framing.
func Detect(buf []byte) (Variant, error) {
	var sawTerrain bool

	r := chunk.NewReader(buf)
	for i := 0; i < DetectWindow; i++ {
		c, err := r.Next()
		if err != nil {
			// Clean end or truncation: classify on what was seen.
			break
		}
		switch c.Tag {
		case chunk.TagMDNM, chunk.TagMONM:
			return VariantAlpha, nil
		case chunk.TagMMDX, chunk.TagMMID, chunk.TagMWMO, chunk.TagMWID:
			return VariantRetail, nil
		case chunk.TagMCIN, chunk.TagMCNK:
			sawTerrain = true
		}
	}
	if sawTerrain {
		return VariantRetail, nil
	}
	return VariantUnknown, ErrUnknownFormat
}
