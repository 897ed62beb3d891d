// Package chunk implements the low-level chunk framing shared by world
// definition (WDT) and terrain tile (ADT) containers: a 4-byte ASCII tag,
// a little-endian uint32 payload length, and that many payload bytes,
// concatenated with no padding.
//
// Tags appear on disk in either forward or byte-reversed orientation
// depending on the tool that wrote the file. Normalize maps both
// orientations onto the canonical forward form.
package chunk

// Tag is a 4-character chunk identifier.
type Tag [4]byte

// MakeTag builds a Tag from a 4-character string.
func MakeTag(s string) Tag {
	var t Tag
	copy(t[:], s)
	return t
}

// String returns the tag as a 4-character string.
func (t Tag) String() string {
	return string(t[:])
}

// Reversed returns the tag with its bytes in the opposite order.
func (t Tag) Reversed() Tag {
	return Tag{t[3], t[2], t[1], t[0]}
}

// Canonical tags for the chunk types that appear in world definition and
// terrain tile containers.
var (
	TagMVER = MakeTag("MVER") // container version
	TagMPHD = MakeTag("MPHD") // map header
	TagMAIN = MakeTag("MAIN") // 64x64 tile index
	TagMDNM = MakeTag("MDNM") // doodad name table (legacy)
	TagMONM = MakeTag("MONM") // map object name table (legacy)
	TagMAOF = MakeTag("MAOF") // map area offset table (legacy)
	TagMMDX = MakeTag("MMDX") // doodad name block
	TagMMID = MakeTag("MMID") // doodad name offsets
	TagMWMO = MakeTag("MWMO") // map object name block
	TagMWID = MakeTag("MWID") // map object name offsets
	TagMTEX = MakeTag("MTEX") // texture name table
	TagMDDF = MakeTag("MDDF") // doodad placements
	TagMODF = MakeTag("MODF") // map object placements
	TagMHDR = MakeTag("MHDR") // tile header
	TagMCIN = MakeTag("MCIN") // sub-chunk offset table
	TagMCNK = MakeTag("MCNK") // terrain sub-chunk
	TagMCVT = MakeTag("MCVT") // height samples
	TagMCNR = MakeTag("MCNR") // normals
	TagMCLY = MakeTag("MCLY") // texture layers
	TagMCRF = MakeTag("MCRF") // placement references
	TagMCAL = MakeTag("MCAL") // alpha maps
	TagMCSH = MakeTag("MCSH") // shadow map
	TagMCLQ = MakeTag("MCLQ") // liquid data
	TagMCCV = MakeTag("MCCV") // vertex shading
	TagMCSE = MakeTag("MCSE") // sound emitters
	TagMH2O = MakeTag("MH2O") // liquid data (newer layout)
	TagMFBO = MakeTag("MFBO") // flight bounds
	TagMTXF = MakeTag("MTXF") // texture flags
)

var canonicalTags = []Tag{
	TagMVER, TagMPHD, TagMAIN, TagMDNM, TagMONM, TagMAOF,
	TagMMDX, TagMMID, TagMWMO, TagMWID, TagMTEX, TagMDDF,
	TagMODF, TagMHDR, TagMCIN, TagMCNK, TagMCVT, TagMCNR,
	TagMCLY, TagMCRF, TagMCAL, TagMCSH, TagMCLQ, TagMCCV,
	TagMCSE, TagMH2O, TagMFBO, TagMTXF,
}

// normalTable maps both orientations of every canonical tag to its forward
// form. Built once; Normalize is a single map lookup per call.
var normalTable = func() map[Tag]Tag {
	m := make(map[Tag]Tag, len(canonicalTags)*2)
	for _, t := range canonicalTags {
		m[t] = t
		m[t.Reversed()] = t
	}
	return m
}()

// Normalize maps a raw on-disk tag to its canonical forward form and
// reports whether the raw form was byte-reversed. Tags matching no known
// canonical tag in either orientation pass through unchanged.
func Normalize(raw Tag) (Tag, bool) {
	canonical, ok := normalTable[raw]
	if !ok {
		return raw, false
	}
	return canonical, canonical != raw
}
