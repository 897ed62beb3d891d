package wdt

import (
	"encoding/binary"

	"github.com/akspa0/go-wdt/internal/decode"
)

// FormatVariant identifies one of the two supported container layouts.
type FormatVariant int

const (
	// FormatUnknown selects automatic detection when used as an
	// Options override.
	FormatUnknown FormatVariant = iota
	// FormatAlpha is the legacy monolithic layout with direct name
	// tables and embedded tile data.
	FormatAlpha
	// FormatRetail is the modern layout with indexed name tables and
	// standalone tile containers.
	FormatRetail
)

func (f FormatVariant) String() string {
	switch f {
	case FormatAlpha:
		return "alpha"
	case FormatRetail:
		return "retail"
	default:
		return "unknown"
	}
}

func (f FormatVariant) internal() decode.Variant {
	switch f {
	case FormatAlpha:
		return decode.VariantAlpha
	case FormatRetail:
		return decode.VariantRetail
	default:
		return decode.VariantUnknown
	}
}

func variantOf(v decode.Variant) FormatVariant {
	switch v {
	case decode.VariantAlpha:
		return FormatAlpha
	case decode.VariantRetail:
		return FormatRetail
	default:
		return FormatUnknown
	}
}

// DecodeStatus records what happened to one chunk during the decode pass.
type DecodeStatus int

const (
	StatusDecoded DecodeStatus = iota
	StatusEmpty
	StatusError
	StatusUnhandled
)

func (s DecodeStatus) String() string {
	switch s {
	case StatusDecoded:
		return "decoded"
	case StatusEmpty:
		return "empty"
	case StatusError:
		return "error"
	case StatusUnhandled:
		return "unhandled"
	default:
		return "unknown"
	}
}

// ChunkRecord is one chunk as read from a container. Records with status
// StatusError or StatusUnhandled retain the original payload so they can
// be re-emitted byte-exact.
type ChunkRecord struct {
	Tag      string // canonical tag
	RawTag   string // tag as stored on disk
	Reversed bool
	Size     uint32
	Offset   uint32
	Status   DecodeStatus
	Error    string // decode failure reason when Status == StatusError
	Raw      []byte // original payload for Error/Unhandled chunks
}

// Encode re-emits the chunk's original framing: raw tag, little-endian
// length, payload. Byte-exact with the source for chunks that retain
// their payload.
func (c ChunkRecord) Encode() []byte {
	out := make([]byte, 0, 8+len(c.Raw))
	out = append(out, c.RawTag...)
	out = binary.LittleEndian.AppendUint32(out, c.Size)
	return append(out, c.Raw...)
}

// ContainerFile is the chunk-level view of one input buffer: every chunk
// in stream order plus the detected format variant. Read-only after the
// decode pass.
type ContainerFile struct {
	Variant FormatVariant
	Chunks  []ChunkRecord
}

// AssetKind classifies what an asset path refers to.
type AssetKind int

const (
	KindTexture AssetKind = iota
	KindModel
	KindWorldObject
)

func (k AssetKind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindModel:
		return "model"
	case KindWorldObject:
		return "worldobject"
	default:
		return "unknown"
	}
}

// Validity is the resolution state of an asset reference. OutOfRange and
// NotInCorpus are independent axes: corpus checking never overrides an
// OutOfRange determination.
type Validity int

const (
	Valid Validity = iota
	OutOfRange
	NotInCorpus
)

func (v Validity) String() string {
	switch v {
	case Valid:
		return "valid"
	case OutOfRange:
		return "out-of-range"
	case NotInCorpus:
		return "not-in-corpus"
	default:
		return "unknown"
	}
}

// AssetReference is a resolved name-table reference. Shared by value:
// many placement records may carry equal references without aliasing.
type AssetReference struct {
	OriginalPath   string
	NormalizedPath string
	Kind           AssetKind
	Validity       Validity
}

// NameTable is an ordered list of asset paths extracted from a names
// chunk. Indices are stable and referenced by placement records.
type NameTable []string

// Lookup returns the name at index i and whether i is in range.
func (t NameTable) Lookup(i int) (string, bool) {
	if i < 0 || i >= len(t) {
		return "", false
	}
	return t[i], true
}

// PlacementRecord is one instance of a referenced asset positioned in
// world space. UniqueID is not guaranteed unique within a file;
// duplicates are tolerated and values <= 0 are the unassigned sentinel.
type PlacementRecord struct {
	Asset    AssetReference
	UniqueID int64
	Position [3]float32
	Rotation [3]float32
	Scale    float32
	Flags    uint32
}

// ObjectPlacement is a map-object placement: a PlacementRecord extended
// with the bounding extents and set selectors only objects carry.
type ObjectPlacement struct {
	PlacementRecord
	ExtentsMin [3]float32
	ExtentsMax [3]float32
	DoodadSet  uint16
	NameSet    uint16
}

// TileMap is the 64x64 presence grid decoded from the tile index chunk.
type TileMap struct {
	Present [decode.TileGridDim][decode.TileGridDim]bool
}

// Count returns the number of present tiles.
func (m *TileMap) Count() int {
	n := 0
	for y := range m.Present {
		for x := range m.Present[y] {
			if m.Present[y][x] {
				n++
			}
		}
	}
	return n
}

// ParsedContainer is the resolved model of one container file.
type ParsedContainer struct {
	Name    string
	FileID  int
	File    ContainerFile
	Version uint32

	MapFlags uint32
	TileMap  *TileMap // nil when the container has no tile index

	TextureNames NameTable
	ModelNames   NameTable
	ObjectNames  NameTable

	Doodads []PlacementRecord
	Objects []ObjectPlacement

	Tiles []*TerrainTile

	// UniqueIDs holds every positive placement unique ID seen in the
	// container.
	UniqueIDs map[int64]struct{}

	Warnings []Warning
}

func (p *ParsedContainer) warn(w Warning) {
	p.Warnings = append(p.Warnings, w)
}
