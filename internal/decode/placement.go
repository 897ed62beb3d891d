package decode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/akspa0/go-wdt/internal/chunk"
)

// DoodadEntry is one decoded MDDF record: a doodad (model) instance
// positioned in world space.
type DoodadEntry struct {
	NameID   uint32
	UniqueID uint32
	Position [3]float32
	Rotation [3]float32
	Scale    float32
	Flags    uint16
}

// DoodadPlacements is the decoded MDDF chunk.
type DoodadPlacements struct {
	Entries []DoodadEntry
}

func (DoodadPlacements) DecodedTag() chunk.Tag { return chunk.TagMDDF }

// ObjectEntry is one decoded MODF record: a map object (building)
// instance with its bounding extents.
type ObjectEntry struct {
	NameID     uint32
	UniqueID   uint32
	Position   [3]float32
	Rotation   [3]float32
	ExtentsMin [3]float32
	ExtentsMax [3]float32
	Flags      uint16
	DoodadSet  uint16
	NameSet    uint16
	Scale      float32
}

// ObjectPlacements is the decoded MODF chunk.
type ObjectPlacements struct {
	Entries []ObjectEntry
}

func (ObjectPlacements) DecodedTag() chunk.Tag { return chunk.TagMODF }

const (
	doodadRecordSize = 36
	objectRecordSize = 64

	// Placement scale is stored as a 1/1024 fixed-point value.
	scaleDivisor = 1024.0
)

func readVec3(data []byte) [3]float32 {
	return [3]float32{
		math.Float32frombits(binary.LittleEndian.Uint32(data)),
		math.Float32frombits(binary.LittleEndian.Uint32(data[4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(data[8:])),
	}
}

// The alpha variant stores the vertical axis in the middle vector slot;
// swapping it into the last slot normalizes both variants to the same
// convention. Applied to positions only: whether rotation needs the same
// treatment is unconfirmed, so rotations are kept as stored.
func swapVertical(v [3]float32) [3]float32 {
	return [3]float32{v[0], v[2], v[1]}
}

// doodadDecoder returns the MDDF decode function. swapAxes selects the
// alpha coordinate convention.
func doodadDecoder(swapAxes bool) Func {
	return func(data []byte) (Decoded, error) {
		if len(data)%doodadRecordSize != 0 {
			return nil, fmt.Errorf("MDDF: %w: %d %% %d", ErrMalformedRecordLength, len(data), doodadRecordSize)
		}
		p := DoodadPlacements{Entries: make([]DoodadEntry, len(data)/doodadRecordSize)}
		for i := range p.Entries {
			rec := data[i*doodadRecordSize:]
			e := DoodadEntry{
				NameID:   binary.LittleEndian.Uint32(rec),
				UniqueID: binary.LittleEndian.Uint32(rec[4:]),
				Position: readVec3(rec[8:]),
				Rotation: readVec3(rec[20:]),
				Scale:    float32(binary.LittleEndian.Uint16(rec[32:])) / scaleDivisor,
				Flags:    binary.LittleEndian.Uint16(rec[34:]),
			}
			if swapAxes {
				e.Position = swapVertical(e.Position)
			}
			p.Entries[i] = e
		}
		return p, nil
	}
}

// objectDecoder returns the MODF decode function.
func objectDecoder(swapAxes bool) Func {
	return func(data []byte) (Decoded, error) {
		if len(data)%objectRecordSize != 0 {
			return nil, fmt.Errorf("MODF: %w: %d %% %d", ErrMalformedRecordLength, len(data), objectRecordSize)
		}
		p := ObjectPlacements{Entries: make([]ObjectEntry, len(data)/objectRecordSize)}
		for i := range p.Entries {
			rec := data[i*objectRecordSize:]
			e := ObjectEntry{
				NameID:     binary.LittleEndian.Uint32(rec),
				UniqueID:   binary.LittleEndian.Uint32(rec[4:]),
				Position:   readVec3(rec[8:]),
				Rotation:   readVec3(rec[20:]),
				ExtentsMin: readVec3(rec[32:]),
				ExtentsMax: readVec3(rec[44:]),
				Flags:      binary.LittleEndian.Uint16(rec[56:]),
				DoodadSet:  binary.LittleEndian.Uint16(rec[58:]),
				NameSet:    binary.LittleEndian.Uint16(rec[60:]),
				Scale:      float32(binary.LittleEndian.Uint16(rec[62:])) / scaleDivisor,
			}
			if swapAxes {
				e.Position = swapVertical(e.Position)
				e.ExtentsMin = swapVertical(e.ExtentsMin)
				e.ExtentsMax = swapVertical(e.ExtentsMax)
			}
			p.Entries[i] = e
		}
		return p, nil
	}
}
