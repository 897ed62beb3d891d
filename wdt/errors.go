package wdt

import (
	"errors"
	"fmt"

	"github.com/akspa0/go-wdt/internal/chunk"
	"github.com/akspa0/go-wdt/internal/decode"
)

// Sentinel errors. The chunk-level conditions (truncation, malformed
// record lengths, out-of-range indices) are recovered locally during a
// parse and surface as warnings; only ErrEmptyBuffer and ErrUnknownFormat
// fail a file outright.
var (
	ErrEmptyBuffer           = errors.New("empty buffer")
	ErrUnknownFormat         = decode.ErrUnknownFormat
	ErrTruncatedChunk        = chunk.ErrTruncated
	ErrMalformedRecordLength = decode.ErrMalformedRecordLength
	ErrOutOfRangeIndex       = errors.New("index beyond name table")
	ErrMissingExpectedChunk  = errors.New("expected chunk absent")
)

// WarningCode classifies a recovered decode anomaly.
type WarningCode int

const (
	WarnTruncatedChunk WarningCode = iota
	WarnDecodeError
	WarnOutOfRangeIndex
	WarnMissingChunk
	WarnBadTileSpan
	WarnBadGridCoords
)

func (c WarningCode) String() string {
	switch c {
	case WarnTruncatedChunk:
		return "truncated-chunk"
	case WarnDecodeError:
		return "decode-error"
	case WarnOutOfRangeIndex:
		return "out-of-range-index"
	case WarnMissingChunk:
		return "missing-chunk"
	case WarnBadTileSpan:
		return "bad-tile-span"
	case WarnBadGridCoords:
		return "bad-grid-coords"
	default:
		return "unknown"
	}
}

// Warning records one recovered anomaly: the affected entity was degraded
// to an explicit invalid or empty state and decoding continued.
type Warning struct {
	Code    WarningCode
	Tag     string // canonical tag of the affected chunk, if any
	Offset  uint32 // buffer offset of the affected chunk header
	Message string
}

func (w Warning) String() string {
	if w.Tag == "" {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s: %s at offset %d: %s", w.Code, w.Tag, w.Offset, w.Message)
}
