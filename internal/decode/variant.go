package decode

import "errors"

// Variant identifies one of the two supported container layouts.
type Variant int

const (
	VariantUnknown Variant = iota
	VariantAlpha
	VariantRetail
)

func (v Variant) String() string {
	switch v {
	case VariantAlpha:
		return "alpha"
	case VariantRetail:
		return "retail"
	default:
		return "unknown"
	}
}

// Errors shared by the decoders.
var (
	// ErrUnknownFormat is returned by Detect when no discriminating
	// chunk appears within the detection window.
	ErrUnknownFormat = errors.New("unknown container format: no discriminating chunk found")

	// ErrMalformedRecordLength is returned when a fixed-size record
	// chunk's payload length is not a multiple of the record size.
	ErrMalformedRecordLength = errors.New("payload length is not a multiple of the record size")

	// ErrPayloadTooShort is returned when a payload is smaller than its
	// mandatory fixed prefix.
	ErrPayloadTooShort = errors.New("payload too short")
)
