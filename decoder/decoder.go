// Package decoder defines the pixel-decoder contract the session controller
// drives, and the binding that serializes configure/decode per instance.
package decoder

import "context"

// Geometry describes one stream configuration: the cropped frame size and
// the codec configuration payload (SPS/PPS) that precedes frames of that
// size.
type Geometry struct {
	Width     uint32
	Height    uint32
	CodecData []byte
}

// Surface is a rendering destination. A surface's rendering-context type is
// fixed for its lifetime: once a decoder implementation has drawn into it,
// only decoders of the same kind may reuse it.
type Surface interface {
	Identity() string
}

// Decoder decodes frames of one codec onto one surface. Configure must
// complete before Decode is called for frames of the new geometry; the
// binding enforces the serialization.
type Decoder interface {
	Configure(ctx context.Context, geo Geometry) error
	Decode(ctx context.Context, payload []byte) error
	Dispose()
}

// Factory produces decoders of one kind together with surfaces carrying the
// matching rendering-context type.
type Factory interface {
	Kind() string
	NewSurface() (Surface, error)
	NewDecoder(surface Surface) (Decoder, error)
}
