// Package dummy is a decoder that accepts and discards everything. Useful
// for headless sessions and as the decoder stand-in in tests.
package dummy

import (
	"context"

	"github.com/google/uuid"

	"mirrorctl/decoder"
)

const Kind = "dummy"

type Factory struct{}

func (Factory) Kind() string { return Kind }

func (Factory) NewSurface() (decoder.Surface, error) {
	return surface{id: uuid.NewString()}, nil
}

func (Factory) NewDecoder(_ decoder.Surface) (decoder.Decoder, error) {
	return &Decoder{}, nil
}

type surface struct {
	id string
}

func (s surface) Identity() string { return s.id }

type Decoder struct {
	Configured int
	Decoded    int
	Disposed   bool
}

func (d *Decoder) Configure(context.Context, decoder.Geometry) error {
	d.Configured++
	return nil
}

func (d *Decoder) Decode(context.Context, []byte) error {
	d.Decoded++
	return nil
}

func (d *Decoder) Dispose() {
	d.Disposed = true
}
