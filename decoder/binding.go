package decoder

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotConfigured = errors.New("decoder: decode before configure")
	ErrDisposed      = errors.New("decoder: binding disposed")
)

// Binding owns one live decoder bound to one surface. Callers must not
// overlap Reconfigure and Decode calls; the session controller drives a
// binding from its single event loop, so calls arrive serialized already.
// Dispose is safe from any goroutine and at any point, including before the
// first frame.
type Binding struct {
	mu         sync.Mutex
	dec        Decoder
	configured bool
	disposed   bool
}

// Bind constructs a decoder from the factory onto the surface.
func Bind(factory Factory, surface Surface) (*Binding, error) {
	dec, err := factory.NewDecoder(surface)
	if err != nil {
		return nil, err
	}
	return &Binding{dec: dec}, nil
}

// Reconfigure applies a new stream geometry. It completes before any
// subsequent Decode for frames of that geometry is issued.
func (b *Binding) Reconfigure(ctx context.Context, geo Geometry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return ErrDisposed
	}
	if err := b.dec.Configure(ctx, geo); err != nil {
		return err
	}
	b.configured = true
	return nil
}

// Decode feeds one encoded frame to the decoder.
func (b *Binding) Decode(ctx context.Context, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return ErrDisposed
	}
	if !b.configured {
		return ErrNotConfigured
	}
	return b.dec.Decode(ctx, payload)
}

// Dispose releases decoder resources. Idempotent.
func (b *Binding) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return
	}
	b.disposed = true
	b.dec.Dispose()
}
