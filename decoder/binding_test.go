package decoder

import (
	"context"
	"errors"
	"testing"
)

// recordingDecoder notes the order of every call made against it.
type recordingDecoder struct {
	calls    []string
	failNext error
}

func (d *recordingDecoder) Configure(_ context.Context, geo Geometry) error {
	if d.failNext != nil {
		err := d.failNext
		d.failNext = nil
		return err
	}
	d.calls = append(d.calls, "configure")
	return nil
}

func (d *recordingDecoder) Decode(context.Context, []byte) error {
	d.calls = append(d.calls, "decode")
	return nil
}

func (d *recordingDecoder) Dispose() {
	d.calls = append(d.calls, "dispose")
}

type recordingFactory struct {
	kind     string
	surfaces int
	dec      *recordingDecoder
}

func (f *recordingFactory) Kind() string { return f.kind }

func (f *recordingFactory) NewSurface() (Surface, error) {
	f.surfaces++
	return staticSurface(f.kind + "-surface-" + string(rune('0'+f.surfaces))), nil
}

func (f *recordingFactory) NewDecoder(Surface) (Decoder, error) {
	if f.dec == nil {
		f.dec = &recordingDecoder{}
	}
	return f.dec, nil
}

type staticSurface string

func (s staticSurface) Identity() string { return string(s) }

func TestConfigureBeforeDecodeOrdering(t *testing.T) {
	f := &recordingFactory{kind: "test"}
	surface, _ := f.NewSurface()
	b, err := Bind(f, surface)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := b.Decode(ctx, []byte{1}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Decode before Configure = %v, want ErrNotConfigured", err)
	}
	if err := b.Reconfigure(ctx, Geometry{Width: 1080, Height: 1920}); err != nil {
		t.Fatal(err)
	}
	if err := b.Decode(ctx, []byte{1}); err != nil {
		t.Fatal(err)
	}
	if err := b.Reconfigure(ctx, Geometry{Width: 1920, Height: 1080}); err != nil {
		t.Fatal(err)
	}
	if err := b.Decode(ctx, []byte{2}); err != nil {
		t.Fatal(err)
	}

	want := []string{"configure", "decode", "configure", "decode"}
	if len(f.dec.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", f.dec.calls, want)
	}
	for i := range want {
		if f.dec.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", f.dec.calls, want)
		}
	}
}

func TestDisposeWithoutDecode(t *testing.T) {
	f := &recordingFactory{kind: "test"}
	surface, _ := f.NewSurface()
	b, _ := Bind(f, surface)

	b.Dispose()
	b.Dispose() // idempotent

	disposeCalls := 0
	for _, c := range f.dec.calls {
		if c == "dispose" {
			disposeCalls++
		}
	}
	if disposeCalls != 1 {
		t.Errorf("dispose called %d times, want 1", disposeCalls)
	}
	if err := b.Decode(context.Background(), []byte{1}); !errors.Is(err, ErrDisposed) {
		t.Errorf("Decode after Dispose = %v, want ErrDisposed", err)
	}
	if err := b.Reconfigure(context.Background(), Geometry{}); !errors.Is(err, ErrDisposed) {
		t.Errorf("Reconfigure after Dispose = %v, want ErrDisposed", err)
	}
}

func TestConfigureFailureLeavesUnconfigured(t *testing.T) {
	f := &recordingFactory{kind: "test", dec: &recordingDecoder{failNext: errors.New("boom")}}
	surface, _ := f.NewSurface()
	b, _ := Bind(f, surface)

	if err := b.Reconfigure(context.Background(), Geometry{}); err == nil {
		t.Fatal("Reconfigure swallowed the decoder error")
	}
	if err := b.Decode(context.Background(), []byte{1}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Decode after failed configure = %v, want ErrNotConfigured", err)
	}
}

func TestSlotSurfaceIdentity(t *testing.T) {
	a := &recordingFactory{kind: "software"}
	slot, err := NewSlot(a)
	if err != nil {
		t.Fatal(err)
	}
	first := slot.SurfaceIdentity()

	// Same kind keeps the surface.
	if err := slot.SetFactory(&recordingFactory{kind: "software"}); err != nil {
		t.Fatal(err)
	}
	if slot.SurfaceIdentity() != first {
		t.Error("surface replaced although decoder kind did not change")
	}

	// Different kind must get a fresh surface.
	if err := slot.SetFactory(&recordingFactory{kind: "hardware"}); err != nil {
		t.Fatal(err)
	}
	if slot.SurfaceIdentity() == first {
		t.Error("surface reused across a decoder kind change")
	}
	if slot.Kind() != "hardware" {
		t.Errorf("Kind = %q, want hardware", slot.Kind())
	}
}
