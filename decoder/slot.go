package decoder

import "fmt"

// Slot pairs the selected decoder factory with a surface of the matching
// context type. Swapping to a different decoder kind allocates a fresh
// surface instead of reusing the old one, whose rendering context is already
// committed to the previous kind. A slot belongs to one session controller
// and must only be reshaped while no session is live.
type Slot struct {
	factory Factory
	surface Surface
}

func NewSlot(factory Factory) (*Slot, error) {
	surface, err := factory.NewSurface()
	if err != nil {
		return nil, err
	}
	return &Slot{factory: factory, surface: surface}, nil
}

// SetFactory selects a decoder implementation. Same kind keeps the surface;
// a different kind gets a new surface identity.
func (s *Slot) SetFactory(factory Factory) error {
	if factory.Kind() == s.factory.Kind() {
		s.factory = factory
		return nil
	}
	surface, err := factory.NewSurface()
	if err != nil {
		return fmt.Errorf("surface for decoder %q: %w", factory.Kind(), err)
	}
	s.factory = factory
	s.surface = surface
	return nil
}

func (s *Slot) Kind() string { return s.factory.Kind() }

func (s *Slot) Surface() Surface { return s.surface }

func (s *Slot) SurfaceIdentity() string { return s.surface.Identity() }

// Bind opens a binding on the slot's current factory and surface.
func (s *Slot) Bind() (*Binding, error) {
	return Bind(s.factory, s.surface)
}
