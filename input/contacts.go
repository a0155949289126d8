package input

import "mirrorctl/scrcpy"

// PointerPhase describes what a UI pointer event reports.
type PointerPhase uint8

const (
	PhaseDown PointerPhase = iota
	PhaseMove
	PhaseUp
	PhaseCancel
)

// PointerEvent is one UI-level pointer dispatch in viewport coordinates.
type PointerEvent struct {
	ID       int          // local pointer id
	Phase    PointerPhase
	ClientX  float64
	ClientY  float64
	Buttons  uint32       // button state mask, scrcpy.ButtonPrimary etc.
	Pressure float64      // normalized [0,1]
}

// contact is one live down..up interaction.
type contact struct {
	pointerID uint64
	screenX   uint32
	screenY   uint32
	pressure  uint16
}

// Contacts tracks live pointer contacts and turns pointer events into touch
// messages. Only the primary button opens, moves and closes a contact; every
// other button is left to a different control surface.
type Contacts struct {
	live map[int]*contact
}

func NewContacts() *Contacts {
	return &Contacts{live: make(map[int]*contact)}
}

// Handle maps one pointer event. The surface bounds and stream size are
// supplied by the caller at dispatch time; a zero size means geometry is not
// known yet and the event is dropped rather than scaled by garbage.
func (c *Contacts) Handle(ev PointerEvent, bounds Rect, size Size) (scrcpy.TouchEvent, bool) {
	if size.Zero() || bounds.Width <= 0 || bounds.Height <= 0 {
		return scrcpy.TouchEvent{}, false
	}

	switch ev.Phase {
	case PhaseDown:
		if ev.Buttons&scrcpy.ButtonPrimary == 0 {
			return scrcpy.TouchEvent{}, false
		}
		x, y := PointerToScreen(ev.ClientX, ev.ClientY, bounds, size)
		ct := &contact{
			pointerID: uint64(ev.ID),
			screenX:   x,
			screenY:   y,
			pressure:  PressureToProtocolUnits(ev.Pressure),
		}
		c.live[ev.ID] = ct
		return c.touch(ct, scrcpy.ActionDown, size), true

	case PhaseMove:
		ct, ok := c.live[ev.ID]
		if !ok || ev.Buttons&scrcpy.ButtonPrimary == 0 {
			return scrcpy.TouchEvent{}, false
		}
		ct.screenX, ct.screenY = PointerToScreen(ev.ClientX, ev.ClientY, bounds, size)
		ct.pressure = PressureToProtocolUnits(ev.Pressure)
		return c.touch(ct, scrcpy.ActionMove, size), true

	case PhaseUp, PhaseCancel:
		ct, ok := c.live[ev.ID]
		if !ok {
			return scrcpy.TouchEvent{}, false
		}
		delete(c.live, ev.ID)
		ct.screenX, ct.screenY = PointerToScreen(ev.ClientX, ev.ClientY, bounds, size)
		ct.pressure = 0
		return c.touch(ct, scrcpy.ActionUp, size), true
	}
	return scrcpy.TouchEvent{}, false
}

// Active reports the number of live contacts.
func (c *Contacts) Active() int { return len(c.live) }

// Reset drops all live contacts, used when a session ends mid-drag.
func (c *Contacts) Reset() {
	clear(c.live)
}

func (c *Contacts) touch(ct *contact, action byte, size Size) scrcpy.TouchEvent {
	return scrcpy.TouchEvent{
		Action:    action,
		PointerID: ct.pointerID,
		PosX:      ct.screenX,
		PosY:      ct.screenY,
		Width:     size.Width,
		Height:    size.Height,
		Pressure:  ct.pressure,
		Buttons:   scrcpy.ButtonPrimary,
	}
}
