package input

import "mirrorctl/scrcpy"

// MapScroll maps a wheel event at a viewport position to a scroll message.
// Deltas are clamped to one notch per event; direction is what matters to
// the device. Scroll is stateless, it never opens a contact.
func MapScroll(clientX, clientY float64, deltaH, deltaV int, bounds Rect, size Size) (scrcpy.ScrollEvent, bool) {
	if size.Zero() || bounds.Width <= 0 || bounds.Height <= 0 {
		return scrcpy.ScrollEvent{}, false
	}
	if deltaH == 0 && deltaV == 0 {
		return scrcpy.ScrollEvent{}, false
	}
	x, y := PointerToScreen(clientX, clientY, bounds, size)
	return scrcpy.ScrollEvent{
		PosX:    x,
		PosY:    y,
		Width:   size.Width,
		Height:  size.Height,
		HScroll: uint16(int16(notch(deltaH))),
		VScroll: uint16(int16(notch(deltaV))),
	}, true
}

func notch(delta int) int {
	if delta > 0 {
		return 1
	}
	if delta < 0 {
		return -1
	}
	return 0
}
