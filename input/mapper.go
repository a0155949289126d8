// Package input converts viewport-relative pointer and keyboard events into
// device-native control messages. The transforms are pure; the only state is
// the set of live pointer contacts.
package input

import (
	"math"
	"unicode"

	"mirrorctl/scrcpy"
)

// Rect is the rendering surface's on-screen bounding box, in viewport units.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Size is the current cropped video size in device pixels.
type Size struct {
	Width  uint16
	Height uint16
}

func (s Size) Zero() bool { return s.Width == 0 || s.Height == 0 }

// PointerToScreen maps a viewport position to device-screen coordinates.
// Positions outside the surface (mid-drag) clamp to the stream edge rather
// than extrapolating. This is the single place presentation coordinates are
// scaled to device coordinates.
func PointerToScreen(clientX, clientY float64, bounds Rect, size Size) (uint32, uint32) {
	nx := clamp01((clientX - bounds.Left) / bounds.Width)
	ny := clamp01((clientY - bounds.Top) / bounds.Height)
	return uint32(math.Round(nx * float64(size.Width))),
		uint32(math.Round(ny * float64(size.Height)))
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PressureToProtocolUnits scales a normalized pressure onto the protocol's
// unsigned 16-bit fixed-point range.
func PressureToProtocolUnits(pressure float64) uint16 {
	return uint16(math.Round(clamp01(pressure) * float64(scrcpy.PressureMax)))
}

// KeyCommandKind selects which remote input path receives a key: literal
// text goes through the IME, keycodes through the key-event path.
type KeyCommandKind uint8

const (
	KeyCommandText KeyCommandKind = iota
	KeyCommandKeycode
)

type KeyCommand struct {
	Kind    KeyCommandKind
	Text    string
	Keycode uint32
}

// namedKeys maps UI key names to Android keycodes. Keys absent here and not
// single alphanumerics produce no command at all.
var namedKeys = map[string]uint32{
	"Backspace": scrcpy.KeycodeDel,
	"Enter":     scrcpy.KeycodeEnter,
}

// MapKey translates a keyboard event's key value. A single alphanumeric
// character becomes a text-injection command carrying that literal; named
// keys become keycode commands; everything else maps to nothing.
func MapKey(key string) (KeyCommand, bool) {
	if code, ok := namedKeys[key]; ok {
		return KeyCommand{Kind: KeyCommandKeycode, Keycode: code}, true
	}
	runes := []rune(key)
	if len(runes) == 1 && (unicode.IsLetter(runes[0]) || unicode.IsDigit(runes[0])) {
		return KeyCommand{Kind: KeyCommandText, Text: key}, true
	}
	return KeyCommand{}, false
}
