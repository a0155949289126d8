package input

import (
	"testing"

	"mirrorctl/scrcpy"
)

var (
	testBounds = Rect{Left: 0, Top: 0, Width: 300, Height: 600}
	testSize   = Size{Width: 1080, Height: 1920}
)

func TestPointerToScreenClamps(t *testing.T) {
	tests := []struct {
		name             string
		clientX, clientY float64
		wantX, wantY     uint32
	}{
		{"center", 150, 300, 540, 960},
		{"origin", 0, 0, 0, 0},
		{"bottom right", 300, 600, 1080, 1920},
		{"left of surface", -50, 300, 0, 960},
		{"right of surface", 400, 300, 1080, 960},
		{"above surface", 150, -10, 540, 0},
		{"below surface", 150, 900, 540, 1920},
	}
	for _, tt := range tests {
		x, y := PointerToScreen(tt.clientX, tt.clientY, testBounds, testSize)
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("%s: PointerToScreen(%v,%v) = (%d,%d), want (%d,%d)",
				tt.name, tt.clientX, tt.clientY, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestPointerToScreenOffsetBounds(t *testing.T) {
	bounds := Rect{Left: 100, Top: 50, Width: 300, Height: 600}
	x, y := PointerToScreen(250, 350, bounds, testSize)
	if x != 540 || y != 960 {
		t.Errorf("PointerToScreen with offset bounds = (%d,%d), want (540,960)", x, y)
	}
}

func TestPressureToProtocolUnits(t *testing.T) {
	tests := []struct {
		in   float64
		want uint16
	}{
		{0, 0},
		{1, 65535},
		{0.5, 32768},
		{-0.3, 0},  // clamped
		{1.5, 65535}, // clamped
	}
	for _, tt := range tests {
		if got := PressureToProtocolUnits(tt.in); got != tt.want {
			t.Errorf("PressureToProtocolUnits(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMapKey(t *testing.T) {
	tests := []struct {
		key     string
		ok      bool
		kind    KeyCommandKind
		text    string
		keycode uint32
	}{
		{"a", true, KeyCommandText, "a", 0},
		{"Z", true, KeyCommandText, "Z", 0},
		{"7", true, KeyCommandText, "7", 0},
		{"Backspace", true, KeyCommandKeycode, "", scrcpy.KeycodeDel},
		{"Enter", true, KeyCommandKeycode, "", scrcpy.KeycodeEnter},
		{"F5", false, 0, "", 0},
		{"Shift", false, 0, "", 0},
		{"", false, 0, "", 0},
		{"ab", false, 0, "", 0},
	}
	for _, tt := range tests {
		cmd, ok := MapKey(tt.key)
		if ok != tt.ok {
			t.Errorf("MapKey(%q) ok = %v, want %v", tt.key, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if cmd.Kind != tt.kind || cmd.Text != tt.text || cmd.Keycode != tt.keycode {
			t.Errorf("MapKey(%q) = %+v, want kind=%d text=%q keycode=%d",
				tt.key, cmd, tt.kind, tt.text, tt.keycode)
		}
	}
}
