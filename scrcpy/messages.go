package scrcpy

// Client -> device control message types.
const (
	TypeInjectKeycode     byte = 0
	TypeInjectText        byte = 1
	TypeInjectTouchEvent  byte = 2
	TypeInjectScrollEvent byte = 3
	TypeBackOrScreenOn    byte = 4
	TypeGetClipboard      byte = 8
	TypeSetClipboard      byte = 9
	TypeRotateDevice      byte = 11
)

// Device -> client message types.
const (
	DeviceMsgTypeClipboard    byte = 0
	DeviceMsgTypeAckClipboard byte = 1
)

// Key/touch actions (AKEY_EVENT_ACTION_*, AMOTION_EVENT_ACTION_*).
const (
	ActionDown byte = 0
	ActionUp   byte = 1
	ActionMove byte = 2
)

// Mouse button masks (AMOTION_EVENT_BUTTON_*).
const (
	ButtonPrimary   uint32 = 1 << 0
	ButtonSecondary uint32 = 1 << 1
	ButtonTertiary  uint32 = 1 << 2
)

// Android keycodes injected through TypeInjectKeycode.
const (
	KeycodeEnter uint32 = 66
	KeycodeDel   uint32 = 67
)

// Pressure is carried as unsigned 16-bit fixed point.
const PressureMax uint16 = 0xFFFF

// | Field      | Bytes | Meaning                                  |
// | Type       | 1     | TypeInjectTouchEvent                     |
// | Action     | 1     | 0 down, 1 up, 2 move                     |
// | PointerID  | 8     | contact id, stable down..up              |
// | PosX       | 4     | device-screen x (pixels)                 |
// | PosY       | 4     | device-screen y (pixels)                 |
// | Width      | 2     | current video width (for normalization)  |
// | Height     | 2     | current video height                     |
// | Pressure   | 2     | 0..65535                                 |
// | Action btn | 4     | button that triggered the action         |
// | Buttons    | 4     | full button state                        |
type TouchEvent struct {
	Action    byte
	PointerID uint64
	PosX      uint32
	PosY      uint32
	Width     uint16
	Height    uint16
	Pressure  uint16
	Buttons   uint32
}

type KeyEvent struct {
	Action  byte
	Keycode uint32
	Repeat  uint32
	Meta    uint32
}

type ScrollEvent struct {
	PosX    uint32
	PosY    uint32
	Width   uint16
	Height  uint16
	HScroll uint16
	VScroll uint16
	Buttons uint32
}
