package scrcpy

// Events reported by a client, delivered in arrival order on a single
// channel so the consumer never sees reentrant callbacks.

type EventKind uint8

const (
	EventLog EventKind = iota
	EventError
	EventClosed
	EventGeometry
	EventVideoPacket
	EventClipboard
)

type Event interface {
	Kind() EventKind
}

// LogEvent carries a debug/info message from the server process.
type LogEvent struct {
	Level   string
	Message string
}

func (LogEvent) Kind() EventKind { return EventLog }

// ErrorEvent carries a protocol-level failure. It does not imply the
// connection is gone; a ClosedEvent follows when it is.
type ErrorEvent struct {
	Message string
}

func (ErrorEvent) Kind() EventKind { return EventError }

// ClosedEvent reports unsolicited connection closure (device unplugged,
// server crash). Emitted exactly once, after which the channel is closed.
type ClosedEvent struct {
	Reason string
}

func (ClosedEvent) Kind() EventKind { return EventClosed }

// GeometryEvent reports the cropped video size. The first one arrives with
// the stream header; later ones follow device rotation or fold changes.
// CodecData holds codec configuration (SPS/PPS) when the server sent any.
type GeometryEvent struct {
	Width     uint32
	Height    uint32
	CodecData []byte
}

func (GeometryEvent) Kind() EventKind { return EventGeometry }

// VideoPacketEvent carries one encoded frame.
type VideoPacketEvent struct {
	Data       []byte
	PTS        uint64
	IsConfig   bool
	IsKeyFrame bool
}

func (VideoPacketEvent) Kind() EventKind { return EventVideoPacket }

// ClipboardEvent reports a device-side clipboard change.
type ClipboardEvent struct {
	Text string
}

func (ClipboardEvent) Kind() EventKind { return EventClipboard }
