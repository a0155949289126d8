package session

import (
	"context"

	"mirrorctl/scrcpy"
)

// State is the controller's lifecycle position. Callers only ever observe
// Idle or Running as resting states; everything else is transitional.
type State uint8

const (
	StateIdle State = iota
	StateFetchingServer
	StateDeployingServer
	StateNegotiatingEncoder
	StateStarting
	StateRunning
	StateStopping
)

var stateNames = [...]string{
	"idle",
	"fetching-server",
	"deploying-server",
	"negotiating-encoder",
	"starting",
	"running",
	"stopping",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Config is one session's fixed parameters. The controller snapshots it at
// Start; edits made afterwards apply to the next session only.
type Config struct {
	DeviceSerial     string
	ServerRemotePath string
	ServerVersion    string
	LogLevel         string

	ResolutionLimit  int // max_size, 0 for unlimited
	BitRate          int
	Encoder          string // requested encoder; negotiation decides the effective one
	UseForwardTunnel bool
	LocalPort        int
}

func (c Config) options() scrcpy.Options {
	return scrcpy.Options{
		Serial:        c.DeviceSerial,
		ServerPath:    c.ServerRemotePath,
		Version:       c.ServerVersion,
		LogLevel:      c.LogLevel,
		MaxSize:       c.ResolutionLimit,
		VideoBitRate:  c.BitRate,
		Encoder:       c.Encoder,
		ForwardTunnel: c.UseForwardTunnel,
		LocalPort:     c.LocalPort,
		SCID:          scrcpy.GenerateSCID(),
	}
}

// ProgressFunc reports a monotonically increasing byte count against a
// total; total is 0 while unknown.
type ProgressFunc func(transferred, total uint64)

// Fetcher retrieves the server binary payload.
type Fetcher interface {
	Fetch(ctx context.Context, onProgress ProgressFunc) ([]byte, error)
}

// Deployer pushes the server binary onto a device.
type Deployer interface {
	Write(ctx context.Context, serial, path string, data []byte, onProgress ProgressFunc) error
}

// Transport is the protocol-client boundary: the encoder probe plus the
// client constructor.
type Transport interface {
	GetEncoders(ctx context.Context, opts scrcpy.Options) ([]string, error)
	NewClient(opts scrcpy.Options) scrcpy.Client
}

// Callbacks are the controller's observer hooks. All fields are optional;
// they are invoked from the controller's goroutines and must not block.
type Callbacks struct {
	OnStateChange     func(State)
	OnLog             func(level, message string)
	OnError           func(err error)
	OnEncoderFallback func(requested, effective string)
	OnGeometry        func(width, height uint32)
	OnClipboard       func(text string)
	OnClosed          func(reason string)
}
