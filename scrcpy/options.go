package scrcpy

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Options configures one server process and the connection to it. The
// session controller snapshots these once per session; they never change
// while a client is live.
type Options struct {
	Serial     string // adb device serial, empty for the default device
	ServerPath string // remote path of the pushed server binary
	Version    string // must match the pushed binary exactly
	LogLevel   string

	MaxSize      int // resolution limit, 0 for unlimited
	VideoBitRate int
	Encoder      string // effective encoder name, empty lets the server pick

	// ForwardTunnel selects client-connects-to-device (adb forward) instead
	// of the default device-connects-back (adb reverse).
	ForwardTunnel bool
	LocalPort     int

	SCID string // random per-session id, isolates concurrent tunnels
}

// GenerateSCID returns a 31-bit random hex id as the server expects.
func GenerateSCID() string {
	return strconv.FormatInt(int64(rand.Uint32()&0x7FFFFFFF), 16)
}

// SocketName returns the abstract unix socket the server uses on-device.
func (o Options) SocketName() string {
	if o.SCID == "" {
		return "localabstract:scrcpy"
	}
	return fmt.Sprintf("localabstract:scrcpy_%s", o.SCID)
}

// ServerArgs renders the key=value argument list for the server process.
func (o Options) ServerArgs() []string {
	args := []string{
		"tunnel_forward=" + strconv.FormatBool(o.ForwardTunnel),
		"control=true",
		"audio=false",
	}
	if o.SCID != "" {
		args = append(args, "scid="+o.SCID)
	}
	if o.MaxSize > 0 {
		args = append(args, fmt.Sprintf("max_size=%d", o.MaxSize))
	}
	if o.VideoBitRate > 0 {
		args = append(args, fmt.Sprintf("video_bit_rate=%d", o.VideoBitRate))
	}
	if o.Encoder != "" {
		args = append(args, "video_encoder="+o.Encoder)
	}
	if o.LogLevel != "" {
		args = append(args, "log_level="+o.LogLevel)
	}
	return args
}

// ServerCommand builds the full app_process invocation.
func (o Options) ServerCommand() string {
	base := fmt.Sprintf("CLASSPATH=%s app_process / com.genymobile.scrcpy.Server %s",
		o.ServerPath, o.Version)
	return strings.Join(append([]string{base}, o.ServerArgs()...), " ")
}

// ListEncodersCommand builds the probe invocation. The server prints the
// available encoders and exits; it deletes the pushed binary on exit, so the
// caller must re-push before an actual start.
func (o Options) ListEncodersCommand() string {
	base := fmt.Sprintf("CLASSPATH=%s app_process / com.genymobile.scrcpy.Server %s",
		o.ServerPath, o.Version)
	return base + " list_encoders=true"
}
