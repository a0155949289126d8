package scrcpy

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"mirrorctl/adb"
)

func TestParseEncoderList(t *testing.T) {
	out := `[server] INFO: List of video encoders:
    --video-codec=h264 --video-encoder=OMX.qcom.video.encoder.avc
    --video-codec=h264 --video-encoder='c2.android.avc.encoder'
    --video-codec=h265 --video-encoder=OMX.qcom.video.encoder.hevc
    --video-codec=h264 --video-encoder=OMX.qcom.video.encoder.avc
some unrelated line`
	got := ParseEncoderList(out)
	want := []string{
		"OMX.qcom.video.encoder.avc",
		"c2.android.avc.encoder",
		"OMX.qcom.video.encoder.hevc",
	}
	if len(got) != len(want) {
		t.Fatalf("ParseEncoderList returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("encoder[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseEncoderListEmpty(t *testing.T) {
	if got := ParseEncoderList("nothing useful here"); got != nil {
		t.Errorf("ParseEncoderList = %v, want nil", got)
	}
}

func TestParseFrameHeader(t *testing.T) {
	buf := make([]byte, 12)
	// config + keyframe flags set, PTS 12345, size 4096
	binary.BigEndian.PutUint64(buf[0:8], 0xC000000000000000|12345)
	binary.BigEndian.PutUint32(buf[8:12], 4096)

	var h frameHeader
	parseFrameHeader(buf, &h)
	if !h.IsConfig || !h.IsKeyFrame {
		t.Errorf("flags = (%v, %v), want both set", h.IsConfig, h.IsKeyFrame)
	}
	if h.PTS != 12345 {
		t.Errorf("PTS = %d, want 12345", h.PTS)
	}
	if h.Size != 4096 {
		t.Errorf("Size = %d, want 4096", h.Size)
	}
}

func TestServerCommand(t *testing.T) {
	opts := Options{
		ServerPath:    "/data/local/tmp/mirror-server",
		Version:       "3.3.3",
		LogLevel:      "info",
		MaxSize:       1080,
		VideoBitRate:  8000000,
		Encoder:       "c2.android.avc.encoder",
		ForwardTunnel: true,
		SCID:          "1a2b3c",
	}
	cmd := opts.ServerCommand()
	for _, want := range []string{
		"CLASSPATH=/data/local/tmp/mirror-server",
		"com.genymobile.scrcpy.Server 3.3.3",
		"tunnel_forward=true",
		"scid=1a2b3c",
		"max_size=1080",
		"video_bit_rate=8000000",
		"video_encoder=c2.android.avc.encoder",
		"log_level=info",
	} {
		if !bytes.Contains([]byte(cmd), []byte(want)) {
			t.Errorf("ServerCommand missing %q in %q", want, cmd)
		}
	}
}

func TestSocketName(t *testing.T) {
	if got := (Options{}).SocketName(); got != "localabstract:scrcpy" {
		t.Errorf("SocketName = %q", got)
	}
	if got := (Options{SCID: "ff"}).SocketName(); got != "localabstract:scrcpy_ff" {
		t.Errorf("SocketName = %q", got)
	}
}

// bitWriter builds SPS test vectors bit by bit.
type bitWriter struct {
	bits []byte
}

func (w *bitWriter) writeBit(b uint32) {
	w.bits = append(w.bits, byte(b&1))
}

func (w *bitWriter) writeBits(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		w.writeBit(v >> i)
	}
}

func (w *bitWriter) writeUE(v uint32) {
	leadingZeros := 0
	for 1<<(leadingZeros+1)-1 <= int(v) {
		leadingZeros++
	}
	w.writeBits(0, leadingZeros)
	w.writeBits(v+1, leadingZeros+1)
}

func (w *bitWriter) bytes() []byte {
	out := make([]byte, (len(w.bits)+7)/8)
	for i, b := range w.bits {
		out[i/8] |= b << (7 - i%8)
	}
	return out
}

func buildBaselineSPS(widthMbsMinus1, heightMapUnitsMinus1 uint32) []byte {
	w := &bitWriter{}
	w.writeBits(66, 8) // profile_idc baseline
	w.writeBits(0, 8)  // constraint flags
	w.writeBits(31, 8) // level_idc
	w.writeUE(0)       // sps id
	w.writeUE(0)       // log2_max_frame_num_minus4
	w.writeUE(0)       // pic_order_cnt_type
	w.writeUE(0)       // log2_max_pic_order_cnt_lsb_minus4
	w.writeUE(1)       // max_num_ref_frames
	w.writeBits(0, 1)  // gaps_in_frame_num_value_allowed_flag
	w.writeUE(widthMbsMinus1)
	w.writeUE(heightMapUnitsMinus1)
	w.writeBits(1, 1) // frame_mbs_only_flag
	w.writeBits(1, 1) // direct_8x8_inference_flag
	w.writeBits(0, 1) // frame_cropping_flag
	w.writeBits(0, 1) // vui_parameters_present_flag
	return append([]byte{0x67}, w.bytes()...)
}

func TestParseSPSH264(t *testing.T) {
	tests := []struct {
		widthMbs, heightMbs uint32
		wantW, wantH        uint32
	}{
		{79, 44, 1280, 720},
		{119, 67, 1920, 1088},
		{67, 119, 1088, 1920},
	}
	for _, tt := range tests {
		sps := buildBaselineSPS(tt.widthMbs, tt.heightMbs)
		info, err := ParseSPSH264(sps)
		if err != nil {
			t.Fatalf("ParseSPSH264(%dx%d mbs): %v", tt.widthMbs, tt.heightMbs, err)
		}
		if info.Width != tt.wantW || info.Height != tt.wantH {
			t.Errorf("ParseSPSH264 = %dx%d, want %dx%d", info.Width, info.Height, tt.wantW, tt.wantH)
		}
	}
}

func TestParseSPSH264Rejects(t *testing.T) {
	if _, err := ParseSPSH264([]byte{0x68, 0xCE, 0x38, 0x80}); err == nil {
		t.Error("ParseSPSH264 accepted a PPS NALU")
	}
	if _, err := ParseSPSH264([]byte{0x67}); err == nil {
		t.Error("ParseSPSH264 accepted a truncated NALU")
	}
}

func TestFindSPS(t *testing.T) {
	sps := buildBaselineSPS(79, 44)
	payload := append([]byte{0, 0, 0, 1}, sps...)
	payload = append(payload, 0, 0, 0, 1, 0x68, 0xCE, 0x38, 0x80)

	found := FindSPS(payload)
	if !bytes.Equal(found, sps) {
		t.Errorf("FindSPS = % x, want % x", found, sps)
	}
	if FindSPS([]byte{0, 0, 0, 1, 0x68, 0xCE}) != nil {
		t.Error("FindSPS found an SPS in a PPS-only payload")
	}
}

// pipeClient returns a tcpClient whose control socket is one end of an
// in-memory pipe, and the other end for asserting the wire bytes.
func pipeClient() (*tcpClient, net.Conn) {
	client, server := net.Pipe()
	c := &tcpClient{events: make(chan Event, 1)}
	c.controlConn = client
	return c, server
}

func readN(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	if _, err := conn.Read(buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	return buf
}

func TestInjectTouchEncoding(t *testing.T) {
	c, server := pipeClient()
	defer server.Close()

	go func() {
		c.InjectTouch(TouchEvent{
			Action:    ActionDown,
			PointerID: 3,
			PosX:      540,
			PosY:      960,
			Width:     1080,
			Height:    1920,
			Pressure:  PressureMax,
			Buttons:   ButtonPrimary,
		})
	}()

	buf := readN(t, server, 32)
	if buf[0] != TypeInjectTouchEvent || buf[1] != ActionDown {
		t.Errorf("header = % x", buf[:2])
	}
	if got := binary.BigEndian.Uint64(buf[2:10]); got != 3 {
		t.Errorf("pointer id = %d", got)
	}
	if x := binary.BigEndian.Uint32(buf[10:14]); x != 540 {
		t.Errorf("x = %d", x)
	}
	if y := binary.BigEndian.Uint32(buf[14:18]); y != 960 {
		t.Errorf("y = %d", y)
	}
	if w := binary.BigEndian.Uint16(buf[18:20]); w != 1080 {
		t.Errorf("width = %d", w)
	}
	if p := binary.BigEndian.Uint16(buf[22:24]); p != PressureMax {
		t.Errorf("pressure = %d", p)
	}
	if b := binary.BigEndian.Uint32(buf[28:32]); b != ButtonPrimary {
		t.Errorf("buttons = %d", b)
	}
}

func TestInjectTextEncoding(t *testing.T) {
	c, server := pipeClient()
	defer server.Close()

	go c.InjectText("hi")

	buf := readN(t, server, 7)
	if buf[0] != TypeInjectText {
		t.Errorf("type = %d", buf[0])
	}
	if n := binary.BigEndian.Uint32(buf[1:5]); n != 2 {
		t.Errorf("length = %d", n)
	}
	if string(buf[5:7]) != "hi" {
		t.Errorf("text = %q", buf[5:7])
	}
}

func TestInjectWithoutConnection(t *testing.T) {
	c := &tcpClient{events: make(chan Event, 1)}
	if err := c.InjectText("x"); err == nil {
		t.Error("InjectText succeeded without a control socket")
	}
}

// A backlogged event buffer must never wedge teardown: a reader reporting
// closure while nothing consumes events cannot block Close behind its send.
func TestCloseNotBlockedByBackloggedEvents(t *testing.T) {
	t.Setenv("MIRRORCTL_ADB", "/nonexistent/adb")
	c := &tcpClient{
		opts:   Options{LocalPort: 7007, ForwardTunnel: true},
		adb:    adb.NewClient(""),
		events: make(chan Event, 32),
	}
	for i := 0; i < cap(c.events); i++ {
		c.events <- LogEvent{Message: "backlog"}
	}

	done := make(chan struct{}, 2)
	go func() {
		c.emitClosed("device disconnected")
		done <- struct{}{}
	}()
	go func() {
		c.Close()
		done <- struct{}{}
	}()

	timeout := time.After(2 * time.Second)
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-timeout:
			t.Fatal("teardown blocked on a full event buffer")
		}
	}

	// The channel must end up closed whichever side won.
	for range c.events {
	}
}
