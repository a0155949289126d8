package scrcpy

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
)

type videoMeta struct {
	Codec  string
	Width  uint32
	Height uint32
}

// readStreamHeader consumes the fixed preamble on the video socket:
// an optional tunnel byte, the device name (64 bytes, NUL padded), then
// codec id (4) + width (4) + height (4).
func readStreamHeader(conn net.Conn, forwardTunnel bool) (string, videoMeta, error) {
	var meta videoMeta
	if forwardTunnel {
		// With a forward tunnel the server writes a single byte first so
		// the client can tell a dead socket from a live one.
		var dummy [1]byte
		if _, err := io.ReadFull(conn, dummy[:]); err != nil {
			return "", meta, err
		}
	}

	nameBuf := make([]byte, 64)
	if _, err := io.ReadFull(conn, nameBuf); err != nil {
		return "", meta, err
	}
	name := string(bytes.TrimRight(nameBuf, "\x00"))

	metaBuf := make([]byte, 12)
	if _, err := io.ReadFull(conn, metaBuf); err != nil {
		return name, meta, err
	}
	meta.Codec = string(bytes.TrimRight(metaBuf[0:4], " \x00"))
	meta.Width = binary.BigEndian.Uint32(metaBuf[4:8])
	meta.Height = binary.BigEndian.Uint32(metaBuf[8:12])
	return name, meta, nil
}

type frameHeader struct {
	IsConfig   bool
	IsKeyFrame bool
	PTS        uint64
	Size       uint32
}

// parseFrameHeader splits the 12-byte per-frame header: 2 flag bits and a
// 62-bit PTS packed into the first 8 bytes, then the payload size.
func parseFrameHeader(buf []byte, h *frameHeader) {
	ptsAndFlags := binary.BigEndian.Uint64(buf[0:8])
	h.IsConfig = ptsAndFlags&0x8000000000000000 != 0
	h.IsKeyFrame = ptsAndFlags&0x4000000000000000 != 0
	h.PTS = ptsAndFlags & 0x3FFFFFFFFFFFFFFF
	h.Size = binary.BigEndian.Uint32(buf[8:12])
}

func (c *tcpClient) readVideo(conn net.Conn) {
	var headerBuf [12]byte
	var header frameHeader
	for {
		if _, err := io.ReadFull(conn, headerBuf[:]); err != nil {
			c.emitClosed("video stream ended: " + err.Error())
			return
		}
		parseFrameHeader(headerBuf[:], &header)

		payload := make([]byte, header.Size)
		if _, err := io.ReadFull(conn, payload); err != nil {
			c.emitClosed("video stream ended: " + err.Error())
			return
		}

		if header.IsConfig {
			// Codec configuration doubles as the geometry change signal on
			// rotation; the consumer reconfigures its decoder before any
			// frame of the new geometry arrives. Size comes from the SPS.
			ev := GeometryEvent{CodecData: payload}
			if sps := FindSPS(payload); sps != nil {
				if info, err := ParseSPSH264(sps); err == nil {
					ev.Width, ev.Height = info.Width, info.Height
				}
			}
			c.events <- ev
			continue
		}
		c.events <- VideoPacketEvent{
			Data:       payload,
			PTS:        header.PTS,
			IsKeyFrame: header.IsKeyFrame,
		}
	}
}

// readControl handles device -> client messages. Only the clipboard message
// carries a payload today; anything unknown is skipped by length.
func (c *tcpClient) readControl(conn net.Conn) {
	header := make([]byte, 5) // type (1) + length (4)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			c.emitClosed("control stream ended: " + err.Error())
			return
		}
		msgType := header[0]
		length := binary.BigEndian.Uint32(header[1:])

		switch msgType {
		case DeviceMsgTypeClipboard:
			content := make([]byte, length)
			if _, err := io.ReadFull(conn, content); err != nil {
				c.emitClosed("control stream ended: " + err.Error())
				return
			}
			c.events <- ClipboardEvent{Text: string(content)}
		default:
			if length > 0 {
				if _, err := io.CopyN(io.Discard, conn, int64(length)); err != nil {
					c.emitClosed("control stream ended: " + err.Error())
					return
				}
			}
		}
	}
}
