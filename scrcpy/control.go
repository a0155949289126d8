package scrcpy

import (
	"encoding/binary"
	"errors"
)

var errNotConnected = errors.New("scrcpy: control socket not connected")

func (c *tcpClient) writeControl(buf []byte) error {
	conn := c.control()
	if conn == nil {
		return errNotConnected
	}
	_, err := conn.Write(buf)
	return err
}

// Touch packet is fixed 32 bytes, layout documented on TouchEvent.
func (c *tcpClient) InjectTouch(e TouchEvent) error {
	buf := make([]byte, 32)
	buf[0] = TypeInjectTouchEvent
	buf[1] = e.Action
	binary.BigEndian.PutUint64(buf[2:10], e.PointerID)
	binary.BigEndian.PutUint32(buf[10:14], e.PosX)
	binary.BigEndian.PutUint32(buf[14:18], e.PosY)
	binary.BigEndian.PutUint16(buf[18:20], e.Width)
	binary.BigEndian.PutUint16(buf[20:22], e.Height)
	binary.BigEndian.PutUint16(buf[22:24], e.Pressure)
	binary.BigEndian.PutUint32(buf[24:28], e.Buttons) // action button
	binary.BigEndian.PutUint32(buf[28:32], e.Buttons)
	return c.writeControl(buf)
}

func (c *tcpClient) InjectKeycode(e KeyEvent) error {
	buf := make([]byte, 14)
	buf[0] = TypeInjectKeycode
	buf[1] = e.Action
	binary.BigEndian.PutUint32(buf[2:6], e.Keycode)
	binary.BigEndian.PutUint32(buf[6:10], e.Repeat)
	binary.BigEndian.PutUint32(buf[10:14], e.Meta)
	return c.writeControl(buf)
}

func (c *tcpClient) InjectText(text string) error {
	raw := []byte(text)
	buf := make([]byte, 5+len(raw))
	buf[0] = TypeInjectText
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(raw)))
	copy(buf[5:], raw)
	return c.writeControl(buf)
}

func (c *tcpClient) InjectScroll(e ScrollEvent) error {
	buf := make([]byte, 21)
	buf[0] = TypeInjectScrollEvent
	binary.BigEndian.PutUint32(buf[1:5], e.PosX)
	binary.BigEndian.PutUint32(buf[5:9], e.PosY)
	binary.BigEndian.PutUint16(buf[9:11], e.Width)
	binary.BigEndian.PutUint16(buf[11:13], e.Height)
	binary.BigEndian.PutUint16(buf[13:15], e.HScroll)
	binary.BigEndian.PutUint16(buf[15:17], e.VScroll)
	binary.BigEndian.PutUint32(buf[17:21], e.Buttons)
	return c.writeControl(buf)
}

func (c *tcpClient) BackOrScreenOn() error {
	// type (1) + action (1); down then up is the server's own business.
	return c.writeControl([]byte{TypeBackOrScreenOn, ActionDown})
}
