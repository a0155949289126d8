package webservice

import (
	"errors"

	"mirrorctl/input"
	"mirrorctl/scrcpy"
	"mirrorctl/session"
)

// inputMessage is the JSON input frame clients send over the websocket.
// Type selects which of the field groups is meaningful.
type inputMessage struct {
	Type string `json:"type"` // pointer | key | text | scroll | back

	// pointer
	ID       int        `json:"id"`
	Phase    string     `json:"phase"` // down | move | up | cancel
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Buttons  uint32     `json:"buttons"`
	Pressure float64    `json:"pressure"`
	Bounds   boundsJSON `json:"bounds"`

	// key
	Key    string `json:"key"`
	Action string `json:"action"` // down | up

	// scroll
	DeltaX int `json:"dx"`
	DeltaY int `json:"dy"`

	// text
	Text string `json:"text"`
}

// boundsJSON is the client's video element rectangle, in its own
// coordinate space.
type boundsJSON struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b boundsJSON) rect() input.Rect {
	return input.Rect{Left: b.Left, Top: b.Top, Width: b.Width, Height: b.Height}
}

var pointerPhases = map[string]input.PointerPhase{
	"down":   input.PhaseDown,
	"move":   input.PhaseMove,
	"up":     input.PhaseUp,
	"cancel": input.PhaseCancel,
}

// dispatchInput maps one client input frame onto the device. Input that
// arrives while the session is not Running is dropped silently; everything
// else surfaces its error.
func (wm *WebMaster) dispatchInput(contacts *input.Contacts, msg inputMessage) error {
	var err error
	switch msg.Type {
	case "pointer":
		phase, ok := pointerPhases[msg.Phase]
		if !ok {
			return nil
		}
		ev := input.PointerEvent{
			ID:       msg.ID,
			Phase:    phase,
			ClientX:  msg.X,
			ClientY:  msg.Y,
			Buttons:  msg.Buttons,
			Pressure: msg.Pressure,
		}
		touch, ok := contacts.Handle(ev, msg.Bounds.rect(), wm.streamInputSize())
		if !ok {
			return nil
		}
		err = wm.Controller.InjectTouch(touch)

	case "key":
		cmd, ok := input.MapKey(msg.Key)
		if !ok {
			return nil
		}
		switch cmd.Kind {
		case input.KeyCommandText:
			if msg.Action != "down" {
				return nil
			}
			err = wm.Controller.InjectText(cmd.Text)
		case input.KeyCommandKeycode:
			action := scrcpy.ActionDown
			if msg.Action == "up" {
				action = scrcpy.ActionUp
			}
			err = wm.Controller.InjectKeycode(scrcpy.KeyEvent{Action: action, Keycode: cmd.Keycode})
		}

	case "text":
		err = wm.Controller.InjectText(msg.Text)

	case "scroll":
		scroll, ok := input.MapScroll(msg.X, msg.Y, msg.DeltaX, msg.DeltaY, msg.Bounds.rect(), wm.streamInputSize())
		if !ok {
			return nil
		}
		err = wm.Controller.InjectScroll(scroll)

	case "back":
		err = wm.Controller.BackOrScreenOn()
	}

	var invalid *session.InvalidStateError
	if errors.As(err, &invalid) {
		return nil
	}
	return err
}

// streamInputSize converts the controller's stream size into the input
// mapper's type; zero when geometry is unknown, which drops pointer events.
func (wm *WebMaster) streamInputSize() input.Size {
	w, h, ok := wm.Controller.StreamSize()
	if !ok || w > 0xFFFF || h > 0xFFFF {
		return input.Size{}
	}
	return input.Size{Width: uint16(w), Height: uint16(h)}
}
