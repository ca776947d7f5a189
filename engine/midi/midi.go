// Package midi is the boundary to MIDI controllers. Decoded controller events are queued by the device
// reader and drained once per frame; output commands are queued and written by a background goroutine.
package midi

// InputKind classifies a decoded controller event.
type InputKind int

const (
	Button InputKind = iota
	Slider
	Knob
	Encoder
)

func (k InputKind) String() string {
	switch k {
	case Button:
		return "button"
	case Slider:
		return "slider"
	case Knob:
		return "knob"
	case Encoder:
		return "encoder"
	}
	return "unknown"
}

// Input is one decoded controller event. Value is 0..1 for sliders and knobs, a signed step count for
// encoders and 1 or 0 for button press and release.
type Input struct {
	Kind    InputKind
	Channel uint8
	Control uint8
	Value   float32
}

// Pressed reports whether a button event is a press.
func (in Input) Pressed() bool { return in.Kind == Button && in.Value > 0 }

// Output is a command for the controller, e.g. lighting a pad.
type Output struct {
	Channel uint8
	Control uint8
	Value   uint8
}

// Message returns the raw three-byte message for o: a control change.
func (o Output) Message() [3]byte {
	return [3]byte{0xB0 | o.Channel&0x0F, o.Control & 0x7F, o.Value & 0x7F}
}

// Device is an opened controller. A nil Device is an absent one; callers check before use.
type Device interface {
	// Name returns the device name.
	Name() string

	// Recv drains every input queued since the last call, oldest first. It never blocks.
	//
	// Returns:
	//   - []Input: the pending inputs, possibly empty
	Recv() []Input

	// Send queues a command for the writer goroutine. It never blocks.
	//
	// Parameters:
	//   - out: the command
	//
	// Returns:
	//   - bool: false if the command was dropped because the queue is full or closed
	Send(out Output) bool

	// Close stops the writer after it has written the queued commands.
	Close() error
}

// Decode maps a raw channel message onto an Input. Note on and off become buttons, control changes in
// knobs become knobs, and the rest of the control changes become sliders. Other messages are ignored.
//
// Parameters:
//   - msg: the status byte and its data bytes
//   - knobs: the control numbers that are knobs
//
// Returns:
//   - Input: the decoded event
//   - bool: false if the message is not a supported controller event
func Decode(msg []byte, knobs map[uint8]bool) (Input, bool) {
	if len(msg) < 3 {
		return Input{}, false
	}
	channel := msg[0] & 0x0F
	data1, data2 := msg[1]&0x7F, msg[2]&0x7F
	switch msg[0] & 0xF0 {
	case 0x90:
		v := float32(0)
		if data2 > 0 {
			v = 1
		}
		return Input{Kind: Button, Channel: channel, Control: data1, Value: v}, true
	case 0x80:
		return Input{Kind: Button, Channel: channel, Control: data1}, true
	case 0xB0:
		kind := Slider
		if knobs[data1] {
			kind = Knob
		}
		return Input{Kind: kind, Channel: channel, Control: data1, Value: float32(data2) / 127}, true
	}
	return Input{}, false
}

// DecodeRelative maps a relative encoder control change (64 is no motion) onto an Encoder input.
func DecodeRelative(msg []byte) (Input, bool) {
	if len(msg) < 3 || msg[0]&0xF0 != 0xB0 {
		return Input{}, false
	}
	return Input{
		Kind:    Encoder,
		Channel: msg[0] & 0x0F,
		Control: msg[1] & 0x7F,
		Value:   float32(int(msg[2]&0x7F) - 64),
	}, true
}
