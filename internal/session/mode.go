package session

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned for mode changes the state machine does
// not allow.
var ErrInvalidTransition = errors.New("invalid mode transition")

// Mode is the UI mode of a session.
type Mode int

// Mode constants. WaitingForPhoto is the initial mode.
const (
	WaitingForPhoto Mode = iota
	Ready
	Processing
)

var modeNames = map[Mode]string{
	WaitingForPhoto: "waiting_for_photo",
	Ready:           "ready",
	Processing:      "processing",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	name, ok := modeNames[m]
	if !ok {
		return nil, fmt.Errorf("unknown mode %d", int(m))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(text []byte) error {
	for mode, name := range modeNames {
		if name == string(text) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", string(text))
}

func (m Mode) valid() bool {
	_, ok := modeNames[m]
	return ok
}

// Transition validates a change from one mode to another and returns the
// resulting mode. Re-entering the current mode is allowed and reported with
// changed == false. There is no way back to WaitingForPhoto.
func Transition(from, to Mode) (next Mode, changed bool, err error) {
	if !from.valid() || !to.valid() {
		return from, false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if from == to {
		return from, false, nil
	}

	switch {
	case from == WaitingForPhoto && to == Ready,
		from == Ready && to == Processing,
		from == Processing && to == Ready:
		return to, true, nil
	default:
		return from, false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
}
