package coproc

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Input is one of the named lines latched in the input word.
type Input byte

// Inputs, by bit index in the input word.
const (
	InputHome Input = iota
	InputMenu
	InputStart
	InputAccept
	InputBack
	InputFpgaCdone
	InputBatteryCharging
	InputSelect
	InputJoystickLeft
	InputJoystickPress
	InputJoystickDown
	InputJoystickUp
	InputJoystickRight

	// NumInputs is the count of named inputs. Bits at or above it have
	// no name and are ignored.
	NumInputs int = iota
)

var inputNames = [NumInputs]string{
	"Home", "Menu", "Start", "Accept", "Back", "FpgaCdone", "BatteryCharging",
	"Select", "JoystickLeft", "JoystickPress", "JoystickDown", "JoystickUp", "JoystickRight",
}

// String implements fmt.Stringer.
func (i Input) String() string {
	if int(i) < NumInputs {
		return inputNames[i]
	}
	return fmt.Sprintf("Input(%d)", byte(i))
}

// InputFromBit maps a bit index of the input word to an Input.
func InputFromBit(bit uint) (Input, bool) {
	if bit >= uint(NumInputs) {
		return 0, false
	}
	return Input(bit), true
}

// ParseInput looks up an Input by name, ignoring case.
func ParseInput(name string) (Input, bool) {
	for n, s := range inputNames {
		if strings.EqualFold(s, name) {
			return Input(n), true
		}
	}
	return 0, false
}

// InputEvent is an edge on a named input.
type InputEvent struct {
	Input    Input
	Released bool
}

// String implements fmt.Stringer.
func (e InputEvent) String() string {
	if e.Released {
		return e.Input.String() + " released"
	}
	return e.Input.String() + " pressed"
}

// InputWordLen is the size of the input word in bytes.
const InputWordLen = 4

// DecodeInputWord unpacks the little-endian input word read at RegInput1.
func DecodeInputWord(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}

// DecodeInputs turns an input word into events, one per set change bit
// with a name, in ascending bit order. The high 16 bits are the change
// mask and the low 16 bits the current levels; a low level means released.
func DecodeInputs(word uint32) []InputEvent {
	changed, levels := uint16(word>>16), uint16(word)
	if changed == 0 {
		return nil
	}
	var events []InputEvent
	for bit := uint(0); bit < 16; bit++ {
		if changed&(1<<bit) == 0 {
			continue
		}
		if input, ok := InputFromBit(bit); ok {
			events = append(events, InputEvent{Input: input, Released: levels&(1<<bit) == 0})
		}
	}
	return events
}
