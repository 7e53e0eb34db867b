// Package coproc talks to the badge's RP2040 coprocessor over I2C.
//
// The coprocessor exposes a flat register map. Buttons, the joystick and a
// few status lines are latched into a 32-bit input word: the low half is the
// current level of each input, the high half flags which inputs changed since
// the word was last read. Whenever a change is latched the coprocessor pulls
// its interrupt line low.
//
// A Device serializes all register transactions with a single lock. A Bridge
// owns the interrupt pin, waits for the falling edge, reads and decodes the
// input word and forwards the events on an EventChannel.
package coproc
