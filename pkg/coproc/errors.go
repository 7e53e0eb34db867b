package coproc

import (
	"errors"
	"fmt"
)

// Firmware version gates.
const (
	// FwVersionUnknown means the version was never queried.
	FwVersionUnknown byte = 0
	// FwVersionInvalid is reserved and never a usable version.
	FwVersionInvalid byte = 0xff
	// MinFwVersionInterrupt is required to arm the input interrupt.
	MinFwVersionInterrupt byte = 1
	// MinFwVersionADC is required for analog telemetry reads.
	MinFwVersionADC byte = 2
)

var (
	// ErrChannelClosed indicates the consumer of an EventChannel is gone.
	ErrChannelClosed = errors.New("event channel closed")
	// ErrChannelFull indicates the consumer of an EventChannel is behind.
	ErrChannelFull = errors.New("event channel full")
	// ErrBridgeRunning indicates a Bridge was already started for the device.
	ErrBridgeRunning = errors.New("interrupt bridge already running")
	// ErrAlreadySubscribed indicates a second wake callback registration.
	ErrAlreadySubscribed = errors.New("interrupt callback already registered")
)

// BusError is a failed register transaction.
type BusError struct {
	Op  string
	Reg Register
	Err error
}

// Error implements error.
func (e *BusError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Reg, e.Err)
}

// Unwrap returns the transport error.
func (e *BusError) Unwrap() error {
	return e.Err
}

// UnsupportedFirmwareError is returned by operations gated on a minimum
// firmware version.
type UnsupportedFirmwareError struct {
	Version byte
}

// Error implements error.
func (e *UnsupportedFirmwareError) Error() string {
	return fmt.Sprintf("unsupported firmware version: %#x", e.Version)
}

func checkFirmware(version, min byte) error {
	if version < min || version == FwVersionInvalid {
		return &UnsupportedFirmwareError{Version: version}
	}
	return nil
}
