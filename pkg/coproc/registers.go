package coproc

import (
	"fmt"
	"strconv"
	"strings"
)

// Address is the I2C address of the coprocessor.
const Address uint16 = 0x17

// Register is an offset in the coprocessor register map.
type Register byte

// Registers.
const (
	RegFwVersion Register = iota
	RegGpioDir
	RegGpioIn
	RegGpioOut
	RegLcdBacklight
	RegFpga
	RegInput1 // start of the 4-byte input word
	RegInput2
	RegInterrupt1
	RegInterrupt2
	RegAdcTrigger
	RegAdcVusbLo
	RegAdcVusbHi
	RegAdcVbatLo
	RegAdcVbatHi
	RegUsb
	RegBlTrigger
	RegWebusbMode
	RegCrashDebug
	RegResetLock
	RegResetAttempted
	RegChargingState
	RegAdcTempLo
	RegAdcTempHi
	RegUID0 // 8 bytes of unique board identifier
)

// Registers following the UID block.
const (
	RegScratch0    Register = RegUID0 + UIDLen
	RegIRAddressLo Register = RegScratch0 + ScratchSlots
	RegIRAddressHi Register = RegIRAddressLo + 1
	RegIRCommand   Register = RegIRAddressLo + 2
	RegIRTrigger   Register = RegIRAddressLo + 3

	RegWs2812Mode     Register = RegIRTrigger + 5
	RegWs2812Trigger  Register = RegWs2812Mode + 1
	RegWs2812Length   Register = RegWs2812Mode + 2
	RegWs2812Speed    Register = RegWs2812Mode + 3
	RegWs2812LedData0 Register = RegWs2812Mode + 4 // 4 bytes per LED, 10 LEDs

	RegMscControl Register = RegWs2812LedData0 + 4*Ws2812Leds
	RegMscState   Register = RegMscControl + 1
)

// Sizes of register blocks.
const (
	UIDLen       = 8
	ScratchSlots = 64
	Ws2812Leds   = 10
)

var registerNames = map[Register]string{
	RegFwVersion:      "FwVersion",
	RegGpioDir:        "GpioDir",
	RegGpioIn:         "GpioIn",
	RegGpioOut:        "GpioOut",
	RegLcdBacklight:   "LcdBacklight",
	RegFpga:           "Fpga",
	RegInput1:         "Input1",
	RegInput2:         "Input2",
	RegInterrupt1:     "Interrupt1",
	RegInterrupt2:     "Interrupt2",
	RegAdcTrigger:     "AdcTrigger",
	RegAdcVusbLo:      "AdcVusbLo",
	RegAdcVusbHi:      "AdcVusbHi",
	RegAdcVbatLo:      "AdcVbatLo",
	RegAdcVbatHi:      "AdcVbatHi",
	RegUsb:            "Usb",
	RegBlTrigger:      "BlTrigger",
	RegWebusbMode:     "WebusbMode",
	RegCrashDebug:     "CrashDebug",
	RegResetLock:      "ResetLock",
	RegResetAttempted: "ResetAttempted",
	RegChargingState:  "ChargingState",
	RegAdcTempLo:      "AdcTempLo",
	RegAdcTempHi:      "AdcTempHi",
	RegIRAddressLo:    "IrAddressLo",
	RegIRAddressHi:    "IrAddressHi",
	RegIRCommand:      "IrCommand",
	RegIRTrigger:      "IrTrigger",
	RegWs2812Mode:     "Ws2812Mode",
	RegWs2812Trigger:  "Ws2812Trigger",
	RegWs2812Length:   "Ws2812Length",
	RegWs2812Speed:    "Ws2812Speed",
	RegMscControl:     "MscControl",
	RegMscState:       "MscState",
}

// String implements fmt.Stringer.
func (r Register) String() string {
	if name, ok := registerNames[r]; ok {
		return name
	}
	switch {
	case r >= RegUID0 && r < RegScratch0:
		return fmt.Sprintf("UID%d", r-RegUID0)
	case r >= RegScratch0 && r < RegIRAddressLo:
		return fmt.Sprintf("Scratch%d", r-RegScratch0)
	case r >= RegWs2812LedData0 && r < RegMscControl:
		n := r - RegWs2812LedData0
		return fmt.Sprintf("Ws2812Led%dData%d", n/4, n%4)
	}
	return fmt.Sprintf("Reg(%#02x)", byte(r))
}

// ScratchRegister returns the register of a scratch slot.
func ScratchRegister(slot int) (Register, error) {
	if slot < 0 || slot >= ScratchSlots {
		return 0, fmt.Errorf("scratch slot %d out of range [0, %d)", slot, ScratchSlots)
	}
	return RegScratch0 + Register(slot), nil
}

// ParseRegister accepts a register name as printed by String, ignoring
// case, or a number in any base strconv understands.
func ParseRegister(s string) (Register, error) {
	if n, err := strconv.ParseUint(s, 0, 8); err == nil {
		return Register(n), nil
	}
	for n := 0; n < 256; n++ {
		if r := Register(n); strings.EqualFold(r.String(), s) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown register %q", s)
}
