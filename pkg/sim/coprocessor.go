package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"

	"github.com/robotalks/badge.go/pkg/coproc"
)

// DefaultFwVersion is the firmware version reported by default.
const DefaultFwVersion byte = 2

// DefaultVBatRaw is about 3.9V.
const DefaultVBatRaw uint16 = 2420

// IRFrame is an infrared transmission requested by the host.
type IRFrame struct {
	Address uint16
	Command byte
	Proto   byte
}

// Coprocessor simulates the input and telemetry side of the coprocessor
// on an i2c.Bus. Its interrupt line is Pin, which falls when an input
// changes and rises once the input word is read.
type Coprocessor struct {
	Pin *gpiotest.Pin

	lock    sync.Mutex
	regs    [256]byte
	levels  uint16
	changes uint16
	fail    error
	txCount int
	irLog   []IRFrame
}

// NewCoprocessor creates a Coprocessor reporting the firmware version.
func NewCoprocessor(fwVersion byte) *Coprocessor {
	c := &Coprocessor{
		Pin: &gpiotest.Pin{
			N:         "SIM_INT",
			L:         gpio.High,
			EdgesChan: make(chan gpio.Level, 16),
		},
	}
	c.regs[coproc.RegFwVersion] = fwVersion
	copy(c.regs[coproc.RegUID0:], "badgesim")
	c.setVBatRaw(DefaultVBatRaw)
	return c
}

// String implements i2c.Bus.
func (c *Coprocessor) String() string {
	return "sim"
}

// SetSpeed implements i2c.Bus.
func (c *Coprocessor) SetSpeed(f physic.Frequency) error {
	return nil
}

// Tx implements i2c.Bus.
func (c *Coprocessor) Tx(addr uint16, w, r []byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.txCount++
	if c.fail != nil {
		return c.fail
	}
	if addr != coproc.Address {
		return fmt.Errorf("sim: no device at %#x", addr)
	}
	if len(w) == 0 {
		return errors.New("sim: missing register address")
	}
	reg := int(w[0])
	if data := w[1:]; len(data) > 0 {
		if reg+len(data) > len(c.regs) {
			return fmt.Errorf("sim: write beyond register %#x", reg)
		}
		copy(c.regs[reg:], data)
		c.written(coproc.Register(reg), data)
	}
	if len(r) == 0 {
		return nil
	}
	if reg+len(r) > len(c.regs) {
		return fmt.Errorf("sim: read beyond register %#x", reg)
	}
	if coproc.Register(reg) == coproc.RegInput1 && len(r) >= coproc.InputWordLen {
		c.readInputs(r[:coproc.InputWordLen])
		copy(r[coproc.InputWordLen:], c.regs[reg+coproc.InputWordLen:])
		return nil
	}
	copy(r, c.regs[reg:])
	return nil
}

func (c *Coprocessor) written(reg coproc.Register, data []byte) {
	if reg == coproc.RegIRAddressLo && len(data) >= 4 {
		frame := IRFrame{
			Address: uint16(data[0]) | uint16(data[1])<<8,
			Command: data[2],
			Proto:   data[3],
		}
		c.irLog = append(c.irLog, frame)
		glog.V(2).Infof("sim: IR %+v", frame)
	}
}

// readInputs reports and clears the change mask, releasing the line.
func (c *Coprocessor) readInputs(buf []byte) {
	buf[0], buf[1] = byte(c.levels), byte(c.levels>>8)
	buf[2], buf[3] = byte(c.changes), byte(c.changes>>8)
	if c.changes != 0 {
		c.changes = 0
		c.Pin.Out(gpio.High)
	}
}

// Press presses an input.
func (c *Coprocessor) Press(in coproc.Input) {
	c.SetInput(in, true)
}

// Release releases an input.
func (c *Coprocessor) Release(in coproc.Input) {
	c.SetInput(in, false)
}

// SetInput changes the level of an input. A change latches the change
// bit and pulls the interrupt line low if it was high.
func (c *Coprocessor) SetInput(in coproc.Input, pressed bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	mask := uint16(1) << uint(in)
	levels := c.levels &^ mask
	if pressed {
		levels |= mask
	}
	if levels == c.levels {
		return
	}
	c.levels = levels
	if c.changes == 0 {
		select {
		case c.Pin.EdgesChan <- gpio.Low:
		default:
			glog.Warning("sim: interrupt edges overflow")
		}
	}
	c.changes |= mask
}

// Levels returns the current input levels.
func (c *Coprocessor) Levels() uint16 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.levels
}

// SetVBatRaw sets the battery ADC count.
func (c *Coprocessor) SetVBatRaw(raw uint16) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.setVBatRaw(raw)
}

func (c *Coprocessor) setVBatRaw(raw uint16) {
	c.regs[coproc.RegAdcVbatLo] = byte(raw)
	c.regs[coproc.RegAdcVbatHi] = byte(raw >> 8)
}

// Fail makes every transaction fail with err until Fail(nil).
func (c *Coprocessor) Fail(err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.fail = err
}

// Transactions returns the number of bus transactions seen.
func (c *Coprocessor) Transactions() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.txCount
}

// Register returns the raw value of a register.
func (c *Coprocessor) Register(reg coproc.Register) byte {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.regs[reg]
}

// IRFrames returns the infrared frames sent so far.
func (c *Coprocessor) IRFrames() []IRFrame {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]IRFrame(nil), c.irLog...)
}
