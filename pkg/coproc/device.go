package coproc

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/i2c"

	fx "github.com/robotalks/badge.go/pkg/framework"
)

// DefaultTimeout bounds a single register transaction.
const DefaultTimeout = time.Second

// VBat conversion: 12-bit ADC against a 3.3V reference, sensed through a
// 100k/100k divider.
const (
	adcVolts   = 3.3 / (1 << 12)
	vbatDivide = 2.0
)

// Device is the shared handle to the coprocessor. All register access is
// serialized by the device lock, which is held for one transaction
// sequence only.
type Device struct {
	// Timeout bounds each bus transaction. A transaction which timed out
	// may still occupy the bus; the next one waits for it within its own
	// Timeout and fails without touching the bus if it is still stuck.
	Timeout time.Duration

	dev       i2c.Dev
	lock      sync.Mutex
	inflight  chan struct{}
	fwVersion byte
	bridged   bool
}

// New creates a Device on the bus at the default address.
func New(bus i2c.Bus) *Device {
	return NewWithAddr(bus, Address)
}

// NewWithAddr creates a Device at a specific address.
func NewWithAddr(bus i2c.Bus, addr uint16) *Device {
	return &Device{
		Timeout: DefaultTimeout,
		dev:     i2c.Dev{Bus: bus, Addr: addr},
	}
}

// String implements fmt.Stringer.
func (d *Device) String() string {
	return "coproc@" + d.dev.String()
}

// read performs one addressed read. Callers hold d.lock.
func (d *Device) read(reg Register, buf []byte) error {
	return d.tx("read", reg, []byte{byte(reg)}, buf)
}

// write performs one addressed write. Callers hold d.lock.
func (d *Device) write(reg Register, data []byte) error {
	out := make([]byte, 0, len(data)+1)
	out = append(out, byte(reg))
	out = append(out, data...)
	glog.V(3).Infof("write %s: % x", reg, data)
	return d.tx("write", reg, out, nil)
}

func (d *Device) tx(op string, reg Register, w, r []byte) error {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if d.inflight != nil {
		select {
		case <-d.inflight:
			d.inflight = nil
		case <-ctx.Done():
			return &BusError{Op: op, Reg: reg, Err: ctx.Err()}
		}
	}
	// r is only filled by the transaction goroutine; on timeout it is
	// replaced so a late completion cannot race with the caller.
	rbuf := r
	if len(r) > 0 {
		rbuf = make([]byte, len(r))
	}
	done := make(chan struct{})
	err := fx.RunWithContext(ctx, func() error {
		defer close(done)
		return d.dev.Tx(w, rbuf)
	})
	if err != nil {
		select {
		case <-done:
		default:
			d.inflight = done
		}
		return &BusError{Op: op, Reg: reg, Err: err}
	}
	copy(r, rbuf)
	return nil
}

// FirmwareVersion queries the firmware version and caches it for the
// version gated operations.
func (d *Device) FirmwareVersion() (byte, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	var buf [1]byte
	if err := d.read(RegFwVersion, buf[:]); err != nil {
		return 0, err
	}
	d.fwVersion = buf[0]
	return d.fwVersion, nil
}

// CachedFirmwareVersion returns the version from the last query, or
// FwVersionUnknown.
func (d *Device) CachedFirmwareVersion() byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.fwVersion
}

// ReadVBatRaw reads the 12-bit battery ADC count.
func (d *Device) ReadVBatRaw() (uint16, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if err := checkFirmware(d.fwVersion, MinFwVersionADC); err != nil {
		return 0, err
	}
	var buf [2]byte
	if err := d.read(RegAdcVbatLo, buf[:]); err != nil {
		return 0, err
	}
	return uint16(buf[1])<<8 | uint16(buf[0]), nil
}

// ReadVBat reads the battery voltage in volts.
func (d *Device) ReadVBat() (float32, error) {
	raw, err := d.ReadVBatRaw()
	if err != nil {
		return 0, err
	}
	return VBatVolts(raw), nil
}

// VBatVolts converts a raw battery ADC count to volts.
func VBatVolts(raw uint16) float32 {
	return float32(raw) * float32(adcVolts) * vbatDivide
}

// ReadInputs reads the input word and decodes it. A failed read yields
// no events so a bus hiccup never stops polling.
func (d *Device) ReadInputs() []InputEvent {
	var buf [InputWordLen]byte
	d.lock.Lock()
	err := d.read(RegInput1, buf[:])
	d.lock.Unlock()
	if err != nil {
		glog.Warningf("%s: %v", d, err)
		return nil
	}
	return DecodeInputs(DecodeInputWord(buf[:]))
}

// UniqueID reads the board identifier.
func (d *Device) UniqueID() (id [UIDLen]byte, err error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	err = d.read(RegUID0, id[:])
	return
}

// ReadScratch reads one scratch slot.
func (d *Device) ReadScratch(slot int) (byte, error) {
	reg, err := ScratchRegister(slot)
	if err != nil {
		return 0, err
	}
	buf, err := d.ReadRegister(reg, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// WriteScratch writes one scratch slot.
func (d *Device) WriteScratch(slot int, val byte) error {
	reg, err := ScratchRegister(slot)
	if err != nil {
		return err
	}
	return d.WriteRegister(reg, val)
}

// ReadRegister reads n bytes starting at reg in one transaction.
func (d *Device) ReadRegister(reg Register, n int) ([]byte, error) {
	buf := make([]byte, n)
	d.lock.Lock()
	defer d.lock.Unlock()
	if err := d.read(reg, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteRegister writes data starting at reg in one transaction.
func (d *Device) WriteRegister(reg Register, data ...byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.write(reg, data)
}

// IR trigger protocols.
const (
	IRProtoRC5 byte = 0x2
	// IRProtoRC5Toggle is sent for toggle=true, as the firmware register
	// docs name 0x3 "RC5 with toggle". Older host code sent it for
	// toggle=false.
	IRProtoRC5Toggle byte = 0x3
)

// WriteIRTriggerRC5 sends an RC5 infrared frame. This needs a coprocessor
// firmware with IR transmit support.
func (d *Device) WriteIRTriggerRC5(toggle bool, address, command uint16) error {
	proto := IRProtoRC5
	if toggle {
		proto = IRProtoRC5Toggle
	}
	return d.WriteRegister(RegIRAddressLo,
		byte(address), byte(address>>8), byte(command), proto)
}

func (d *Device) claimBridge() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.bridged {
		return ErrBridgeRunning
	}
	d.bridged = true
	return nil
}

func (d *Device) releaseBridge() {
	d.lock.Lock()
	d.bridged = false
	d.lock.Unlock()
}
