package badge

import (
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/badge.go/pkg/badge/msgs"
	"github.com/robotalks/badge.go/pkg/coproc"
	fx "github.com/robotalks/badge.go/pkg/framework"
)

// DefaultBatteryInterval is the default polling interval.
const DefaultBatteryInterval = 10 * time.Second

// BatteryReader reads the battery ADC.
type BatteryReader interface {
	ReadVBatRaw() (uint16, error)
}

// BatteryMonitor polls the battery voltage and posts BatteryStatus. It
// stops polling for good when the firmware can't report it.
type BatteryMonitor struct {
	Reader   BatteryReader
	Interval time.Duration

	next     time.Time
	charging bool
	disabled bool
}

// NewBatteryMonitor creates a BatteryMonitor.
func NewBatteryMonitor(reader BatteryReader) *BatteryMonitor {
	return &BatteryMonitor{Reader: reader, Interval: DefaultBatteryInterval}
}

// AddToLoop implements LoopAdder.
func (m *BatteryMonitor) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvSense, m)
}

// Disabled reports whether polling stopped.
func (m *BatteryMonitor) Disabled() bool {
	return m.disabled
}

// Control implements Controller.
func (m *BatteryMonitor) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		if ev, ok := mctx.CurrentMessage().(*msgs.InputEvent); ok &&
			coproc.Input(ev.Input) == coproc.InputBatteryCharging {
			m.charging = !ev.Released
		}
	}))
	if m.disabled || cc.Time().Before(m.next) {
		return nil
	}
	m.next = cc.Time().Add(m.Interval)

	raw, err := m.Reader.ReadVBatRaw()
	var fwErr *coproc.UnsupportedFirmwareError
	switch {
	case errors.As(err, &fwErr):
		glog.Warningf("battery: %v, polling disabled", err)
		m.disabled = true
		return nil
	case err != nil:
		glog.Warningf("battery: %v", err)
		return nil
	}
	status := &msgs.BatteryStatus{
		Volts:     coproc.VBatVolts(raw),
		Raw:       uint32(raw),
		Charging:  m.charging,
		Timestamp: cc.Time().UnixNano(),
	}
	glog.V(2).Infof("battery: %v", status)
	cc.PostMessage(status)
	return nil
}
