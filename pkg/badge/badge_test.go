package badge

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/badge.go/pkg/badge/msgs"
	"github.com/robotalks/badge.go/pkg/coproc"
	"github.com/robotalks/badge.go/pkg/display"
	fx "github.com/robotalks/badge.go/pkg/framework"
	"github.com/robotalks/badge.go/pkg/sim"
)

type fakeBattery struct {
	raw   uint16
	err   error
	reads int
}

func (b *fakeBattery) ReadVBatRaw() (uint16, error) {
	b.reads++
	return b.raw, b.err
}

type collector struct {
	seen []fx.Message
}

func (c *collector) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		c.seen = append(c.seen, mctx.CurrentMessage())
		mctx.MessageTaken()
	}))
	return nil
}

func TestBatteryMonitor(t *testing.T) {
	reader := &fakeBattery{raw: 2048}
	mon := NewBatteryMonitor(reader)
	mon.Interval = time.Hour
	out := &collector{}
	loop := fx.NewLoop()
	loop.Add(mon)
	loop.AddController(fx.PrLvIdle, out)

	loop.PostMessage(msgs.NewInputEvent(coproc.InputEvent{Input: coproc.InputBatteryCharging}, time.Now()))
	loop.RunIteration(context.Background())
	loop.RunIteration(context.Background())
	require.Equal(t, 1, reader.reads)
	require.Len(t, out.seen, 2)
	status, ok := out.seen[1].(*msgs.BatteryStatus)
	require.True(t, ok)
	assert.InDelta(t, 3.3, status.Volts, 0.001)
	assert.Equal(t, uint32(2048), status.Raw)
	assert.True(t, status.Charging)
}

func TestBatteryMonitorErrors(t *testing.T) {
	reader := &fakeBattery{err: &coproc.BusError{Op: "read", Reg: coproc.RegAdcVbatLo, Err: errors.New("nak")}}
	mon := NewBatteryMonitor(reader)
	mon.Interval = 0
	loop := fx.NewLoop()
	loop.Add(mon, Drain{})

	loop.RunIteration(context.Background())
	loop.RunIteration(context.Background())
	assert.Equal(t, 2, reader.reads)
	assert.False(t, mon.Disabled())

	reader.err = &coproc.UnsupportedFirmwareError{Version: 1}
	loop.RunIteration(context.Background())
	loop.RunIteration(context.Background())
	assert.Equal(t, 3, reader.reads)
	assert.True(t, mon.Disabled())
	assert.Zero(t, loop.Pending())
}

type fakeIR struct {
	frames [][3]uint16
	err    error
}

func (f *fakeIR) WriteIRTriggerRC5(toggle bool, address, command uint16) error {
	var tg uint16
	if toggle {
		tg = 1
	}
	f.frames = append(f.frames, [3]uint16{tg, address, command})
	return f.err
}

func TestIRController(t *testing.T) {
	ir := &fakeIR{}
	ctl := &IRController{Transmitter: ir}
	var lastErr error
	loop := fx.NewLoop()
	loop.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		lastErr = ctl.Control(cc)
		return lastErr
	}))
	loop.PostMessage(&msgs.IRTrigger{Address: 0x1234, Command: 0x0c, Toggle: true})
	loop.PostMessage(&msgs.IRTrigger{Address: 0x10000})
	loop.RunIteration(context.Background())
	assert.Equal(t, [][3]uint16{{1, 0x1234, 0x0c}}, ir.frames)
	assert.Error(t, lastErr)
	assert.Zero(t, loop.Pending())

	ir.err = errors.New("write failed")
	loop.PostMessage(&msgs.IRTrigger{Address: 1, Command: 2})
	loop.RunIteration(context.Background())
	assert.Len(t, ir.frames, 2)
	assert.EqualError(t, lastErr, "write failed")
}

func TestStatusScreen(t *testing.T) {
	sink := display.NewImageSink(100, 60)
	canvas := display.NewBufferedCanvas(100, 60, sink)
	screen := &StatusScreen{Canvas: canvas}
	loop := fx.NewLoop()
	loop.Add(screen, &Flusher{Canvas: canvas}, Drain{})

	loop.RunIteration(context.Background())
	require.Equal(t, 1, sink.Transfers())
	loop.RunIteration(context.Background())
	require.Equal(t, 1, sink.Transfers())

	loop.PostMessage(msgs.NewInputEvent(coproc.InputEvent{Input: coproc.InputSelect}, time.Now()))
	loop.PostMessage(&msgs.BatteryStatus{Volts: BatteryFull})
	loop.RunIteration(context.Background())
	assert.True(t, screen.Pressed(coproc.InputSelect))
	assert.False(t, screen.Pressed(coproc.InputHome))

	img := sink.Snapshot()
	assert.Equal(t, rgba(ColorPressed), img.At(center(screen.TileRect(coproc.InputSelect))))
	assert.Equal(t, rgba(ColorReleased), img.At(center(screen.TileRect(coproc.InputHome))))
	assert.Equal(t, rgba(ColorBattery), img.At(center(screen.GaugeRect())))
	assert.Zero(t, loop.Pending())
}

func rgba(c display.RGB565) color.Color {
	return color.RGBAModel.Convert(c)
}

func center(r image.Rectangle) (int, int) {
	return (r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2
}

func TestInputPumpWithSimulator(t *testing.T) {
	copro := sim.NewCoprocessor(sim.DefaultFwVersion)
	dev := coproc.New(copro)
	events := coproc.NewEventChannel(0)
	bridge := coproc.NewBridge(dev, events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, bridge.Start(ctx, coproc.NewEdgePin(copro.Pin)))

	sink := display.NewImageSink(100, 60)
	canvas := display.NewBufferedCanvas(100, 60, sink)
	screen := &StatusScreen{Canvas: canvas}
	loop := fx.NewLoop()
	loop.Interval = time.Hour
	loop.Add(&InputPump{Events: events}, screen, &Flusher{Canvas: canvas}, Drain{})
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	copro.Press(coproc.InputAccept)
	require.Eventually(t, func() bool { return screen.Pressed(coproc.InputAccept) }, time.Second, time.Millisecond)
	copro.Release(coproc.InputAccept)
	require.Eventually(t, func() bool { return !screen.Pressed(coproc.InputAccept) }, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	// the pump closed the channel on exit
	assert.ErrorIs(t, events.Send(coproc.InputEvent{}), coproc.ErrChannelClosed)
}
