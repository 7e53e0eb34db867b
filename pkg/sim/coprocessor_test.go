package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"

	"github.com/robotalks/badge.go/pkg/coproc"
)

func TestRegisters(t *testing.T) {
	c := NewCoprocessor(DefaultFwVersion)
	dev := coproc.New(c)
	v, err := dev.FirmwareVersion()
	require.NoError(t, err)
	assert.Equal(t, DefaultFwVersion, v)

	c.SetVBatRaw(2048)
	volts, err := dev.ReadVBat()
	require.NoError(t, err)
	assert.InDelta(t, 3.3, volts, 0.001)

	id, err := dev.UniqueID()
	require.NoError(t, err)
	assert.Equal(t, "badgesim", string(id[:]))

	require.NoError(t, dev.WriteScratch(63, 7))
	assert.Equal(t, byte(7), c.Register(coproc.RegScratch0+63))

	require.NoError(t, dev.WriteIRTriggerRC5(true, 0x0102, 0x0c))
	assert.Equal(t, []IRFrame{{Address: 0x0102, Command: 0x0c, Proto: coproc.IRProtoRC5Toggle}}, c.IRFrames())
}

func TestInputWord(t *testing.T) {
	c := NewCoprocessor(DefaultFwVersion)
	dev := coproc.New(c)
	assert.Empty(t, dev.ReadInputs())

	c.Press(coproc.InputAccept)
	c.Press(coproc.InputAccept)
	assert.Equal(t, gpio.Low, <-c.Pin.EdgesChan)
	c.Press(coproc.InputJoystickUp)
	assert.Empty(t, c.Pin.EdgesChan)
	assert.Equal(t, []coproc.InputEvent{
		{Input: coproc.InputAccept},
		{Input: coproc.InputJoystickUp},
	}, dev.ReadInputs())
	// cleared on read
	assert.Empty(t, dev.ReadInputs())
	assert.Equal(t, gpio.High, c.Pin.Read())

	c.Release(coproc.InputAccept)
	assert.Equal(t, []coproc.InputEvent{{Input: coproc.InputAccept, Released: true}}, dev.ReadInputs())
	assert.Equal(t, uint16(1)<<uint(coproc.InputJoystickUp), c.Levels())
}

func TestFail(t *testing.T) {
	c := NewCoprocessor(DefaultFwVersion)
	dev := coproc.New(c)
	failure := errors.New("nak")
	c.Fail(failure)
	_, err := dev.FirmwareVersion()
	var busErr *coproc.BusError
	require.ErrorAs(t, err, &busErr)
	assert.ErrorIs(t, err, failure)
	assert.Empty(t, dev.ReadInputs())
	c.Fail(nil)
	_, err = dev.FirmwareVersion()
	require.NoError(t, err)
	assert.Equal(t, 3, c.Transactions())
}

func nextEvent(t *testing.T, ch *coproc.EventChannel) coproc.InputEvent {
	select {
	case ev := <-ch.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
	return coproc.InputEvent{}
}

func TestBridgeEndToEnd(t *testing.T) {
	c := NewCoprocessor(1)
	dev := coproc.New(c)
	// latched before the bridge starts
	c.Press(coproc.InputFpgaCdone)

	events := coproc.NewEventChannel(0)
	bridge := coproc.NewBridge(dev, events)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, bridge.Start(ctx, coproc.NewEdgePin(c.Pin)))
	assert.Equal(t, coproc.InputEvent{Input: coproc.InputFpgaCdone}, nextEvent(t, events))

	c.Press(coproc.InputHome)
	assert.Equal(t, coproc.InputEvent{Input: coproc.InputHome}, nextEvent(t, events))
	c.Release(coproc.InputHome)
	assert.Equal(t, coproc.InputEvent{Input: coproc.InputHome, Released: true}, nextEvent(t, events))

	// battery telemetry is refused by this firmware
	_, err := dev.ReadVBat()
	var fwErr *coproc.UnsupportedFirmwareError
	require.ErrorAs(t, err, &fwErr)

	cancel()
	select {
	case <-bridge.Done():
	case <-time.After(time.Second):
		t.Fatal("bridge did not stop")
	}
}
