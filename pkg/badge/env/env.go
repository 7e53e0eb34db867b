// Package env assembles the badge daemon from a Config.
package env

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/robotalks/badge.go/pkg/badge"
	"github.com/robotalks/badge.go/pkg/coproc"
	"github.com/robotalks/badge.go/pkg/display"
	fx "github.com/robotalks/badge.go/pkg/framework"
	"github.com/robotalks/badge.go/pkg/monitor"
	"github.com/robotalks/badge.go/pkg/sim"
	"github.com/robotalks/badge.go/pkg/telemetry/mqtt"
)

// Env holds the wired components of the badge.
type Env struct {
	Config *Config

	Device *coproc.Device
	Pin    coproc.InterruptPin
	Events *coproc.EventChannel
	Bridge *coproc.Bridge

	Panel  *display.ImageSink
	Canvas display.Canvas

	// Sim is set when running against the simulator.
	Sim       *sim.Coprocessor
	Publisher *mqtt.Publisher
	Monitor   *monitor.Hub

	closers []io.Closer
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	mode, err := display.ParseMode(c.DisplayMode)
	if err != nil {
		return nil, err
	}
	if c.DisplayWidth <= 0 || c.DisplayHeight <= 0 || c.DisplayWidth > 0xffff || c.DisplayHeight > 0xffff {
		return nil, fmt.Errorf("invalid display size %dx%d", c.DisplayWidth, c.DisplayHeight)
	}
	e := &Env{Config: c}

	var bus i2c.Bus
	if c.Sim {
		e.Sim = sim.NewCoprocessor(sim.DefaultFwVersion)
		bus, e.Pin = e.Sim, coproc.NewEdgePin(e.Sim.Pin)
	} else if bus, e.Pin, err = e.openHardware(); err != nil {
		e.Close()
		return nil, err
	}

	e.Device = coproc.New(bus)
	e.Device.Timeout = c.BusTimeout
	e.Events = coproc.NewEventChannel(c.EventBuffer)
	e.Bridge = coproc.NewBridge(e.Device, e.Events)

	e.Panel = display.NewImageSink(c.DisplayWidth, c.DisplayHeight)
	if e.Canvas, err = display.NewCanvas(mode, uint16(c.DisplayWidth), uint16(c.DisplayHeight), e.Panel); err != nil {
		e.Close()
		return nil, err
	}

	if c.MQTTBrokerURL != "" {
		if c.ID == "" {
			e.Close()
			return nil, fmt.Errorf("device id must be specified for MQTT")
		}
		if e.Publisher, err = mqtt.NewPublisher(c.MQTTBrokerURL, c.ID, mqtt.Meta{}); err != nil {
			e.Close()
			return nil, fmt.Errorf("create MQTT publisher error: %v", err)
		}
	}
	if c.MonitorAddr != "" {
		e.Monitor = monitor.NewHub(c.MonitorAddr)
	}
	return e, nil
}

func (e *Env) openHardware() (i2c.Bus, coproc.InterruptPin, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("periph init: %v", err)
	}
	bus, err := i2creg.Open(e.Config.I2CBus)
	if err != nil {
		return nil, nil, fmt.Errorf("open I2C bus %q: %v", e.Config.I2CBus, err)
	}
	e.closers = append(e.closers, bus)
	p := gpioreg.ByName(e.Config.IntPin)
	if p == nil {
		return nil, nil, fmt.Errorf("unknown interrupt pin %q", e.Config.IntPin)
	}
	pin := coproc.NewEdgePin(p)
	pin.Pull = gpio.PullUp
	glog.Infof("coprocessor on %s, interrupt %s", bus, p)
	return bus, pin, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// Start starts the interrupt bridge and fills the device meta.
func (e *Env) Start(ctx context.Context) error {
	if err := e.Bridge.Start(ctx, e.Pin); err != nil {
		return err
	}
	if e.Publisher != nil {
		e.Publisher.Meta.Firmware = e.Device.CachedFirmwareVersion()
		if uid, err := e.Device.UniqueID(); err == nil {
			e.Publisher.Meta.UID = hex.EncodeToString(uid[:])
		} else {
			glog.Warningf("read UID: %v", err)
		}
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (e *Env) AddToLoop(loop *fx.Loop) {
	battery := badge.NewBatteryMonitor(e.Device)
	battery.Interval = e.Config.BatteryInterval
	loop.Add(
		&badge.InputPump{Events: e.Events},
		battery,
		&badge.IRController{Transmitter: e.Device},
		&badge.StatusScreen{Canvas: e.Canvas},
		&badge.Flusher{Canvas: e.Canvas},
		badge.Drain{},
	)
	if e.Publisher != nil {
		loop.Add(e.Publisher)
	}
	if e.Monitor != nil {
		loop.Add(e.Monitor)
	}
}

// Close dumps the panel if requested and releases the hardware.
func (e *Env) Close() error {
	var errs fx.AggregatedError
	if e.Panel != nil && e.Config.PNGPath != "" {
		errs.Add(e.Panel.SavePNG(e.Config.PNGPath))
	}
	for _, c := range e.closers {
		errs.Add(c.Close())
	}
	e.closers = nil
	return errs.Aggregate()
}
