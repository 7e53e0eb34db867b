package coproc

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
)

// InterruptPin is the interrupt line from the coprocessor.
type InterruptPin interface {
	// SetFallingEdge configures the pin to trigger on a falling edge.
	SetFallingEdge() error
	// Subscribe registers the wake callback. It may be called only once.
	// The callback runs in interrupt context and must not block.
	Subscribe(func()) error
	// EnableInterrupt arms detection of the next edge only.
	EnableInterrupt() error
}

// BridgeState is the state of the Bridge goroutine.
type BridgeState int32

// Bridge states.
const (
	BridgeInit BridgeState = iota
	BridgeArmed
	BridgeWaiting
	BridgeProcessing
	BridgeStopped
)

func (s BridgeState) String() string {
	switch s {
	case BridgeInit:
		return "INIT"
	case BridgeArmed:
		return "ARMED"
	case BridgeWaiting:
		return "WAITING"
	case BridgeProcessing:
		return "PROCESSING"
	case BridgeStopped:
		return "STOPPED"
	}
	return fmt.Sprintf("BridgeState(%d)", int32(s))
}

// Bridge waits for the coprocessor interrupt and forwards the decoded
// input events. There is exactly one Bridge per Device.
type Bridge struct {
	Device *Device
	Events *EventChannel
	// Fatal is called when the interrupt cannot be re-armed, after which no
	// further edge would ever be seen. Defaults to glog.Fatalf.
	Fatal func(error)

	state    atomic.Int32
	done     chan struct{}
	stopOnce sync.Once
}

// NewBridge creates a Bridge.
func NewBridge(dev *Device, events *EventChannel) *Bridge {
	return &Bridge{
		Device: dev,
		Events: events,
		done:   make(chan struct{}),
	}
}

// State returns the current state.
func (b *Bridge) State() BridgeState {
	return BridgeState(b.state.Load())
}

// Done is closed when the bridge goroutine exits.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Start configures the pin and starts the bridge goroutine. The firmware
// version is queried first and must support the interrupt.
//
// ctx only ends the wait for the next edge; the pin is never released.
func (b *Bridge) Start(ctx context.Context, pin InterruptPin) error {
	if err := b.Device.claimBridge(); err != nil {
		return err
	}
	version, err := b.Device.FirmwareVersion()
	if err == nil {
		err = checkFirmware(version, MinFwVersionInterrupt)
	}
	if err == nil {
		if err = pin.SetFallingEdge(); err != nil {
			err = fmt.Errorf("configure interrupt pin: %w", err)
		}
	}
	if err != nil {
		b.Device.releaseBridge()
		b.stop()
		return err
	}
	return b.launch(ctx, pin, version)
}

func (b *Bridge) launch(ctx context.Context, pin InterruptPin, version byte) error {
	notifierCh := make(chan Notifier)
	pinCh := make(chan InterruptPin, 1)
	go b.run(ctx, notifierCh, pinCh)

	// The callback captures the notifier, so it must be known before
	// subscribing.
	notify := <-notifierCh
	if err := pin.Subscribe(func() { notify() }); err != nil {
		close(pinCh)
		<-b.done
		b.Device.releaseBridge()
		return fmt.Errorf("subscribe interrupt: %w", err)
	}
	pinCh <- pin
	glog.Infof("%s: interrupt bridge started, firmware %#x", b.Device, version)
	return nil
}

func (b *Bridge) setState(s BridgeState) {
	b.state.Store(int32(s))
}

func (b *Bridge) stop() {
	b.stopOnce.Do(func() {
		b.setState(BridgeStopped)
		close(b.done)
	})
}

func (b *Bridge) run(ctx context.Context, notifierCh chan<- Notifier, pinCh <-chan InterruptPin) {
	defer b.stop()

	bell := NewDoorbell()
	notifierCh <- bell.Notifier()
	// The pin is kept until this goroutine exits.
	pin, ok := <-pinCh
	if !ok {
		return
	}
	defer b.Device.releaseBridge()

	// The first pass drains whatever was latched before the pin was armed.
	for {
		b.setState(BridgeProcessing)
		b.process()

		b.setState(BridgeArmed)
		if err := pin.EnableInterrupt(); err != nil {
			b.fatal(fmt.Errorf("%s: re-arm interrupt: %w", b.Device, err))
			return
		}

		b.setState(BridgeWaiting)
		glog.V(3).Infof("%s: waiting for interrupt", b.Device)
		if err := bell.Wait(ctx); err != nil {
			glog.Infof("%s: interrupt bridge stopped: %v", b.Device, err)
			return
		}
	}
}

// process reads the input word and forwards the events. The device lock
// is only held during the read.
func (b *Bridge) process() {
	for _, ev := range b.Device.ReadInputs() {
		glog.V(2).Infof("%s: %v", b.Device, ev)
		if err := b.Events.Send(ev); err != nil {
			glog.Warningf("%s: drop %v: %v", b.Device, ev, err)
		}
	}
}

func (b *Bridge) fatal(err error) {
	if fn := b.Fatal; fn != nil {
		fn(err)
		return
	}
	glog.Fatalf("%v", err)
}
