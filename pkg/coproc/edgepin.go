package coproc

import (
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
)

// EdgePin adapts a periph gpio.PinIn to InterruptPin. Each EnableInterrupt
// starts one wait for the next falling edge; the callback fires once per
// arming.
type EdgePin struct {
	Pin  gpio.PinIn
	Pull gpio.Pull

	lock     sync.Mutex
	callback func()
	armed    bool
}

var errNoCallback = errors.New("interrupt armed without a callback")

// NewEdgePin wraps pin, leaving its pull resistor untouched.
func NewEdgePin(pin gpio.PinIn) *EdgePin {
	return &EdgePin{Pin: pin, Pull: gpio.PullNoChange}
}

// String implements fmt.Stringer.
func (p *EdgePin) String() string {
	return p.Pin.String()
}

// SetFallingEdge implements InterruptPin.
func (p *EdgePin) SetFallingEdge() error {
	return p.Pin.In(p.Pull, gpio.FallingEdge)
}

// Subscribe implements InterruptPin.
func (p *EdgePin) Subscribe(fn func()) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.callback != nil {
		return ErrAlreadySubscribed
	}
	p.callback = fn
	return nil
}

// EnableInterrupt implements InterruptPin. Arming an already armed pin is
// a no-op.
func (p *EdgePin) EnableInterrupt() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.callback == nil {
		return errNoCallback
	}
	if !p.armed {
		p.armed = true
		go p.waitEdge(p.callback)
	}
	return nil
}

// Armed reports whether an edge wait is outstanding.
func (p *EdgePin) Armed() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.armed
}

func (p *EdgePin) waitEdge(fn func()) {
	edge := p.Pin.WaitForEdge(time.Duration(-1))
	p.lock.Lock()
	p.armed = false
	p.lock.Unlock()
	if !edge {
		glog.V(2).Infof("%s: edge wait aborted", p)
		return
	}
	fn()
}
