package coproc

import "sync"

// DefaultEventChannelSize is the buffer size of NewEventChannel(0).
const DefaultEventChannelSize = 16

// EventChannel carries decoded events from the Bridge to the application.
// Send never blocks: when the buffer is full the event is refused with
// ErrChannelFull, and once the consumer closed the channel with
// ErrChannelClosed.
type EventChannel struct {
	ch        chan InputEvent
	closed    chan struct{}
	closeOnce sync.Once
}

// NewEventChannel creates an EventChannel with the given buffer size.
func NewEventChannel(size int) *EventChannel {
	if size <= 0 {
		size = DefaultEventChannelSize
	}
	return &EventChannel{
		ch:     make(chan InputEvent, size),
		closed: make(chan struct{}),
	}
}

// Send delivers an event if there is buffer space.
func (c *EventChannel) Send(ev InputEvent) error {
	select {
	case <-c.closed:
		return ErrChannelClosed
	default:
	}
	select {
	case c.ch <- ev:
		return nil
	default:
		return ErrChannelFull
	}
}

// Events returns the receiving side.
func (c *EventChannel) Events() <-chan InputEvent {
	return c.ch
}

// Done is closed once the consumer has closed the channel.
func (c *EventChannel) Done() <-chan struct{} {
	return c.closed
}

// Close is called by the consumer when it stops receiving.
func (c *EventChannel) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}
