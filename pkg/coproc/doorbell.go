package coproc

import "context"

// Doorbell is a single-slot wake-up signal. Rings while nobody waits
// collapse into one pending wake-up.
type Doorbell struct {
	ch chan struct{}
}

// Notifier rings a Doorbell. It never blocks and is safe to call from an
// interrupt callback.
type Notifier func()

// NewDoorbell creates a Doorbell.
func NewDoorbell() *Doorbell {
	return &Doorbell{ch: make(chan struct{}, 1)}
}

// Notifier returns the func which rings this doorbell.
func (b *Doorbell) Notifier() Notifier {
	ch := b.ch
	return func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Wait blocks until the doorbell rings or ctx is done.
func (b *Doorbell) Wait(ctx context.Context) error {
	select {
	case <-b.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
