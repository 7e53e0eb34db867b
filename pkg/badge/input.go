package badge

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/badge.go/pkg/badge/msgs"
	"github.com/robotalks/badge.go/pkg/coproc"
	fx "github.com/robotalks/badge.go/pkg/framework"
)

// InputPump moves events from the bridge into the loop.
type InputPump struct {
	Events *coproc.EventChannel
}

// AddToLoop implements LoopAdder.
func (p *InputPump) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(p)
}

// Run implements Runnable. The channel is closed on return so the bridge
// stops blocking on it.
func (p *InputPump) Run(ctx context.Context) error {
	defer p.Events.Close()
	loopCtl := fx.LoopCtlFrom(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-p.Events.Events():
			glog.V(2).Infof("input: %v", ev)
			loopCtl.PostMessage(msgs.NewInputEvent(ev, time.Now()))
			loopCtl.TriggerNext()
		}
	}
}

// Drain takes the messages left over by all other controllers.
type Drain struct{}

// AddToLoop implements LoopAdder.
func (d Drain) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvIdle, d)
}

// Control implements Controller.
func (Drain) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		mctx.MessageTaken()
	}))
	return nil
}
