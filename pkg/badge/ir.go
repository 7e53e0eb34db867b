package badge

import (
	"fmt"

	"github.com/robotalks/badge.go/pkg/badge/msgs"
	fx "github.com/robotalks/badge.go/pkg/framework"
)

// IRTransmitter sends RC5 frames.
type IRTransmitter interface {
	WriteIRTriggerRC5(toggle bool, address, command uint16) error
}

// IRController executes IRTrigger commands.
type IRController struct {
	Transmitter IRTransmitter
}

// AddToLoop implements LoopAdder.
func (c *IRController) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvControl, c)
}

// Control implements Controller.
func (c *IRController) Control(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmd, ok := mctx.CurrentMessage().(*msgs.IRTrigger)
		if !ok {
			return
		}
		mctx.MessageTaken()
		if cmd.Address > 0xffff || cmd.Command > 0xff {
			errs.Add(fmt.Errorf("ir: address %#x or command %#x out of range", cmd.Address, cmd.Command))
			return
		}
		errs.Add(c.Transmitter.WriteIRTriggerRC5(cmd.Toggle, uint16(cmd.Address), uint16(cmd.Command)))
	}))
	return errs.Aggregate()
}
