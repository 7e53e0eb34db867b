package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/badge.go/pkg/badge/msgs"
	fx "github.com/robotalks/badge.go/pkg/framework"
)

// Topics under the device ID.
const (
	MetaTopic    = "meta"
	InputTopic   = "input"
	BatteryTopic = "battery"
	CommandTopic = "cmd"
)

// Meta describes the badge. It is retained on the meta topic while the
// publisher is connected and cleared by the will when it goes away.
type Meta struct {
	Firmware byte              `json:"firmware"`
	UID      string            `json:"uid,omitempty"`
	Labels   map[string]string `json:"labels,omitempty"`
}

// Publisher sends telemetry messages taken from the loop and posts
// commands received on the command topic into the loop.
type Publisher struct {
	Queue    *Queue
	DeviceID string
	Meta     Meta
}

// NewPublisher creates a Publisher.
func NewPublisher(brokerURL, deviceID string, meta Meta) (*Publisher, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+deviceID+"/"+MetaTopic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("badge:" + deviceID)
	}
	p := &Publisher{
		Queue:    NewQueue(opts, topicPrefix),
		DeviceID: deviceID,
		Meta:     meta,
	}
	p.Queue.OnConnect = func(*Queue) { p.publishMeta() }
	return p, nil
}

// Topic returns the topic name under the device ID.
func (p *Publisher) Topic(name string) string {
	return p.DeviceID + "/" + name
}

// AddToLoop implements LoopAdder.
func (p *Publisher) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvOutput, p)
}

// Control implements Controller.
func (p *Publisher) Control(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		msg := mctx.CurrentMessage()
		topic := eventTopic(msg)
		if topic == "" {
			return
		}
		data, err := msgs.Encode(msg)
		if err != nil {
			errs.Add(err)
			return
		}
		p.Queue.Pub(p.Topic(topic), data)
	}))
	return errs.Aggregate()
}

func eventTopic(msg fx.Message) string {
	switch msg.(type) {
	case *msgs.InputEvent:
		return InputTopic
	case *msgs.BatteryStatus:
		return BatteryTopic
	}
	return ""
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	loop := fx.LoopCtlFrom(ctx)
	sub := p.Queue.Sub(p.Topic(CommandTopic), func(topic string, payload []byte) {
		p.handleCommand(loop, payload)
	})
	p.Queue.Connect()
	<-ctx.Done()
	sub.Close()
	p.Queue.PubWith(p.Topic(MetaTopic), nil, 1, true).WaitTimeout(time.Second)
	return p.Queue.Close()
}

func (p *Publisher) handleCommand(loop fx.LoopControl, payload []byte) {
	typed, err := msgs.DecodeTyped(payload)
	if err != nil {
		glog.Warningf("invalid command: %v", err)
		return
	}
	if !typed.IsCommand() {
		glog.Warningf("ignore non-command type %x", typed.TypeID)
		return
	}
	msg, err := typed.Decode()
	if err != nil {
		glog.Warningf("decode command: %v", err)
		return
	}
	loop.PostMessage(msg)
	loop.TriggerNext()
}

func (p *Publisher) publishMeta() {
	meta, err := json.Marshal(&p.Meta)
	if err != nil {
		glog.Errorf("encode meta: %v", err)
		return
	}
	p.Queue.PubWith(p.Topic(MetaTopic), meta, 1, true)
}
