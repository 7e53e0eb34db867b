package msgs

import (
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/badge.go/pkg/coproc"
	fx "github.com/robotalks/badge.go/pkg/framework"
)

// InputEvent reports an edge on a named input.
type InputEvent struct {
	Input     uint32 `protobuf:"varint,1,opt,name=input,proto3" json:"input"`
	Name      string `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	Released  bool   `protobuf:"varint,3,opt,name=released,proto3" json:"released"`
	Timestamp int64  `protobuf:"varint,4,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// NewInputEvent converts a decoded event.
func NewInputEvent(ev coproc.InputEvent, at time.Time) *InputEvent {
	return &InputEvent{
		Input:     uint32(ev.Input),
		Name:      ev.Input.String(),
		Released:  ev.Released,
		Timestamp: at.UnixNano(),
	}
}

// Event converts back to the decoded form.
func (m *InputEvent) Event() coproc.InputEvent {
	return coproc.InputEvent{Input: coproc.Input(m.Input), Released: m.Released}
}

// NewMessage implements SerializableMessage.
func (m *InputEvent) NewMessage() fx.Message { return &InputEvent{} }

// TypeID implements SerializableMessage.
func (m *InputEvent) TypeID() uint32 { return InputEventTypeID }

// Serializable implements SerializableMessage.
func (m *InputEvent) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *InputEvent) ProtoMessage() {}

// Reset implements proto.Message.
func (m *InputEvent) Reset() { *m = InputEvent{} }

// String implements proto.Message.
func (m *InputEvent) String() string { return proto.CompactTextString(m) }

// BatteryStatus reports the battery voltage.
type BatteryStatus struct {
	Volts     float32 `protobuf:"fixed32,1,opt,name=volts,proto3" json:"volts"`
	Raw       uint32  `protobuf:"varint,2,opt,name=raw,proto3" json:"raw"`
	Charging  bool    `protobuf:"varint,3,opt,name=charging,proto3" json:"charging"`
	Timestamp int64   `protobuf:"varint,4,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// NewMessage implements SerializableMessage.
func (m *BatteryStatus) NewMessage() fx.Message { return &BatteryStatus{} }

// TypeID implements SerializableMessage.
func (m *BatteryStatus) TypeID() uint32 { return BatteryStatusTypeID }

// Serializable implements SerializableMessage.
func (m *BatteryStatus) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *BatteryStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *BatteryStatus) Reset() { *m = BatteryStatus{} }

// String implements proto.Message.
func (m *BatteryStatus) String() string { return proto.CompactTextString(m) }

// IRTrigger asks the badge to transmit an RC5 frame.
type IRTrigger struct {
	Address uint32 `protobuf:"varint,1,opt,name=address,proto3" json:"address"`
	Command uint32 `protobuf:"varint,2,opt,name=command,proto3" json:"command"`
	Toggle  bool   `protobuf:"varint,3,opt,name=toggle,proto3" json:"toggle,omitempty"`
}

// NewMessage implements SerializableMessage.
func (m *IRTrigger) NewMessage() fx.Message { return &IRTrigger{} }

// TypeID implements SerializableMessage.
func (m *IRTrigger) TypeID() uint32 { return IRTriggerTypeID }

// Serializable implements SerializableMessage.
func (m *IRTrigger) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *IRTrigger) ProtoMessage() {}

// Reset implements proto.Message.
func (m *IRTrigger) Reset() { *m = IRTrigger{} }

// String implements proto.Message.
func (m *IRTrigger) String() string { return proto.CompactTextString(m) }

// TypeID Groups
const (
	GroupInput   uint32 = 0x00010000
	GroupBattery uint32 = 0x00020000
	GroupIR      uint32 = 0x00030000
)

// TypeIDs
const (
	InputEventTypeID    uint32 = GroupInput | TypeIDKindEvent | 0x0000
	BatteryStatusTypeID uint32 = GroupBattery | TypeIDKindEvent | 0x0000
	IRTriggerTypeID     uint32 = GroupIR | TypeIDKindCommand | 0x0000
)
