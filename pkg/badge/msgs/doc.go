// Package msgs defines the badge telemetry messages and their wire form.
//
// Messages are protobuf encoded and wrapped in a Typed envelope carrying
// the type ID, so one topic or socket can carry any of them.
package msgs
