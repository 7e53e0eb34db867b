// Package badge contains the loop controllers of the badge daemon: the
// input pump fed by the interrupt bridge, battery telemetry, the status
// screen and IR commands.
package badge
