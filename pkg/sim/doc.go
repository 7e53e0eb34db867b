// Package sim provides a simulated coprocessor so the badge software can
// run and be tested without hardware.
package sim
