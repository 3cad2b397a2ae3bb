// Package helper spawns and supervises the companion helper process.
//
// The helper is optional. When enabled it is launched with the message
// bus address as its only argument, its output is folded into the
// daemon's log, and teardown signals it once and waits for the exit to
// be collected. There is no respawn: a helper lives and dies with one
// module load.
package helper
