// Package process manages the lifecycle of a single subprocess.
//
// A Manager is single-shot: Start launches the process once, its output
// is captured and logged verbatim in fixed-size chunks, and Stop tears
// it down with SIGTERM, escalating to SIGKILL after a grace period. A
// process that has stopped is never respawned; a fresh Manager is built
// when a new process is wanted.
//
// Output capture failures only tear down the read side. The process
// keeps running in a draining state until it exits or is stopped, and
// is always reaped before Stop returns.
package process
