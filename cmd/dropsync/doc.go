// Package main hosts the dropsync CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, sets up structured logging,
// and hands sensor logs to the batch pipeline: `run` processes every log in
// the logs directory, `detect` and `align` work on a single log, and `runs`
// lists what the result catalog has recorded. Tables go to stdout; logs go to
// stderr and the configured log directory.
package main
