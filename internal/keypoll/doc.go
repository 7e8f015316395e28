// Package keypoll provides a non-blocking single-key listener for the agent's
// quit key.
//
// On an interactive terminal Open switches standard input to non-canonical,
// no-echo mode with immediate byte delivery and polls it with a zero timeout.
// Close puts the saved line discipline back exactly once. When standard input
// is not a terminal (a service unit, a pipe) Open falls back to a reader
// goroutine feeding a buffered channel.
package keypoll
