// Package capture drives the camera capture utility and returns the image it
// produced.
//
// Client shells out through an Executor so tests can substitute a stub that
// writes (or refuses to write) the expected file. The capture has its own
// timeout; a hung camera surfaces as an error wrapped with both
// services.ErrCapture and services.ErrTimeout.
package capture
