// Package agent runs the daily capture-and-dispatch loop.
//
// The loop is single threaded: each tick polls the quit key, lets the tracker
// re-arm at midnight, fires the pipeline when the dispatch window opens and
// then sleeps one poll interval. A flock-based lock in the state directory
// keeps a second agent (or a concurrent `plantcam snap`) off the camera.
package agent
