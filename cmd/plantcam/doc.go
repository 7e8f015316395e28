// Package main hosts the plantcam CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, then hands off to the
// internal packages: run starts the scheduled agent, snap dispatches a photo
// immediately, history and doctor report on the rig.
package main
