// Package daemonrun is the composition root for the long-running agent.
//
// Run prepares per-run logging, logs preflight results, builds the agent via
// Build, and keeps it alive under the supervisor until the operator quits.
// Build is shared with one-shot commands such as snap.
package daemonrun
