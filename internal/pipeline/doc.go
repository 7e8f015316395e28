// Package pipeline chains the three steps of a daily dispatch: capture the
// photo, mail it, delete the local copy.
//
// Run never returns an error. Each step's failure is logged at this boundary
// and folded into the Outcome so the caller only has to decide whether the day
// counts as done. Cleanup problems are reported but never change the result,
// and a photo whose send failed is left on disk.
package pipeline
