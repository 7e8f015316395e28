// Package services holds the small shared vocabulary used by the capture,
// mail and pipeline packages.
//
// Key responsibilities:
//   - Context helpers that stamp dispatch IDs and stage names for logging.
//   - Sentinel error markers plus the Wrap helper, so a failure can be
//     classified with errors.Is regardless of which collaborator produced it.
package services
