// Package preflight provides readiness checks for the camera, the SMTP relay
// and the filesystem paths plantcam depends on.
//
// `plantcam doctor` prints every check. `plantcam run` logs the same results
// at startup but keeps going, since the camera or the network may come up
// before the dispatch hour.
package preflight
