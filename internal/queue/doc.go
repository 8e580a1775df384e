// Package queue persists the processing state of each recording in a batch.
//
// One row exists per canonical recording UUID. The batch runner advances rows
// through the download → transcribe → classify → export lifecycle; failed and
// review states keep the error visible so an operator can retry or discard
// without re-running the recordings that already completed.
package queue
