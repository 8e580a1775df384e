// Package services defines the shared error taxonomy and context plumbing for
// the external collaborators the pipeline depends on: the recording provider,
// the transcription API, and the section classifier.
//
// Collaborator clients live in subpackages (zoom, whisper, classifier). They
// tag failures with the sentinel errors exported here so the pipeline can map
// a stage failure to the right queue outcome without inspecting error text.
package services
