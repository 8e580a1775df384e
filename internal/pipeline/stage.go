// Package pipeline drives queued recordings through download,
// transcription, classification, and export.
package pipeline

import (
	"context"

	"scribe/internal/queue"
)

// Handler is the contract the runner needs from each stage. Prepare does
// cheap validation and path setup; Execute does the work and mutates the
// item in place; the runner persists the item after each call.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}

// Health summarizes the readiness of a pipeline stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// stageDef binds a handler to its queue transitions.
type stageDef struct {
	name             string
	handler          Handler
	processingStatus queue.Status
	doneStatus       queue.Status
}
