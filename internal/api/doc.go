// Package api defines wire-format types, request validation, and converters
// for the daemon's HTTP surface. It translates internal queue models into
// transport-friendly DTOs so HTTP consumers never couple to internal types.
//
// # Key Types
//
// SubmitRequest: a single export submission or a batch of them, distinguished
// by the task field ("export" or "batch-export").
//
// JobView: transport representation of a queue entry with progress, review
// state, and artifact paths.
//
// WorkflowStatus: daemon running state, queue counts, stage health, and the
// most recently finished job.
//
// # Design Notes
//
// Request and response payloads use snake_case JSON tags matching the
// submission contract the service has always accepted. Timestamps use RFC3339
// with milliseconds. Validation failures carry the validation marker so the
// HTTP layer can answer 400 instead of 500.
package api
