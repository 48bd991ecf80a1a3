// Package queue persists export jobs in PostgreSQL and models their lifecycle.
//
// A job moves through paired start/processing statuses as workflow lanes claim
// it: pending -> downloading -> downloaded -> rendering -> rendered ->
// uploading -> completed. Failures land in failed (retryable) or review
// (operator attention needed).
//
// The Store claims work with FOR UPDATE SKIP LOCKED so concurrent lanes, and
// concurrent daemon replicas sharing one database, never pick up the same job.
package queue
