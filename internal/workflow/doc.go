// Package workflow coordinates the export pipeline.
//
// A Manager runs a configurable number of identical lanes. Each lane claims
// the oldest eligible job straight into its processing status, runs the stage
// handler registered for that status, and advances the job to the stage's
// done status. Claims happen in a single UPDATE guarded by FOR UPDATE SKIP
// LOCKED, so lanes (and other daemon instances sharing the queue database)
// never pick up the same job twice.
//
// While a stage executes, a heartbeat goroutine refreshes the job's liveness
// marker; the first lane also reclaims jobs whose heartbeat went stale so
// work lost to a crashed daemon is re-queued automatically.
package workflow
