// Package daemon coordinates the long-running reframe process.
//
// It wires configuration, the PostgreSQL queue store, the workflow manager,
// and the HTTP API into a single lifecycle with flock-based locking to
// prevent multiple instances. The daemon exposes queue maintenance helpers,
// accepts export submissions, and emits dependency health summaries.
//
// Keep orchestration logic here: individual pipeline stages live in their
// respective packages while the daemon focuses on startup, shutdown, and
// high level coordination.
package daemon
